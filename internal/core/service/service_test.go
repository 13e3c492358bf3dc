package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/edamame-dev/canteen/internal/adapter/auth"
	"github.com/edamame-dev/canteen/internal/core/domain"
	"github.com/edamame-dev/canteen/internal/core/port"
	"github.com/edamame-dev/canteen/internal/core/port/mock"
	"github.com/edamame-dev/canteen/internal/core/service"
	"github.com/edamame-dev/canteen/internal/core/utils"
	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type prepareMocks func(repo *mock.MockRepository, cal *mock.MockCalendar)

var (
	testNow      = time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	testDayStart = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	testDayEnd   = time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
)

func expectCivilDay(cal *mock.MockCalendar) {
	cal.EXPECT().Now().Return(testNow).AnyTimes()
	cal.EXPECT().DayWindow(testNow).Return(testDayStart, testDayEnd).AnyTimes()
}

// expectTx runs the transactional closure against the same mock, the way
// the real repository rebinds itself to a transaction.
func expectTx(repo *mock.MockRepository) {
	repo.EXPECT().WithinTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(port.Repository) error) error {
			return fn(repo)
		})
}

func studentAccount(balance string) *domain.Account {
	return &domain.Account{
		ID:       1,
		Login:    "student",
		Role:     domain.RoleStudent,
		Balance:  decimal.MustParse(balance),
		IsActive: true,
	}
}

func beneficiaryAccount(balance string) *domain.Account {
	account := studentAccount(balance)
	account.IsBeneficiary = true
	return account
}

var (
	dishBorscht = &domain.MenuItem{ID: 10, DishName: "borscht", Price: decimal.MustParse("150")}
	dishCompote = &domain.MenuItem{ID: 11, DishName: "compote", Price: decimal.MustParse("25"), IsFreeSale: true}
	dishPoppy   = &domain.MenuItem{ID: 12, DishName: "poppy bun", Price: decimal.MustParse("100")}
)

func TestService_UserLogin(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	hashedPass, _ := utils.HashPassword("test")
	account := domain.Account{
		ID:       1,
		Login:    "test",
		Password: hashedPass,
		Role:     domain.RoleStudent,
		IsActive: true,
	}
	inactive := account
	inactive.IsActive = false

	tests := []struct {
		name     string
		login    string
		password string
		mock     prepareMocks
		expError error
	}{
		{
			name:     "Login good",
			login:    "test",
			password: "test",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				repo.EXPECT().GetAccountByLogin(gomock.Any(), "test").Return(&account, nil)
			},
			expError: nil,
		},
		{
			name:     "Password bad",
			login:    "test",
			password: "hacker",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				repo.EXPECT().GetAccountByLogin(gomock.Any(), "test").Return(&account, nil)
			},
			expError: domain.ErrInvalidCredentials,
		},
		{
			name:     "Login bad",
			login:    "hacker",
			password: "test",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				repo.EXPECT().GetAccountByLogin(gomock.Any(), "hacker").Return(nil, domain.ErrDataNotFound)
			},
			expError: domain.ErrInvalidCredentials,
		},
		{
			name:     "Deactivated account",
			login:    "test",
			password: "test",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				repo.EXPECT().GetAccountByLogin(gomock.Any(), "test").Return(&inactive, nil)
			},
			expError: domain.ErrForbidden,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := mock.NewMockRepository(mockCtrl)
			cal := mock.NewMockCalendar(mockCtrl)
			ts, err := auth.New()
			assert.NoError(t, err)
			test.mock(repo, cal)

			s, err := service.NewService(repo, ts, cal, logger)
			assert.NoError(t, err)

			token, err := s.LoginUser(context.Background(), test.login, test.password)
			assert.Equal(t, test.expError, err)

			if token != "" {
				payload, err := ts.VerifyToken(token)
				assert.NoError(t, err)
				assert.Equal(t, account.ID, payload.AccountID)
				assert.Equal(t, account.Role, payload.Role)
			}
		})
	}
}

func TestService_CreateAccount(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	curator := port.TokenPayload{AccountID: 5, Role: domain.RoleCurator}
	student := port.TokenPayload{AccountID: 1, Role: domain.RoleStudent}

	tests := []struct {
		name     string
		actor    port.TokenPayload
		account  domain.Account
		mock     prepareMocks
		expError error
	}{
		{
			name:    "Create good",
			actor:   curator,
			account: domain.Account{Login: "newbie"},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				repo.EXPECT().GetAccountByLogin(gomock.Any(), "newbie").Return(nil, domain.ErrDataNotFound)
				repo.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, account *domain.Account) (*domain.Account, error) {
						assert.Equal(t, domain.RoleStudent, account.Role)
						assert.Equal(t, decimal.Zero, account.Balance)
						assert.Equal(t, curator.AccountID, account.CreatedBy)
						assert.True(t, account.IsActive)
						return account, nil
					})
			},
			expError: nil,
		},
		{
			name:    "Login already exists",
			actor:   curator,
			account: domain.Account{Login: "newbie"},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				repo.EXPECT().GetAccountByLogin(gomock.Any(), "newbie").
					Return(&domain.Account{ID: 2, Login: "newbie"}, nil)
			},
			expError: domain.ErrConflictingData,
		},
		{
			name:     "Student cannot create accounts",
			actor:    student,
			account:  domain.Account{Login: "newbie"},
			mock:     func(repo *mock.MockRepository, cal *mock.MockCalendar) {},
			expError: domain.ErrForbidden,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := mock.NewMockRepository(mockCtrl)
			cal := mock.NewMockCalendar(mockCtrl)
			ts := mock.NewMockTokenService(mockCtrl)
			test.mock(repo, cal)

			s, err := service.NewService(repo, ts, cal, logger)
			assert.NoError(t, err)

			result, err := s.CreateAccount(context.Background(), test.actor, &test.account, "secret")
			assert.Equal(t, test.expError, err)
			if test.expError == nil {
				assert.NotNil(t, result)
			}
		})
	}
}

func TestService_CreateOrder(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	tests := []struct {
		name     string
		requests []domain.OrderItemRequest
		mock     prepareMocks
		expError error
		expTotal string
	}{
		{
			name:     "Create good order",
			requests: []domain.OrderItemRequest{{DishID: 10, Quantity: 1}},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("0"), nil)
				repo.EXPECT().FindOrderInWindow(gomock.Any(), uint64(1), false, testDayStart, testDayEnd).
					Return(nil, domain.ErrDataNotFound)
				repo.EXPECT().ListMenuItemsByIDs(gomock.Any(), []uint64{10}).
					Return([]*domain.MenuItem{dishBorscht}, nil)
				repo.EXPECT().AppendLedgerEntry(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
						assert.Equal(t, decimal.MustParse("-150"), entry.Amount)
						assert.Equal(t, decimal.MustParse("-150"), entry.NewBalance)
						assert.Equal(t, "order 2026-03-10", entry.Reason)
						return entry, nil
					})
				repo.EXPECT().SetAccountBalance(gomock.Any(), uint64(1), decimal.MustParse("-150")).
					Return(nil)
				repo.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, order *domain.Order) (*domain.Order, error) {
						order.ID = 100
						return order, nil
					})
				repo.EXPECT().PruneLedgerEntries(gomock.Any(), uint64(1), gomock.Any()).Return(nil)
			},
			expError: nil,
			expTotal: "150",
		},
		{
			name:     "Second order same day rejected",
			requests: []domain.OrderItemRequest{{DishID: 10, Quantity: 1}},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("0"), nil)
				repo.EXPECT().FindOrderInWindow(gomock.Any(), uint64(1), false, testDayStart, testDayEnd).
					Return(&domain.Order{ID: 99, AccountID: 1}, nil)
			},
			expError: domain.ErrDuplicateOrder,
		},
		{
			name:     "Empty order rejected",
			requests: []domain.OrderItemRequest{},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("0"), nil)
				repo.EXPECT().FindOrderInWindow(gomock.Any(), uint64(1), false, testDayStart, testDayEnd).
					Return(nil, domain.ErrDataNotFound)
			},
			expError: domain.ErrEmptyOrder,
		},
		{
			name:     "Unknown dish rejected",
			requests: []domain.OrderItemRequest{{DishID: 404, Quantity: 1}},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("0"), nil)
				repo.EXPECT().FindOrderInWindow(gomock.Any(), uint64(1), false, testDayStart, testDayEnd).
					Return(nil, domain.ErrDataNotFound)
				repo.EXPECT().ListMenuItemsByIDs(gomock.Any(), []uint64{404}).
					Return([]*domain.MenuItem{}, nil)
			},
			expError: domain.ErrDishNotFound,
		},
		{
			name:     "Debt ceiling enforced",
			requests: []domain.OrderItemRequest{{DishID: 10, Quantity: 1}},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("-100"), nil)
				repo.EXPECT().FindOrderInWindow(gomock.Any(), uint64(1), false, testDayStart, testDayEnd).
					Return(nil, domain.ErrDataNotFound)
				repo.EXPECT().ListMenuItemsByIDs(gomock.Any(), []uint64{10}).
					Return([]*domain.MenuItem{dishBorscht}, nil)
			},
			expError: domain.ErrInsufficientFunds,
		},
		{
			name:     "Beneficiary limited to free-sale dishes",
			requests: []domain.OrderItemRequest{{DishID: 10, Quantity: 1}, {DishID: 11, Quantity: 1}},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(beneficiaryAccount("0"), nil)
				repo.EXPECT().FindOrderInWindow(gomock.Any(), uint64(1), false, testDayStart, testDayEnd).
					Return(nil, domain.ErrDataNotFound)
				repo.EXPECT().ListMenuItemsByIDs(gomock.Any(), []uint64{10, 11}).
					Return([]*domain.MenuItem{dishBorscht, dishCompote}, nil)
			},
			expError: domain.ErrRestrictedItems,
		},
		{
			name:     "Zero quantity counts as one",
			requests: []domain.OrderItemRequest{{DishID: 11, Quantity: 0}},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("100"), nil)
				repo.EXPECT().FindOrderInWindow(gomock.Any(), uint64(1), false, testDayStart, testDayEnd).
					Return(nil, domain.ErrDataNotFound)
				repo.EXPECT().ListMenuItemsByIDs(gomock.Any(), []uint64{11}).
					Return([]*domain.MenuItem{dishCompote}, nil)
				repo.EXPECT().AppendLedgerEntry(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
						assert.Equal(t, decimal.MustParse("-25"), entry.Amount)
						return entry, nil
					})
				repo.EXPECT().SetAccountBalance(gomock.Any(), uint64(1), decimal.MustParse("75")).
					Return(nil)
				repo.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, order *domain.Order) (*domain.Order, error) {
						assert.Equal(t, int64(1), order.Items[0].Quantity)
						order.ID = 101
						return order, nil
					})
				repo.EXPECT().PruneLedgerEntries(gomock.Any(), uint64(1), gomock.Any()).Return(nil)
			},
			expError: nil,
			expTotal: "25",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := mock.NewMockRepository(mockCtrl)
			cal := mock.NewMockCalendar(mockCtrl)
			ts := mock.NewMockTokenService(mockCtrl)
			expectCivilDay(cal)
			test.mock(repo, cal)

			s, err := service.NewService(repo, ts, cal, logger)
			assert.NoError(t, err)

			order, err := s.CreateOrder(context.Background(), 1, test.requests)
			assert.Equal(t, test.expError, err)
			if test.expError == nil {
				assert.NotNil(t, order)
				assert.Equal(t, decimal.MustParse(test.expTotal), order.Total)
				assert.False(t, order.IsBeneficiary)
			}
		})
	}
}

func TestService_CreateBeneficiaryOrder(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	tests := []struct {
		name     string
		mock     prepareMocks
		expError error
	}{
		{
			name: "Create good",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(beneficiaryAccount("0"), nil)
				repo.EXPECT().FindOrderInWindow(gomock.Any(), uint64(1), true, testDayStart, testDayEnd).
					Return(nil, domain.ErrDataNotFound)
				repo.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, order *domain.Order) (*domain.Order, error) {
						assert.True(t, order.IsBeneficiary)
						assert.Empty(t, order.Items)
						assert.Equal(t, decimal.Zero, order.Total)
						order.ID = 102
						return order, nil
					})
			},
			expError: nil,
		},
		{
			name: "Second beneficiary order same day rejected",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(beneficiaryAccount("0"), nil)
				repo.EXPECT().FindOrderInWindow(gomock.Any(), uint64(1), true, testDayStart, testDayEnd).
					Return(&domain.Order{ID: 98, AccountID: 1, IsBeneficiary: true}, nil)
			},
			expError: domain.ErrDuplicateOrder,
		},
		{
			name: "Not eligible",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("0"), nil)
				repo.EXPECT().FindOrderInWindow(gomock.Any(), uint64(1), true, testDayStart, testDayEnd).
					Return(nil, domain.ErrDataNotFound)
			},
			expError: domain.ErrNotEligible,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := mock.NewMockRepository(mockCtrl)
			cal := mock.NewMockCalendar(mockCtrl)
			ts := mock.NewMockTokenService(mockCtrl)
			expectCivilDay(cal)
			test.mock(repo, cal)

			s, err := service.NewService(repo, ts, cal, logger)
			assert.NoError(t, err)

			order, err := s.CreateBeneficiaryOrder(context.Background(), 1)
			assert.Equal(t, test.expError, err)
			if test.expError == nil {
				assert.NotNil(t, order)
			}
		})
	}
}

func TestService_UpdateOrder(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	regularOrder := func() *domain.Order {
		return &domain.Order{
			ID:        100,
			AccountID: 1,
			Items: []domain.OrderItem{
				{DishID: 10, DishName: "borscht", Price: decimal.MustParse("150"), Quantity: 1},
			},
			Total:     decimal.MustParse("150"),
			CreatedAt: testNow,
		}
	}

	tests := []struct {
		name     string
		requests []domain.OrderItemRequest
		mock     prepareMocks
		expError error
		expTotal string
	}{
		{
			name:     "Replace items reverses old debit",
			requests: []domain.OrderItemRequest{{DishID: 12, Quantity: 1}},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("-150"), nil)
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(100)).
					Return(regularOrder(), nil)
				repo.EXPECT().ListMenuItemsByIDs(gomock.Any(), []uint64{12}).
					Return([]*domain.MenuItem{dishPoppy}, nil)
				repo.EXPECT().AppendLedgerEntry(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
						assert.Equal(t, decimal.MustParse("50"), entry.Amount)
						assert.Equal(t, decimal.MustParse("-100"), entry.NewBalance)
						assert.Equal(t, "order edit 2026-03-10", entry.Reason)
						return entry, nil
					})
				repo.EXPECT().SetAccountBalance(gomock.Any(), uint64(1), decimal.MustParse("-100")).
					Return(nil)
				repo.EXPECT().ReplaceOrderItems(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, order *domain.Order) (*domain.Order, error) {
						return order, nil
					})
				repo.EXPECT().PruneLedgerEntries(gomock.Any(), uint64(1), gomock.Any()).Return(nil)
			},
			expError: nil,
			expTotal: "100",
		},
		{
			name:     "Edit pushing past ceiling rejected",
			requests: []domain.OrderItemRequest{{DishID: 12, Quantity: 4}},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("-150"), nil)
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(100)).
					Return(regularOrder(), nil)
				repo.EXPECT().ListMenuItemsByIDs(gomock.Any(), []uint64{12}).
					Return([]*domain.MenuItem{dishPoppy}, nil)
			},
			expError: domain.ErrInsufficientFunds,
		},
		{
			name:     "Beneficiary order immutable",
			requests: []domain.OrderItemRequest{{DishID: 12, Quantity: 1}},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(beneficiaryAccount("0"), nil)
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(100)).
					Return(&domain.Order{ID: 100, AccountID: 1, IsBeneficiary: true, Total: decimal.Zero}, nil)
			},
			expError: domain.ErrImmutableOrder,
		},
		{
			name:     "Foreign order forbidden",
			requests: []domain.OrderItemRequest{{DishID: 12, Quantity: 1}},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("0"), nil)
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(100)).
					Return(&domain.Order{ID: 100, AccountID: 2, Total: decimal.MustParse("150")}, nil)
			},
			expError: domain.ErrForbidden,
		},
		{
			name:     "Order not found",
			requests: []domain.OrderItemRequest{{DishID: 12, Quantity: 1}},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("0"), nil)
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(100)).
					Return(nil, domain.ErrDataNotFound)
			},
			expError: domain.ErrDataNotFound,
		},
		{
			name:     "All quantities zeroed rejected",
			requests: []domain.OrderItemRequest{{DishID: 10, Quantity: 0}},
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("-150"), nil)
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(100)).
					Return(regularOrder(), nil)
			},
			expError: domain.ErrEmptyOrder,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := mock.NewMockRepository(mockCtrl)
			cal := mock.NewMockCalendar(mockCtrl)
			ts := mock.NewMockTokenService(mockCtrl)
			expectCivilDay(cal)
			test.mock(repo, cal)

			s, err := service.NewService(repo, ts, cal, logger)
			assert.NoError(t, err)

			order, err := s.UpdateOrder(context.Background(), 1, 100, test.requests)
			assert.Equal(t, test.expError, err)
			if test.expError == nil {
				assert.NotNil(t, order)
				assert.Equal(t, decimal.MustParse(test.expTotal), order.Total)
			}
		})
	}
}

func TestService_DeleteOrder(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	tests := []struct {
		name     string
		mock     prepareMocks
		expError error
	}{
		{
			name: "Delete refunds the debit",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("-150"), nil)
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(100)).
					Return(&domain.Order{ID: 100, AccountID: 1, Total: decimal.MustParse("150")}, nil)
				repo.EXPECT().AppendLedgerEntry(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
						assert.Equal(t, decimal.MustParse("150"), entry.Amount)
						assert.Equal(t, decimal.MustParse("0"), entry.NewBalance)
						assert.Equal(t, "order cancellation 2026-03-10", entry.Reason)
						return entry, nil
					})
				repo.EXPECT().SetAccountBalance(gomock.Any(), uint64(1), decimal.MustParse("0")).
					Return(nil)
				repo.EXPECT().DeleteOrder(gomock.Any(), uint64(100)).Return(nil)
				repo.EXPECT().PruneLedgerEntries(gomock.Any(), uint64(1), gomock.Any()).Return(nil)
			},
			expError: nil,
		},
		{
			name: "Beneficiary delete moves no money",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(beneficiaryAccount("0"), nil)
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(100)).
					Return(&domain.Order{ID: 100, AccountID: 1, IsBeneficiary: true, Total: decimal.Zero}, nil)
				repo.EXPECT().DeleteOrder(gomock.Any(), uint64(100)).Return(nil)
				repo.EXPECT().PruneLedgerEntries(gomock.Any(), uint64(1), gomock.Any()).Return(nil)
			},
			expError: nil,
		},
		{
			name: "Foreign order forbidden",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("0"), nil)
				repo.EXPECT().ReadOrder(gomock.Any(), uint64(100)).
					Return(&domain.Order{ID: 100, AccountID: 2, Total: decimal.MustParse("150")}, nil)
			},
			expError: domain.ErrForbidden,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := mock.NewMockRepository(mockCtrl)
			cal := mock.NewMockCalendar(mockCtrl)
			ts := mock.NewMockTokenService(mockCtrl)
			expectCivilDay(cal)
			test.mock(repo, cal)

			s, err := service.NewService(repo, ts, cal, logger)
			assert.NoError(t, err)

			err = s.DeleteOrder(context.Background(), 1, 100)
			assert.Equal(t, test.expError, err)
		})
	}
}

func TestService_AdjustBalance(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	admin := port.TokenPayload{AccountID: 5, Role: domain.RoleAdmin}
	student := port.TokenPayload{AccountID: 2, Role: domain.RoleStudent}

	tests := []struct {
		name       string
		actor      port.TokenPayload
		amount     string
		mock       prepareMocks
		expError   error
		expBalance string
	}{
		{
			name:   "Top-up",
			actor:  admin,
			amount: "500",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("-150"), nil)
				repo.EXPECT().AppendLedgerEntry(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
						assert.Equal(t, decimal.MustParse("500"), entry.Amount)
						assert.Equal(t, decimal.MustParse("350"), entry.NewBalance)
						assert.Equal(t, admin.AccountID, entry.ChangedBy)
						return entry, nil
					})
				repo.EXPECT().SetAccountBalance(gomock.Any(), uint64(1), decimal.MustParse("350")).
					Return(nil)
				repo.EXPECT().PruneLedgerEntries(gomock.Any(), uint64(1), gomock.Any()).Return(nil)
			},
			expError:   nil,
			expBalance: "350",
		},
		{
			name:   "Debit past ceiling rejected",
			actor:  admin,
			amount: "-100",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("-150"), nil)
			},
			expError: domain.ErrInsufficientFunds,
		},
		{
			name:   "Student tops up own account",
			actor:  port.TokenPayload{AccountID: 1, Role: domain.RoleStudent},
			amount: "200",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				expectTx(repo)
				repo.EXPECT().GetAccountForUpdate(gomock.Any(), uint64(1)).
					Return(studentAccount("-150"), nil)
				repo.EXPECT().AppendLedgerEntry(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
						assert.Equal(t, uint64(1), entry.ChangedBy)
						return entry, nil
					})
				repo.EXPECT().SetAccountBalance(gomock.Any(), uint64(1), decimal.MustParse("50")).
					Return(nil)
				repo.EXPECT().PruneLedgerEntries(gomock.Any(), uint64(1), gomock.Any()).Return(nil)
			},
			expError:   nil,
			expBalance: "50",
		},
		{
			name:     "Student cannot adjust another account",
			actor:    student,
			amount:   "500",
			mock:     func(repo *mock.MockRepository, cal *mock.MockCalendar) {},
			expError: domain.ErrForbidden,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := mock.NewMockRepository(mockCtrl)
			cal := mock.NewMockCalendar(mockCtrl)
			ts := mock.NewMockTokenService(mockCtrl)
			expectCivilDay(cal)
			test.mock(repo, cal)

			s, err := service.NewService(repo, ts, cal, logger)
			assert.NoError(t, err)

			account, err := s.AdjustBalance(context.Background(), test.actor, 1,
				decimal.MustParse(test.amount), "")
			assert.Equal(t, test.expError, err)
			if test.expError == nil {
				assert.Equal(t, decimal.MustParse(test.expBalance), account.Balance)
			}
		})
	}
}

func TestService_ChangePassword(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	hashedPass, _ := utils.HashPassword("old")
	self := port.TokenPayload{AccountID: 1, Role: domain.RoleStudent}
	curator := port.TokenPayload{AccountID: 5, Role: domain.RoleCurator}

	accountOf := func(createdBy uint64) *domain.Account {
		account := studentAccount("0")
		account.Password = hashedPass
		account.CreatedBy = createdBy
		return account
	}

	t.Run("Self change with old password", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		cal := mock.NewMockCalendar(mockCtrl)
		ts := mock.NewMockTokenService(mockCtrl)

		repo.EXPECT().GetAccountByID(gomock.Any(), uint64(1)).Return(accountOf(5), nil)
		repo.EXPECT().UpdateAccountPassword(gomock.Any(), uint64(1), gomock.Any()).Return(nil)

		s, err := service.NewService(repo, ts, cal, logger)
		assert.NoError(t, err)

		err = s.ChangePassword(context.Background(), self, 1, "old", "new")
		assert.NoError(t, err)
	})

	t.Run("Self change with wrong old password", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		cal := mock.NewMockCalendar(mockCtrl)
		ts := mock.NewMockTokenService(mockCtrl)

		repo.EXPECT().GetAccountByID(gomock.Any(), uint64(1)).Return(accountOf(5), nil)

		s, err := service.NewService(repo, ts, cal, logger)
		assert.NoError(t, err)

		err = s.ChangePassword(context.Background(), self, 1, "hacker", "new")
		assert.Equal(t, domain.ErrInvalidCredentials, err)
	})

	t.Run("Curator resets own student", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		cal := mock.NewMockCalendar(mockCtrl)
		ts := mock.NewMockTokenService(mockCtrl)

		repo.EXPECT().GetAccountByID(gomock.Any(), uint64(1)).Return(accountOf(5), nil)
		repo.EXPECT().UpdateAccountPassword(gomock.Any(), uint64(1), gomock.Any()).Return(nil)

		s, err := service.NewService(repo, ts, cal, logger)
		assert.NoError(t, err)

		err = s.SetPassword(context.Background(), curator, 1, "new")
		assert.NoError(t, err)
	})

	t.Run("Curator cannot reset foreign student", func(t *testing.T) {
		repo := mock.NewMockRepository(mockCtrl)
		cal := mock.NewMockCalendar(mockCtrl)
		ts := mock.NewMockTokenService(mockCtrl)

		repo.EXPECT().GetAccountByID(gomock.Any(), uint64(1)).Return(accountOf(7), nil)

		s, err := service.NewService(repo, ts, cal, logger)
		assert.NoError(t, err)

		err = s.SetPassword(context.Background(), curator, 1, "new")
		assert.Equal(t, domain.ErrForbidden, err)
	})
}
