package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/edamame-dev/canteen/internal/core/domain"
	"github.com/edamame-dev/canteen/internal/core/port/mock"
	"github.com/edamame-dev/canteen/internal/core/service"
	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func groupStudent(id uint64, lastName, firstName, balance string) *domain.Account {
	return &domain.Account{
		ID:        id,
		Login:     firstName,
		Role:      domain.RoleStudent,
		LastName:  lastName,
		FirstName: firstName,
		Group:     "5-B",
		Balance:   decimal.MustParse(balance),
		IsActive:  true,
	}
}

func TestService_GroupOrdersReport(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	students := []*domain.Account{
		groupStudent(1, "Ivanova", "Anna", "0"),
		groupStudent(2, "Petrov", "Boris", "0"),
	}
	orders := []*domain.Order{
		{
			ID:        100,
			AccountID: 1,
			Items: []domain.OrderItem{
				{DishID: 10, DishName: "borscht", Price: decimal.MustParse("150"), Quantity: 1},
				{DishID: 11, DishName: "compote", Price: decimal.MustParse("25"), Quantity: 2, IsFreeSale: true},
			},
			Total:     decimal.MustParse("200"),
			CreatedAt: testNow,
		},
		{
			ID:            101,
			AccountID:     2,
			IsBeneficiary: true,
			Total:         decimal.Zero,
			CreatedAt:     testNow,
		},
	}

	tests := []struct {
		name     string
		group    string
		mock     prepareMocks
		expRows  int
		expError error
	}{
		{
			name:  "Today's orders",
			group: "5-B",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				repo.EXPECT().ListStudentsByGroup(gomock.Any(), "5-B").Return(students, nil)
				repo.EXPECT().ListOrdersByAccountsBetween(gomock.Any(),
					[]uint64{1, 2}, testDayStart, testDayEnd).Return(orders, nil)
			},
			expRows: 2,
		},
		{
			name:     "Missing group",
			group:    "",
			mock:     func(repo *mock.MockRepository, cal *mock.MockCalendar) {},
			expError: domain.ErrBadRequest,
		},
		{
			name:  "Unknown group",
			group: "9-Z",
			mock: func(repo *mock.MockRepository, cal *mock.MockCalendar) {
				repo.EXPECT().ListStudentsByGroup(gomock.Any(), "9-Z").Return(nil, nil)
			},
			expError: domain.ErrDataNotFound,
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

			rows, err := s.GroupOrdersReport(context.Background(), test.group,
				time.Time{}, time.Time{})
			assert.Equal(t, test.expError, err)
			if test.expError != nil {
				return
			}

			assert.Len(t, rows, test.expRows)
			assert.Equal(t, "Ivanova", rows[0].LastName)
			assert.Equal(t, "borscht; compote", rows[0].Dishes)
			assert.Equal(t, decimal.MustParse("200"), rows[0].Total)
			assert.Equal(t, "Petrov", rows[1].LastName)
			assert.Equal(t, "", rows[1].Dishes)
		})
	}
}

func TestService_GroupOrdersReport_BadRange(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	repo := mock.NewMockRepository(mockCtrl)
	cal := mock.NewMockCalendar(mockCtrl)
	ts := mock.NewMockTokenService(mockCtrl)

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cal.EXPECT().DayWindow(from).
		Return(from, from.AddDate(0, 0, 1)).AnyTimes()
	cal.EXPECT().DayWindow(to).
		Return(to, to.AddDate(0, 0, 1)).AnyTimes()

	s, err := service.NewService(repo, ts, cal, logger)
	assert.NoError(t, err)

	_, err = s.GroupOrdersReport(context.Background(), "5-B", from, to)
	assert.Equal(t, domain.ErrBadRequest, err)
}

func TestService_GroupCafeteriaReport(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	students := []*domain.Account{
		groupStudent(1, "Ivanova", "Anna", "0"),
		groupStudent(2, "Petrov", "Boris", "0"),
	}
	orders := []*domain.Order{
		{
			ID:        100,
			AccountID: 1,
			Items: []domain.OrderItem{
				{DishID: 10, DishName: "borscht", Price: decimal.MustParse("150"), Quantity: 1},
				{DishID: 11, DishName: "compote", Price: decimal.MustParse("25"), Quantity: 2, IsFreeSale: true},
			},
			Total: decimal.MustParse("200"),
		},
		{
			ID:        101,
			AccountID: 2,
			Items: []domain.OrderItem{
				{DishID: 10, DishName: "borscht", Price: decimal.MustParse("150"), Quantity: 1},
			},
			Total: decimal.MustParse("150"),
		},
		{
			ID:            102,
			AccountID:     2,
			IsBeneficiary: true,
			Total:         decimal.Zero,
		},
	}

	repo := mock.NewMockRepository(mockCtrl)
	cal := mock.NewMockCalendar(mockCtrl)
	ts := mock.NewMockTokenService(mockCtrl)
	expectCivilDay(cal)
	repo.EXPECT().ListStudentsByGroup(gomock.Any(), "5-B").Return(students, nil)
	repo.EXPECT().ListOrdersByAccountsBetween(gomock.Any(),
		[]uint64{1, 2}, testDayStart, testDayEnd).Return(orders, nil)

	s, err := service.NewService(repo, ts, cal, logger)
	assert.NoError(t, err)

	report, err := s.GroupCafeteriaReport(context.Background(), "5-B",
		time.Time{}, time.Time{})
	assert.NoError(t, err)

	assert.Equal(t, 1, report.BeneficiaryOrders)
	assert.Equal(t, decimal.MustParse("350"), report.Total)

	assert.Len(t, report.PaidDishes, 1)
	assert.Equal(t, "borscht", report.PaidDishes[0].DishName)
	assert.Equal(t, int64(2), report.PaidDishes[0].Quantity)
	assert.Equal(t, decimal.MustParse("300"), report.PaidDishes[0].TotalPrice)

	assert.Len(t, report.FreeSaleDishes, 1)
	assert.Equal(t, "compote", report.FreeSaleDishes[0].DishName)
	assert.Equal(t, int64(2), report.FreeSaleDishes[0].Quantity)
	assert.Equal(t, decimal.MustParse("50"), report.FreeSaleDishes[0].TotalPrice)
}

func TestService_GroupBalanceReports(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	inactive := groupStudent(3, "Sidorov", "Gleb", "-90")
	inactive.IsActive = false
	students := []*domain.Account{
		groupStudent(1, "Ivanova", "Anna", "120"),
		groupStudent(2, "Petrov", "Boris", "-75"),
		inactive,
	}

	newService := func() *service.Service {
		repo := mock.NewMockRepository(mockCtrl)
		cal := mock.NewMockCalendar(mockCtrl)
		ts := mock.NewMockTokenService(mockCtrl)
		repo.EXPECT().ListStudentsByGroup(gomock.Any(), "5-B").Return(students, nil)

		s, err := service.NewService(repo, ts, cal, logger)
		assert.NoError(t, err)
		return s
	}

	t.Run("Snapshot skips inactive accounts", func(t *testing.T) {
		report, err := newService().GroupBalanceSnapshot(context.Background(), "5-B")
		assert.NoError(t, err)
		assert.Len(t, report.Rows, 2)
		assert.Equal(t, decimal.MustParse("45"), report.Total)
	})

	t.Run("Debtors keeps negative balances only", func(t *testing.T) {
		report, err := newService().GroupDebtorsReport(context.Background(), "5-B")
		assert.NoError(t, err)
		assert.Len(t, report.Rows, 1)
		assert.Equal(t, "Petrov", report.Rows[0].LastName)
		assert.Equal(t, decimal.MustParse("-75"), report.Total)
	})
}

func TestService_GroupLedgerReport(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	students := []*domain.Account{
		groupStudent(1, "Ivanova", "Anna", "120"),
	}
	curator := &domain.Account{
		ID: 5, Role: domain.RoleCurator, LastName: "Orlova", FirstName: "Daria",
	}
	entries := []*domain.LedgerEntry{
		{
			ID: 200, AccountID: 1,
			Amount:     decimal.MustParse("500"),
			NewBalance: decimal.MustParse("500"),
			ChangedBy:  5,
			Reason:     "September top-up",
			ChangedAt:  testNow,
		},
		{
			ID: 201, AccountID: 1,
			Amount:     decimal.MustParse("-150"),
			NewBalance: decimal.MustParse("350"),
			ChangedBy:  99,
			Reason:     domain.ReasonOrder,
			ChangedAt:  testNow,
		},
	}

	repo := mock.NewMockRepository(mockCtrl)
	cal := mock.NewMockCalendar(mockCtrl)
	ts := mock.NewMockTokenService(mockCtrl)
	expectCivilDay(cal)
	repo.EXPECT().ListStudentsByGroup(gomock.Any(), "5-B").Return(students, nil)
	repo.EXPECT().ListLedgerEntriesByAccountsBetween(gomock.Any(),
		[]uint64{1}, testDayStart, testDayEnd).Return(entries, nil)
	repo.EXPECT().ListAccountsByIDs(gomock.Any(), []uint64{5, 99}).
		Return([]*domain.Account{curator}, nil)

	s, err := service.NewService(repo, ts, cal, logger)
	assert.NoError(t, err)

	rows, err := s.GroupLedgerReport(context.Background(), "5-B",
		time.Time{}, time.Time{})
	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Equal(t, "Ivanova", rows[0].LastName)
	assert.Equal(t, "Daria Orlova", rows[0].ChangedBy)
	assert.Equal(t, "September top-up", rows[0].Reason)
	assert.Equal(t, "unknown", rows[1].ChangedBy)
	assert.Equal(t, decimal.MustParse("350"), rows[1].NewBalance)
}

func TestService_StudentLedgerReport(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	student := groupStudent(1, "Ivanova", "Anna", "350")
	entries := []*domain.LedgerEntry{
		{
			ID: 200, AccountID: 1,
			Amount:     decimal.MustParse("500"),
			NewBalance: decimal.MustParse("500"),
			ChangedBy:  1,
			Reason:     domain.ReasonManualAdjustment,
			ChangedAt:  testNow,
		},
	}

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periodStart := from
	periodEnd := testDayEnd

	repo := mock.NewMockRepository(mockCtrl)
	cal := mock.NewMockCalendar(mockCtrl)
	ts := mock.NewMockTokenService(mockCtrl)
	cal.EXPECT().Now().Return(testNow).AnyTimes()
	cal.EXPECT().DayWindow(from).Return(from, from.AddDate(0, 0, 1)).AnyTimes()
	cal.EXPECT().DayWindow(testNow).Return(testDayStart, testDayEnd).AnyTimes()
	repo.EXPECT().GetAccountByID(gomock.Any(), uint64(1)).Return(student, nil)
	repo.EXPECT().ListLedgerEntriesByAccountsBetween(gomock.Any(),
		[]uint64{1}, periodStart, periodEnd).Return(entries, nil)
	repo.EXPECT().ListAccountsByIDs(gomock.Any(), []uint64{1}).
		Return([]*domain.Account{student}, nil)

	s, err := service.NewService(repo, ts, cal, logger)
	assert.NoError(t, err)

	rows, balance, err := s.StudentLedgerReport(context.Background(), 1, from, time.Time{})
	assert.NoError(t, err)
	assert.Equal(t, decimal.MustParse("350"), balance)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Ivanova", rows[0].LastName)
	assert.Equal(t, "Anna Ivanova", rows[0].ChangedBy)
}
