package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edamame-dev/canteen/internal/core/domain"
	"github.com/edamame-dev/canteen/internal/core/port"
	"github.com/edamame-dev/canteen/internal/core/utils"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

type Service struct {
	repo         port.Repository
	tokenService port.TokenService
	calendar     port.Calendar
	logger       *zap.Logger
}

func NewService(repo port.Repository, tokenService port.TokenService,
	calendar port.Calendar, logger *zap.Logger) (*Service, error) {
	return &Service{
		repo:         repo,
		tokenService: tokenService,
		calendar:     calendar,
		logger:       logger,
	}, nil
}

func (s *Service) LoginUser(ctx context.Context, login string, password string) (string, error) {
	account, err := s.repo.GetAccountByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", domain.ErrInternal
	}

	err = utils.ComparePassword(password, account.Password)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	if !account.IsActive {
		return "", domain.ErrForbidden
	}

	token, err := s.tokenService.CreateToken(account)
	if err != nil {
		s.logger.Error("Create token", zap.Error(err))
		return "", domain.ErrTokenCreation
	}

	return token, nil
}

func isStaff(role domain.Role) bool {
	return role == domain.RoleAdmin || role == domain.RoleCurator
}

func (s *Service) CreateAccount(ctx context.Context, actor port.TokenPayload,
	account *domain.Account, password string) (*domain.Account, error) {
	if !isStaff(actor.Role) {
		return nil, domain.ErrForbidden
	}

	exAccount, err := s.repo.GetAccountByLogin(ctx, account.Login)
	if err != nil && !errors.Is(err, domain.ErrDataNotFound) {
		s.logger.Error("Get account", zap.Error(err))
		return nil, domain.ErrInternal
	}
	if exAccount != nil {
		return nil, domain.ErrConflictingData
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		s.logger.Error("Hash password", zap.Error(err))
		return nil, domain.ErrInternal
	}

	account.Password = hashed
	account.Balance = decimal.Zero
	account.IsActive = true
	account.CreatedBy = actor.AccountID
	if account.Role == "" {
		account.Role = domain.RoleStudent
	}

	newAccount, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		if errors.Is(err, domain.ErrConflictingData) {
			return nil, err
		}
		s.logger.Error("Create account", zap.Error(err))
		return nil, domain.ErrInternal
	}

	return newAccount, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	list, err := s.repo.ListAccounts(ctx)
	if err != nil {
		s.logger.Error("List accounts", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) GetAccount(ctx context.Context, actor port.TokenPayload, id uint64) (*domain.Account, error) {
	if actor.AccountID != id && !isStaff(actor.Role) {
		return nil, domain.ErrForbidden
	}
	return s.repo.GetAccountByID(ctx, id)
}

// canManage reports whether the actor may administer the given account:
// admins manage everyone, curators only accounts they provisioned.
func canManage(actor port.TokenPayload, account *domain.Account) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return actor.Role == domain.RoleCurator && account.CreatedBy == actor.AccountID
}

func (s *Service) UpdateAccount(ctx context.Context, actor port.TokenPayload,
	id uint64, upd domain.AccountUpdate) (*domain.Account, error) {
	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, account) {
		return nil, domain.ErrForbidden
	}

	updated, err := s.repo.UpdateAccount(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrConflictingData) || errors.Is(err, domain.ErrNoUpdatedData) {
			return nil, err
		}
		s.logger.Error("Update account", zap.Error(err))
		return nil, err
	}
	return updated, nil
}

func (s *Service) ChangePassword(ctx context.Context, actor port.TokenPayload,
	id uint64, oldPassword, newPassword string) error {
	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}

	if actor.AccountID == id {
		if err := utils.ComparePassword(oldPassword, account.Password); err != nil {
			return domain.ErrInvalidCredentials
		}
	} else if !canManage(actor, account) {
		return domain.ErrForbidden
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("Hash password", zap.Error(err))
		return domain.ErrInternal
	}

	return s.repo.UpdateAccountPassword(ctx, id, hashed)
}

func (s *Service) SetPassword(ctx context.Context, actor port.TokenPayload,
	id uint64, newPassword string) error {
	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, account) {
		return domain.ErrForbidden
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("Hash password", zap.Error(err))
		return domain.ErrInternal
	}

	return s.repo.UpdateAccountPassword(ctx, id, hashed)
}

// AdjustBalance applies a manual signed delta to an account's balance, the
// same append+setBalance pair as order debits, with the same debt ceiling.
func (s *Service) AdjustBalance(ctx context.Context, actor port.TokenPayload,
	accountID uint64, amount decimal.Decimal, reason string) (*domain.Account, error) {
	if actor.AccountID != accountID && !isStaff(actor.Role) {
		return nil, domain.ErrForbidden
	}
	if reason == "" {
		reason = domain.ReasonManualAdjustment
	}

	now := s.calendar.Now()

	var adjusted *domain.Account
	err := s.repo.WithinTransaction(ctx, func(tx port.Repository) error {
		account, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		projected, err := account.Balance.Add(amount)
		if err != nil {
			return fmt.Errorf("math error: %w", err)
		}
		if projected.Cmp(domain.DebtCeiling) < 0 {
			return domain.ErrInsufficientFunds
		}

		if err := s.applyBalanceChange(ctx, tx, account, amount, projected, actor.AccountID, reason, now); err != nil {
			return err
		}

		account.Balance = projected
		adjusted = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.pruneLedger(ctx, accountID, now)
	return adjusted, nil
}

func (s *Service) LedgerHistory(ctx context.Context, actor port.TokenPayload,
	accountID uint64) ([]*domain.LedgerEntry, error) {
	if actor.AccountID != accountID && !isStaff(actor.Role) {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListLedgerEntries(ctx, accountID)
}

// applyBalanceChange is the only sanctioned path to move a balance: one
// ledger entry and the matching balance write, inside the caller's
// transaction. The snapshot invariant is verified here, not assumed.
func (s *Service) applyBalanceChange(ctx context.Context, tx port.Repository,
	account *domain.Account, amount, newBalance decimal.Decimal,
	changedBy uint64, reason string, now time.Time) error {
	expected, err := account.Balance.Add(amount)
	if err != nil {
		return fmt.Errorf("math error: %w", err)
	}
	if expected.Cmp(newBalance) != 0 {
		s.logger.Error("ledger snapshot mismatch",
			zap.Uint64("account", account.ID),
			zap.String("amount", amount.String()),
			zap.String("newBalance", newBalance.String()))
		return domain.ErrInternal
	}

	entry := &domain.LedgerEntry{
		AccountID:  account.ID,
		Amount:     amount,
		NewBalance: newBalance,
		ChangedBy:  changedBy,
		Reason:     reason,
		ChangedAt:  now,
	}
	if _, err := tx.AppendLedgerEntry(ctx, entry); err != nil {
		return err
	}
	return tx.SetAccountBalance(ctx, account.ID, newBalance)
}

// pruneLedger trims history beyond the retention window. Best effort after
// commit: a failed prune never fails the operation that triggered it.
func (s *Service) pruneLedger(ctx context.Context, accountID uint64, now time.Time) {
	cutoff := now.AddDate(-domain.LedgerRetentionYears, 0, 0)
	if err := s.repo.PruneLedgerEntries(ctx, accountID, cutoff); err != nil {
		s.logger.Warn("ledger prune failed",
			zap.Uint64("account", accountID), zap.Error(err))
	}
}
