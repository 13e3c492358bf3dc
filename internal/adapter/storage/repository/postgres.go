package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/edamame-dev/canteen/internal/adapter/storage"
	"github.com/edamame-dev/canteen/internal/core/domain"
	"github.com/edamame-dev/canteen/internal/core/port"
	"github.com/govalues/decimal"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both pgxpool.Pool and pgx.Tx, so the same
// repository methods run standalone or inside WithinTransaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db   *storage.DB
	conn querier
}

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db, conn: db.Pool}, nil
}

// WithinTransaction runs fn against a repository bound to one pgx
// transaction. Serialization conflicts and deadlocks surface as
// ErrTransient so callers can retry from scratch.
func (r *Repository) WithinTransaction(ctx context.Context, fn func(tx port.Repository) error) error {
	err := pgx.BeginTxFunc(ctx, r.db.Pool,
		pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
		func(tx pgx.Tx) error {
			return fn(&Repository{db: r.db, conn: tx})
		})
	if err != nil {
		return mapError(err)
	}
	return nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return domain.ErrConflictingData
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
			return domain.ErrTransient
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrDataNotFound
	}
	return err
}

var accountColumns = []string{
	"id", "login", "password", "role", "last_name", "first_name",
	"class_group", "balance", "is_beneficiary", "is_active", "created_by", "created_at",
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := domain.Account{}
	err := row.Scan(
		&a.ID,
		&a.Login,
		&a.Password,
		&a.Role,
		&a.LastName,
		&a.FirstName,
		&a.Group,
		&a.Balance,
		&a.IsBeneficiary,
		&a.IsActive,
		&a.CreatedBy,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	statement := r.db.QueryBuilder.Insert("accounts").
		Columns("login", "password", "role", "last_name", "first_name",
			"class_group", "balance", "is_beneficiary", "is_active", "created_by").
		Values(account.Login, account.Password, account.Role, account.LastName,
			account.FirstName, account.Group, account.Balance,
			account.IsBeneficiary, account.IsActive, account.CreatedBy).
		Suffix("returning id, created_at")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	err = r.conn.QueryRow(ctx, sql, args...).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return account, nil
}

func (r *Repository) getAccount(ctx context.Context, pred sq.Eq, forUpdate bool) (*domain.Account, error) {
	statement := r.db.QueryBuilder.
		Select(accountColumns...).
		From("accounts").
		Where(pred)
	if forUpdate {
		statement = statement.Suffix("for update")
	}

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	return scanAccount(r.conn.QueryRow(ctx, sql, args...))
}

func (r *Repository) GetAccountByID(ctx context.Context, id uint64) (*domain.Account, error) {
	return r.getAccount(ctx, sq.Eq{"id": id}, false)
}

func (r *Repository) GetAccountByLogin(ctx context.Context, login string) (*domain.Account, error) {
	return r.getAccount(ctx, sq.Eq{"login": login}, false)
}

func (r *Repository) GetAccountForUpdate(ctx context.Context, id uint64) (*domain.Account, error) {
	return r.getAccount(ctx, sq.Eq{"id": id}, true)
}

func (r *Repository) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	statement := r.db.QueryBuilder.
		Select(accountColumns...).
		From("accounts").
		OrderBy("id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	list := make([]*domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return list, nil
}

func (r *Repository) UpdateAccount(ctx context.Context, id uint64, upd domain.AccountUpdate) (*domain.Account, error) {
	statement := r.db.QueryBuilder.Update("accounts").Where(sq.Eq{"id": id})

	changed := false
	if upd.Login != nil {
		statement = statement.Set("login", *upd.Login)
		changed = true
	}
	if upd.LastName != nil {
		statement = statement.Set("last_name", *upd.LastName)
		changed = true
	}
	if upd.FirstName != nil {
		statement = statement.Set("first_name", *upd.FirstName)
		changed = true
	}
	if upd.Group != nil {
		statement = statement.Set("class_group", *upd.Group)
		changed = true
	}
	if upd.IsBeneficiary != nil {
		statement = statement.Set("is_beneficiary", *upd.IsBeneficiary)
		changed = true
	}
	if upd.IsActive != nil {
		statement = statement.Set("is_active", *upd.IsActive)
		changed = true
	}
	if !changed {
		return nil, domain.ErrNoUpdatedData
	}

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrDataNotFound
	}

	return r.GetAccountByID(ctx, id)
}

func (r *Repository) UpdateAccountPassword(ctx context.Context, id uint64, hashed string) error {
	statement := r.db.QueryBuilder.Update("accounts").
		Set("password", hashed).
		Where(sq.Eq{"id": id})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDataNotFound
	}
	return nil
}

func (r *Repository) SetAccountBalance(ctx context.Context, id uint64, balance decimal.Decimal) error {
	statement := r.db.QueryBuilder.Update("accounts").
		Set("balance", balance).
		Where(sq.Eq{"id": id})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDataNotFound
	}
	return nil
}

func (r *Repository) AppendLedgerEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	statement := r.db.QueryBuilder.Insert("ledger_entries").
		Columns("account_id", "amount", "new_balance", "changed_by", "reason", "changed_at").
		Values(entry.AccountID, entry.Amount, entry.NewBalance,
			entry.ChangedBy, entry.Reason, entry.ChangedAt).
		Suffix("returning id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	err = r.conn.QueryRow(ctx, sql, args...).Scan(&entry.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return entry, nil
}

func (r *Repository) ListLedgerEntries(ctx context.Context, accountID uint64) ([]*domain.LedgerEntry, error) {
	statement := r.db.QueryBuilder.
		Select("id", "account_id", "amount", "new_balance", "changed_by", "reason", "changed_at").
		From("ledger_entries").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("changed_at desc", "id desc")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	list := make([]*domain.LedgerEntry, 0)
	for rows.Next() {
		e := domain.LedgerEntry{}
		err := rows.Scan(
			&e.ID,
			&e.AccountID,
			&e.Amount,
			&e.NewBalance,
			&e.ChangedBy,
			&e.Reason,
			&e.ChangedAt,
		)
		if err != nil {
			return nil, mapError(err)
		}
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return list, nil
}

func (r *Repository) PruneLedgerEntries(ctx context.Context, accountID uint64, before time.Time) error {
	statement := r.db.QueryBuilder.Delete("ledger_entries").
		Where(sq.Eq{"account_id": accountID}).
		Where(sq.Lt{"changed_at": before})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err)
	}
	return nil
}
