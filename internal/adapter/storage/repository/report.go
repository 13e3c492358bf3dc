package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/edamame-dev/canteen/internal/core/domain"
)

func (r *Repository) listAccountsWhere(ctx context.Context, statement sq.SelectBuilder) ([]*domain.Account, error) {
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

func (r *Repository) ListAccountsByIDs(ctx context.Context, ids []uint64) ([]*domain.Account, error) {
	statement := r.db.QueryBuilder.
		Select(accountColumns...).
		From("accounts").
		Where(sq.Eq{"id": ids})

	return r.listAccountsWhere(ctx, statement)
}

func (r *Repository) ListStudentsByGroup(ctx context.Context, group string) ([]*domain.Account, error) {
	statement := r.db.QueryBuilder.
		Select(accountColumns...).
		From("accounts").
		Where(sq.Eq{"class_group": group, "role": domain.RoleStudent}).
		OrderBy("last_name", "first_name", "id")

	return r.listAccountsWhere(ctx, statement)
}

func (r *Repository) ListOrdersByAccountsBetween(ctx context.Context, accountIDs []uint64,
	start, end time.Time) ([]*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"account_id": accountIDs}).
		Where(sq.GtOrEq{"created_at": start}).
		Where(sq.Lt{"created_at": end}).
		OrderBy("created_at", "id")

	return r.listOrdersWhere(ctx, statement)
}

func (r *Repository) ListLedgerEntriesByAccountsBetween(ctx context.Context, accountIDs []uint64,
	start, end time.Time) ([]*domain.LedgerEntry, error) {
	statement := r.db.QueryBuilder.
		Select("id", "account_id", "amount", "new_balance", "changed_by", "reason", "changed_at").
		From("ledger_entries").
		Where(sq.Eq{"account_id": accountIDs}).
		Where(sq.GtOrEq{"changed_at": start}).
		Where(sq.Lt{"changed_at": end}).
		OrderBy("changed_at", "id")

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
