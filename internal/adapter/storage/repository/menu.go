package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/edamame-dev/canteen/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

var menuColumns = []string{"id", "menu_date", "dish_name", "price", "is_free_sale"}

func scanMenuItem(row pgx.Row) (*domain.MenuItem, error) {
	m := domain.MenuItem{}
	err := row.Scan(
		&m.ID,
		&m.Date,
		&m.DishName,
		&m.Price,
		&m.IsFreeSale,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}

func (r *Repository) CreateMenuItems(ctx context.Context, items []*domain.MenuItem) ([]*domain.MenuItem, error) {
	for _, item := range items {
		statement := r.db.QueryBuilder.Insert("menu_items").
			Columns("menu_date", "dish_name", "price", "is_free_sale").
			Values(item.Date, item.DishName, item.Price, item.IsFreeSale).
			Suffix("returning id")

		sql, args, err := statement.ToSql()
		if err != nil {
			return nil, err
		}

		err = r.conn.QueryRow(ctx, sql, args...).Scan(&item.ID)
		if err != nil {
			return nil, mapError(err)
		}
	}
	return items, nil
}

func (r *Repository) ListMenuItems(ctx context.Context) ([]*domain.MenuItem, error) {
	statement := r.db.QueryBuilder.
		Select(menuColumns...).
		From("menu_items").
		OrderBy("menu_date", "id")

	return r.queryMenuItems(ctx, statement)
}

func (r *Repository) ListMenuItemsByIDs(ctx context.Context, ids []uint64) ([]*domain.MenuItem, error) {
	statement := r.db.QueryBuilder.
		Select(menuColumns...).
		From("menu_items").
		Where(sq.Eq{"id": ids})

	return r.queryMenuItems(ctx, statement)
}

func (r *Repository) queryMenuItems(ctx context.Context, statement sq.SelectBuilder) ([]*domain.MenuItem, error) {
	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	list := make([]*domain.MenuItem, 0)
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return list, nil
}

func (r *Repository) UpdateMenuItem(ctx context.Context, id uint64, upd domain.MenuItemUpdate) (*domain.MenuItem, error) {
	statement := r.db.QueryBuilder.Update("menu_items").Where(sq.Eq{"id": id})

	changed := false
	if upd.Date != nil {
		statement = statement.Set("menu_date", *upd.Date)
		changed = true
	}
	if upd.DishName != nil {
		statement = statement.Set("dish_name", *upd.DishName)
		changed = true
	}
	if upd.Price != nil {
		statement = statement.Set("price", *upd.Price)
		changed = true
	}
	if upd.IsFreeSale != nil {
		statement = statement.Set("is_free_sale", *upd.IsFreeSale)
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

	selectSt := r.db.QueryBuilder.
		Select(menuColumns...).
		From("menu_items").
		Where(sq.Eq{"id": id})

	sql, args, err = selectSt.ToSql()
	if err != nil {
		return nil, err
	}

	return scanMenuItem(r.conn.QueryRow(ctx, sql, args...))
}

func (r *Repository) DeleteMenuItem(ctx context.Context, id uint64) error {
	statement := r.db.QueryBuilder.Delete("menu_items").Where(sq.Eq{"id": id})

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
