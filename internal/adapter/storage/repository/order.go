package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/edamame-dev/canteen/internal/core/domain"
)

var orderColumns = []string{"id", "account_id", "total", "is_beneficiary", "created_at"}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	statement := r.db.QueryBuilder.Insert("orders").
		Columns("account_id", "total", "is_beneficiary", "created_at").
		Values(order.AccountID, order.Total, order.IsBeneficiary, order.CreatedAt).
		Suffix("returning id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	err = r.conn.QueryRow(ctx, sql, args...).Scan(&order.ID)
	if err != nil {
		return nil, mapError(err)
	}

	if err := r.insertOrderItems(ctx, order.ID, order.Items); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) insertOrderItems(ctx context.Context, orderID uint64, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	statement := r.db.QueryBuilder.Insert("order_items").
		Columns("order_id", "dish_id", "dish_name", "price", "quantity", "is_free_sale")
	for _, item := range items {
		statement = statement.Values(orderID, item.DishID, item.DishName,
			item.Price, item.Quantity, item.IsFreeSale)
	}

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

func (r *Repository) loadOrderItems(ctx context.Context, orderID uint64) ([]domain.OrderItem, error) {
	statement := r.db.QueryBuilder.
		Select("dish_id", "dish_name", "price", "quantity", "is_free_sale").
		From("order_items").
		Where(sq.Eq{"order_id": orderID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		item := domain.OrderItem{}
		err := rows.Scan(
			&item.DishID,
			&item.DishName,
			&item.Price,
			&item.Quantity,
			&item.IsFreeSale,
		)
		if err != nil {
			return nil, mapError(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return items, nil
}

func (r *Repository) readOrderWhere(ctx context.Context, statement sq.SelectBuilder) (*domain.Order, error) {
	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	order := domain.Order{}
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&order.ID,
		&order.AccountID,
		&order.Total,
		&order.IsBeneficiary,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	order.Items, err = r.loadOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) ReadOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id})

	return r.readOrderWhere(ctx, statement)
}

func (r *Repository) FindOrderInWindow(ctx context.Context, accountID uint64,
	beneficiary bool, start, end time.Time) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"account_id": accountID, "is_beneficiary": beneficiary}).
		Where(sq.GtOrEq{"created_at": start}).
		Where(sq.Lt{"created_at": end})

	return r.readOrderWhere(ctx, statement)
}

// ReplaceOrderItems swaps the full item list and total, keeping the order's
// identity and creation time.
func (r *Repository) ReplaceOrderItems(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	statement := r.db.QueryBuilder.Update("orders").
		Set("total", order.Total).
		Where(sq.Eq{"id": order.ID})

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

	deleteSt := r.db.QueryBuilder.Delete("order_items").Where(sq.Eq{"order_id": order.ID})
	sql, args, err = deleteSt.ToSql()
	if err != nil {
		return nil, err
	}
	_, err = r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}

	if err := r.insertOrderItems(ctx, order.ID, order.Items); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) DeleteOrder(ctx context.Context, id uint64) error {
	statement := r.db.QueryBuilder.Delete("orders").Where(sq.Eq{"id": id})

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

func (r *Repository) listOrdersWhere(ctx context.Context, statement sq.SelectBuilder) ([]*domain.Order, error) {
	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	list := make([]*domain.Order, 0)
	for rows.Next() {
		order := domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.AccountID,
			&order.Total,
			&order.IsBeneficiary,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, mapError(err)
		}
		list = append(list, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for _, order := range list {
		order.Items, err = r.loadOrderItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
	}

	return list, nil
}

func (r *Repository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		OrderBy("created_at desc", "id desc")

	return r.listOrdersWhere(ctx, statement)
}

func (r *Repository) ListOrdersByAccount(ctx context.Context, accountID uint64) ([]*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("created_at desc", "id desc")

	return r.listOrdersWhere(ctx, statement)
}

func (r *Repository) ListOrdersByAccountBetween(ctx context.Context, accountID uint64,
	start, end time.Time) ([]*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"account_id": accountID}).
		Where(sq.GtOrEq{"created_at": start}).
		Where(sq.Lt{"created_at": end}).
		OrderBy("created_at desc", "id desc")

	return r.listOrdersWhere(ctx, statement)
}
