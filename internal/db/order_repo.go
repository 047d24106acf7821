package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"bookbliss/internal/types"
)

// OrderRepository provides data access for the orders table.
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new OrderRepository backed by the given
// database connection (pool or transaction).
func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// orderColumns defines the standard set of columns selected for order queries.
// Used consistently across all query methods to avoid column drift.
const orderColumns = `o.id, o.customer_email, o.status, o.total_cents,
	o.created_at, o.updated_at`

// scanOrder scans a single order row into a types.Order struct. The columns
// must match the order defined in orderColumns.
func scanOrder(row pgx.Row) (*types.Order, error) {
	var order types.Order
	err := row.Scan(
		&order.ID,
		&order.CustomerEmail,
		&order.Status,
		&order.TotalCents,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts a new order record. The caller must set the ID and required
// fields before calling.
func (r *OrderRepository) Create(ctx context.Context, order *types.Order) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO orders (id, customer_email, status, total_cents, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), COALESCE($6, NOW()))`,
		order.ID,
		order.CustomerEmail,
		order.Status,
		order.TotalCents,
		nilIfZeroTime(order.CreatedAt),
		nilIfZeroTime(order.UpdatedAt),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create order", err)
	}
	return nil
}

// GetByID retrieves an order by its ID. Returns ErrCodeNotFoundOrder if no
// order exists.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*types.Order, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+orderColumns+`
		 FROM orders o
		 WHERE o.id = $1`,
		id,
	)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundOrder, "order not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve order", err)
	}
	return order, nil
}

// GetOrderStatus retrieves only the current status of an order. This is the
// read the notifier performs before every send, so it stays a single-column
// lookup. Returns ErrCodeNotFoundOrder if no order exists.
func (r *OrderRepository) GetOrderStatus(ctx context.Context, id string) (types.OrderStatus, error) {
	var status types.OrderStatus
	err := r.db.QueryRow(ctx,
		`SELECT status FROM orders WHERE id = $1`,
		id,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", types.NewAppError(types.ErrCodeNotFoundOrder, "order not found", nil)
		}
		return "", types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve order status", err)
	}
	return status, nil
}

// UpdateStatus sets the order's status and bumps updated_at. Returns
// ErrCodeNotFoundOrder if no order exists.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status types.OrderStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders
		 SET status = $1,
		     updated_at = NOW()
		 WHERE id = $2`,
		status,
		id,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update order status", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundOrder, "order not found", nil)
	}
	return nil
}

// List returns orders newest first, capped at limit. A limit <= 0 defaults
// to 50.
func (r *OrderRepository) List(ctx context.Context, limit int) ([]*types.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+`
		 FROM orders o
		 ORDER BY o.created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list orders", err)
	}
	defer rows.Close()

	var orders []*types.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan order row", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate order rows", err)
	}
	return orders, nil
}
