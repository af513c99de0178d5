package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"smart-canteen/internal/db"
	"smart-canteen/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("order_repo")}
}

// Create writes the order and all of its lines in one transaction.
func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	out := o
	out.Lines = make([]domain.OrderItem, 0, len(o.Lines))

	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var total string
		if err := tx.QueryRow(ctx, `
INSERT INTO orders (user_id, total_price)
VALUES ($1, $2::numeric)
RETURNING id, total_price::text, created_at
`, o.UserID, o.TotalPrice.StringFixed(2)).Scan(&out.ID, &total, &out.CreatedAt); err != nil {
			return err
		}
		parsed, err := decimal.NewFromString(total)
		if err != nil {
			return err
		}
		out.TotalPrice = parsed

		for _, line := range o.Lines {
			created := line
			created.OrderID = out.ID
			if err := tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, item_id, quantity)
VALUES ($1, $2, $3)
RETURNING id
`, out.ID, line.ItemID, line.Quantity).Scan(&created.ID); err != nil {
				return fmt.Errorf("insert line item_id=%d: %w", line.ItemID, err)
			}
			out.Lines = append(out.Lines, created)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("create order", zap.Int64("user_id", o.UserID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("order created",
		zap.Int64("order_id", out.ID),
		zap.Int64("user_id", out.UserID),
		zap.String("total", out.TotalPrice.StringFixed(2)),
		zap.Int("lines", len(out.Lines)),
	)
	return &out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	const q = `
SELECT o.id, o.user_id, u.username, o.total_price::text, o.created_at
FROM orders o
JOIN users u ON u.id = o.user_id
WHERE o.id = $1
`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	orders := []domain.Order{*o}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// List returns orders newest first, with their lines.
func (r *postgresRepo) List(ctx context.Context, filter ListFilter) ([]domain.Order, error) {
	q := `
SELECT o.id, o.user_id, u.username, o.total_price::text, o.created_at
FROM orders o
JOIN users u ON u.id = o.user_id
WHERE ($1::bigint IS NULL OR o.user_id = $1)
ORDER BY o.created_at DESC, o.id DESC
`
	args := []interface{}{filter.UserID}
	if filter.Limit > 0 {
		q += "LIMIT $2"
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) Stats(ctx context.Context) (int64, decimal.Decimal, error) {
	const q = `
SELECT COUNT(*), COALESCE(SUM(total_price), 0)::text
FROM orders
`
	var (
		count   int64
		revenue string
	)
	if err := r.pool.QueryRow(ctx, q).Scan(&count, &revenue); err != nil {
		return 0, decimal.Zero, err
	}
	sum, err := decimal.NewFromString(revenue)
	if err != nil {
		return 0, decimal.Zero, err
	}
	return count, sum, nil
}

// TopItems ranks items by summed quantity; ties keep ascending item id order.
func (r *postgresRepo) TopItems(ctx context.Context, limit int) ([]domain.TopItem, error) {
	const q = `
SELECT oi.item_id, i.name, SUM(oi.quantity) AS total_qty
FROM order_items oi
JOIN items i ON i.id = oi.item_id
GROUP BY oi.item_id, i.name
ORDER BY total_qty DESC, oi.item_id ASC
LIMIT $1
`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.TopItem{}
	for rows.Next() {
		var ti domain.TopItem
		if err := rows.Scan(&ti.ItemID, &ti.Name, &ti.Quantity); err != nil {
			return nil, err
		}
		out = append(out, ti)
	}
	return out, rows.Err()
}

func (r *postgresRepo) attachLines(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	const q = `
SELECT oi.id, oi.order_id, oi.item_id, i.name, oi.quantity
FROM order_items oi
JOIN items i ON i.id = oi.item_id
WHERE oi.order_id = ANY($1)
ORDER BY oi.order_id, oi.id
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderItem
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ItemID, &line.ItemName, &line.Quantity); err != nil {
			return err
		}
		i := index[line.OrderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o     domain.Order
		total string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.Username, &total, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	parsed, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("order %d: parse total %q: %w", o.ID, total, err)
	}
	o.TotalPrice = parsed
	return &o, nil
}
