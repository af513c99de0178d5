package item

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"smart-canteen/internal/domain"
)

const itemColumns = `id, name, price::text, category, available, image, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("item_repo")}
}

// buildListQuery composes the menu query; every filter is ANDed.
func buildListQuery(filter domain.ItemFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Search != "" {
		args = append(args, filter.Search)
		where = append(where, fmt.Sprintf("strpos(lower(name), lower($%d)) > 0", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.AvailableOnly {
		where = append(where, "available = TRUE")
	}

	var b strings.Builder
	b.WriteString("SELECT " + itemColumns + "\nFROM items")
	if len(where) > 0 {
		b.WriteString("\nWHERE " + strings.Join(where, " AND "))
	}
	b.WriteString("\nORDER BY id ASC")
	return b.String(), args
}

func (r *postgresRepo) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	q, args := buildListQuery(filter)
	items, err := r.query(ctx, q, args...)
	if err != nil {
		r.logger.Error("list items", zap.Any("filter", filter), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list items", zap.Any("filter", filter), zap.Int("count", len(items)))
	return items, nil
}

func (r *postgresRepo) ListByName(ctx context.Context) ([]domain.Item, error) {
	return r.query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY name ASC`)
}

func (r *postgresRepo) Categories(ctx context.Context) ([]string, error) {
	const q = `
SELECT DISTINCT category
FROM items
ORDER BY category ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	it, err := scanItem(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Debug("get item not found", zap.Int64("id", id))
		}
		return nil, err
	}
	return it, nil
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Item, error) {
	out := make(map[int64]domain.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	items, err := r.query(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *postgresRepo) Create(ctx context.Context, it domain.Item) (*domain.Item, error) {
	const q = `
INSERT INTO items (name, price, category, available, image)
VALUES ($1, $2::numeric, $3, $4, $5)
RETURNING ` + itemColumns
	created, err := scanItem(r.pool.QueryRow(ctx, q, it.Name, it.Price.StringFixed(2), it.Category, it.Available, it.Image))
	if err != nil {
		r.logger.Error("create item", zap.String("name", it.Name), zap.Error(err))
		return nil, err
	}
	r.logger.Info("item created", zap.Int64("id", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, it domain.Item) (*domain.Item, error) {
	const q = `
UPDATE items
SET name = $2, price = $3::numeric, category = $4, available = $5, image = $6
WHERE id = $1
RETURNING ` + itemColumns
	updated, err := scanItem(r.pool.QueryRow(ctx, q, it.ID, it.Name, it.Price.StringFixed(2), it.Category, it.Available, it.Image))
	if err != nil {
		return nil, err
	}
	r.logger.Info("item updated", zap.Int64("id", updated.ID))
	return updated, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, it domain.Item) (*domain.Item, error) {
	const q = `
INSERT INTO items (name, price, category, available, image)
VALUES ($1, $2::numeric, $3, $4, $5)
ON CONFLICT (name) DO UPDATE SET
    price = EXCLUDED.price,
    category = EXCLUDED.category,
    available = EXCLUDED.available,
    image = EXCLUDED.image
RETURNING ` + itemColumns
	out, err := scanItem(r.pool.QueryRow(ctx, q, it.Name, it.Price.StringFixed(2), it.Category, it.Available, it.Image))
	if err != nil {
		r.logger.Error("upsert item", zap.String("name", it.Name), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) ToggleAvailability(ctx context.Context, id int64) (*domain.Item, error) {
	const q = `
UPDATE items
SET available = NOT available
WHERE id = $1
RETURNING ` + itemColumns
	it, err := scanItem(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	r.logger.Info("item availability toggled", zap.Int64("id", id), zap.Bool("available", it.Available))
	return it, nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...interface{}) ([]domain.Item, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var (
		it    domain.Item
		price string
	)
	err := row.Scan(&it.ID, &it.Name, &price, &it.Category, &it.Available, &it.Image, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	it.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("item %d: parse price %q: %w", it.ID, price, err)
	}
	return &it, nil
}
