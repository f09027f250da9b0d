package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"order-console/internal/domain"
)

type OrderRepo interface {
	FindById(ctx context.Context, id string) (*domain.Order, error)
	CreateOrder(ctx context.Context, order *domain.Order) error
	// UpdateOrderStatus writes order.Status only if the stored status still equals expected.
	UpdateOrderStatus(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error
	List(ctx context.Context) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
}

type orderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepo {
	return &orderRepo{db: db}
}

const orderColumns = `id, user_id, client_name, account_count, timezone, account_name_spec, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order domain.Order
		spec  sql.NullString
	)
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.ClientName,
		&order.AccountCount,
		&order.Timezone,
		&spec,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if spec.Valid {
		order.AccountNameSpec = &spec.String
	}
	return &order, nil
}

func (r *orderRepo) FindById(ctx context.Context, id string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", id, err)
	}
	return order, nil
}

func (r *orderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		order.ID,
		order.UserID,
		order.ClientName,
		order.AccountCount,
		order.Timezone,
		order.AccountNameSpec,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", order.ID, err)
	}
	return nil
}

func (r *orderRepo) UpdateOrderStatus(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
		order.Status, order.UpdatedAt, order.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.ID, err)
	}
	if n == 0 {
		return domain.ErrConcurrentUpdate
	}
	return nil
}

func (r *orderRepo) List(ctx context.Context) ([]domain.Order, error) {
	return r.query(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
}

func (r *orderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	return r.query(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
}

func (r *orderRepo) query(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}
