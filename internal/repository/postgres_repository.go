package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const orderColumns = `id, order_number, items, total, status, customer_email, payment_reference, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cred *Credentials) (*PostgresRepository, error) {
	c := cred.withDefaults()

	db, err := sql.Open("postgres", c.dsn())
	if err != nil {
		return nil, fmt.Errorf("open order database %s: %w", c, err)
	}
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping order database %s: %w", c, err)
	}
	return &PostgresRepository{db: db}, nil
}

// RunMigrations brings the orders schema up to date. Already current is not an error.
func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	c := cred.withDefaults()

	driver, err := postgres.WithInstance(r.db, &postgres.Config{MigrationsTable: c.MigrationsTable})
	if err != nil {
		return fmt.Errorf("orders migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+c.MigrationsDirPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("orders migrations at %s: %w", c.MigrationsDirPath, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply orders migrations: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	query := `INSERT INTO orders (id, order_number, items, total, status, customer_email, payment_reference, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	          RETURNING created_at, updated_at`

	insertErr := r.db.QueryRowContext(ctx, query,
		order.ID,
		order.OrderNumber,
		itemsJSON,
		order.Total,
		order.Status,
		order.CustomerEmail,
		order.PaymentReference,
	).Scan(&order.CreatedAt, &order.UpdatedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("order number %s: %w", order.OrderNumber, domain.ErrConflict)
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *PostgresRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	return r.queryOne(ctx, query, orderNumber)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}

	sources := domain.AllowedSources(status)
	allowed := make([]string, len(sources))
	for i, s := range sources {
		allowed[i] = string(s)
	}

	// single statement, so the status check and the write cannot interleave with another update
	query := `UPDATE orders
	          SET status = $2, updated_at = NOW()
	          WHERE id = $1 AND status = ANY($3)
	          RETURNING ` + orderColumns

	order, err := r.queryOne(ctx, query, id, status, pq.Array(allowed))
	if err == nil {
		return order, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("update order status: %w", err)
	}

	current, getErr := r.GetOrderByID(ctx, id)
	if getErr != nil {
		return nil, false, getErr
	}
	if current.Status == status {
		return current, false, nil
	}
	return current, false, fmt.Errorf("%s -> %s: %w", current.Status, status, domain.ErrIllegalTransition)
}

func (r *PostgresRepository) SetPaymentReference(ctx context.Context, id, reference string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_reference = $2, updated_at = NOW() WHERE id = $1`, id, reference)
	if err != nil {
		return fmt.Errorf("update payment reference: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment reference: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.Order, error) {
	var order domain.Order
	var itemsJSON []byte
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&order.ID,
		&order.OrderNumber,
		&itemsJSON,
		&order.Total,
		&order.Status,
		&order.CustomerEmail,
		&order.PaymentReference,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}

	return &order, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
