package repository

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

const (
	defaultMigrationsTable = "storefront_schema_migrations"
	defaultMaxOpenConns    = 20
	defaultMaxIdleConns    = 5
	defaultConnMaxIdleTime = 5 * time.Minute
)

// Credentials locate the Postgres order database. Zero pool settings and an
// empty migrations table fall back to the storefront defaults.
type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	SSLMode           string
	MigrationsDirPath string
	MigrationsTable   string
	MaxOpenConns      int
	MaxIdleConns      int
}

func (c Credentials) withDefaults() Credentials {
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MigrationsTable == "" {
		c.MigrationsTable = defaultMigrationsTable
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = defaultMaxOpenConns
	}
	if c.MaxIdleConns <= 0 || c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = min(defaultMaxIdleConns, c.MaxOpenConns)
	}
	return c
}

// dsn renders a postgres:// URL so passwords with spaces or quotes survive.
func (c Credentials) dsn() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

func (c Credentials) String() string {
	return fmt.Sprintf("%s@%s:%d/%s", c.User, c.Host, c.Port, c.DBName)
}

// OrderRepository persists orders. It is the only place where order number
// uniqueness is enforced.
//
// UpdateStatus is atomic per order id: the current status is read and the new one
// written as a single compare-and-set, guarded by domain.CanTransitionTo. A
// rejected transition returns the stored order together with
// domain.ErrIllegalTransition. changed is true only for the one caller whose
// write moved the order into status; re-applying the current status succeeds
// with changed false. Unknown ids yield domain.ErrNotFound and never create a
// record.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (order *domain.Order, changed bool, err error)
	SetPaymentReference(ctx context.Context, id, reference string) error
	Close() error
}
