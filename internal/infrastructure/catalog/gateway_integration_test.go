package catalog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/recommend"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

// catalogSchema is the subset of the shop schema the gateways read.
const catalogSchema = `
CREATE TABLE categories (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE brands (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE products (
	id             BIGINT PRIMARY KEY,
	name           TEXT NOT NULL,
	category_id    BIGINT REFERENCES categories(id),
	brand_id       BIGINT REFERENCES brands(id),
	is_active      BOOLEAN NOT NULL DEFAULT TRUE,
	rating_average NUMERIC(3,2),
	sales_count    INTEGER
);
CREATE TABLE orders (
	id          BIGINT PRIMARY KEY,
	customer_id BIGINT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE order_items (
	id         BIGSERIAL PRIMARY KEY,
	order_id   BIGINT NOT NULL REFERENCES orders(id),
	product_id BIGINT NOT NULL REFERENCES products(id)
);
INSERT INTO categories VALUES (1, 'Shoes');
INSERT INTO brands VALUES (1, 'Acme');
INSERT INTO products (id, name, category_id, brand_id, rating_average, sales_count)
SELECT g, 'product ' || g, 1, 1, 4.0, g FROM generate_series(10, 60, 10) AS g;
`

func setupCatalog(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:17",
		tcpostgres.WithDatabase("shop"),
		tcpostgres.WithUsername("shop"),
		tcpostgres.WithPassword("shop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(dsn, 4, 2)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.ExecContext(ctx, catalogSchema)
	require.NoError(t, err)
	return db
}

func insertOrder(t *testing.T, db *sql.DB, id int64, status string, at time.Time, products ...int64) {
	t.Helper()
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `INSERT INTO orders (id, customer_id, status, created_at) VALUES ($1, 1, $2, $3)`, id, status, at)
	require.NoError(t, err)
	for _, p := range products {
		_, err := db.ExecContext(ctx, `INSERT INTO order_items (order_id, product_id) VALUES ($1, $2)`, id, p)
		require.NoError(t, err)
	}
}

func TestOrderGateway_DeliveredOnly(t *testing.T) {
	db := setupCatalog(t)
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	insertOrder(t, db, 1, "delivered", at, 10, 20, 30)
	insertOrder(t, db, 2, "delivered", at.Add(time.Hour), 10, 20)
	insertOrder(t, db, 3, "pending", at.Add(2*time.Hour), 10, 40, 40)
	insertOrder(t, db, 4, "cancelled", at.Add(3*time.Hour), 10, 50)

	g := NewOrderGateway(db, BreakerSettings{})
	fbt := recommend.NewBoughtTogether(g)

	items, err := g.ListDeliveredOrderItems(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.OrderItem{
		{OrderID: 1, ProductID: 10}, {OrderID: 1, ProductID: 20}, {OrderID: 1, ProductID: 30},
		{OrderID: 2, ProductID: 10}, {OrderID: 2, ProductID: 20},
	}, items)

	before, err := fbt.Recommend(ctx, recommend.Request{ProductID: 10, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []int64{20, 30}, before)

	t.Run("undelivered order changes nothing", func(t *testing.T) {
		insertOrder(t, db, 5, "shipped", at.Add(4*time.Hour), 10, 60, 60, 60)

		after, err := fbt.Recommend(ctx, recommend.Request{ProductID: 10, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, before, after)

		again, err := g.ListDeliveredOrderItems(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, items, again)
	})

	t.Run("delivery makes the order count", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `UPDATE orders SET status = 'delivered' WHERE id = 3`)
		require.NoError(t, err)

		got, err := fbt.Recommend(ctx, recommend.Request{ProductID: 10, Limit: 5})
		require.NoError(t, err)
		assert.Contains(t, got, int64(40))
	})

	t.Run("product without delivered orders", func(t *testing.T) {
		got, err := g.ListDeliveredOrderItems(ctx, 60)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
