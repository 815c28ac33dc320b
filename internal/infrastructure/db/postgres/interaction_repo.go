package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

const purgeBatchSize = 5000

// InteractionRepo is the append-only interaction log.
type InteractionRepo struct {
	pool *pgxpool.Pool
}

func NewInteractionRepo(pool *pgxpool.Pool) *InteractionRepo {
	return &InteractionRepo{pool: pool}
}

func (r *InteractionRepo) Append(ctx context.Context, in *domain.Interaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO product_interactions
			(id, customer_id, session_id, product_id, interaction_type, source, search_query, referrer_url, duration_seconds, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, in.ID, in.CustomerID, in.SessionID, in.ProductID, string(in.Type), in.Source, in.SearchQuery,
		in.ReferrerURL, in.DurationSeconds, in.Position, in.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (r *InteractionRepo) OwnedProducts(ctx context.Context, customerID int64, types []domain.InteractionType) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id
		FROM product_interactions
		WHERE customer_id = $1 AND interaction_type = ANY($2::text[])
		GROUP BY product_id
		ORDER BY MIN(created_at), product_id
	`, customerID, typeNames(types))
	if err != nil {
		return nil, fmt.Errorf("owned products: %w", err)
	}
	return collectIDs(rows)
}

func (r *InteractionRepo) CustomersWhoInteracted(ctx context.Context, productIDs []int64, types []domain.InteractionType, excludeCustomer int64, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT customer_id
		FROM product_interactions
		WHERE product_id = ANY($1::bigint[])
		  AND interaction_type = ANY($2::text[])
		  AND customer_id IS NOT NULL
		  AND customer_id <> $3
		GROUP BY customer_id
		ORDER BY MIN(created_at), customer_id
		LIMIT $4
	`, productIDs, typeNames(types), excludeCustomer, limit)
	if err != nil {
		return nil, fmt.Errorf("similar customers: %w", err)
	}
	return collectIDs(rows)
}

func (r *InteractionRepo) SignalsByCustomers(ctx context.Context, customerIDs []int64, excludeProducts []int64) ([]domain.Signal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, interaction_type
		FROM product_interactions
		WHERE customer_id = ANY($1::bigint[])
		  AND NOT (product_id = ANY($2::bigint[]))
		ORDER BY created_at, id
	`, customerIDs, nonNilIDs(excludeProducts))
	if err != nil {
		return nil, fmt.Errorf("customer signals: %w", err)
	}
	return collectSignals(rows)
}

func (r *InteractionRepo) SignalsSince(ctx context.Context, since time.Time) ([]domain.Signal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, interaction_type
		FROM product_interactions
		WHERE created_at >= $1
		ORDER BY created_at, id
	`, since)
	if err != nil {
		return nil, fmt.Errorf("signals since: %w", err)
	}
	return collectSignals(rows)
}

func (r *InteractionRepo) RecentViews(ctx context.Context, customerID int64, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id
		FROM product_interactions
		WHERE customer_id = $1 AND interaction_type = 'view'
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent views: %w", err)
	}
	return collectIDs(rows)
}

func (r *InteractionRepo) RecentlyViewed(ctx context.Context, customerID int64, exclude []int64, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id
		FROM product_interactions
		WHERE customer_id = $1
		  AND interaction_type = 'view'
		  AND NOT (product_id = ANY($2::bigint[]))
		GROUP BY product_id
		ORDER BY MAX(created_at) DESC, product_id
		LIMIT $3
	`, customerID, nonNilIDs(exclude), limit)
	if err != nil {
		return nil, fmt.Errorf("recently viewed: %w", err)
	}
	return collectIDs(rows)
}

func (r *InteractionRepo) CustomerInteractions(ctx context.Context, customerID int64, since time.Time) ([]domain.Interaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_id, session_id, product_id, interaction_type, source, search_query,
		       referrer_url, duration_seconds, position, created_at
		FROM product_interactions
		WHERE customer_id = $1 AND created_at >= $2
		ORDER BY created_at, id
	`, customerID, since)
	if err != nil {
		return nil, fmt.Errorf("customer interactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Interaction
	for rows.Next() {
		var (
			in  domain.Interaction
			typ string
		)
		if err := rows.Scan(&in.ID, &in.CustomerID, &in.SessionID, &in.ProductID, &typ, &in.Source,
			&in.SearchQuery, &in.ReferrerURL, &in.DurationSeconds, &in.Position, &in.CreatedAt); err != nil {
			return nil, err
		}
		in.Type = domain.InteractionType(typ)
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *InteractionRepo) CountsByProduct(ctx context.Context, since time.Time) ([]domain.ProductCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, interaction_type, COUNT(*)
		FROM product_interactions
		WHERE created_at >= $1
		GROUP BY product_id, interaction_type
		ORDER BY product_id
	`, since)
	if err != nil {
		return nil, fmt.Errorf("counts by product: %w", err)
	}
	defer rows.Close()

	var out []domain.ProductCounts
	for rows.Next() {
		var (
			productID int64
			typ       string
			n         int64
		)
		if err := rows.Scan(&productID, &typ, &n); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].ProductID != productID {
			out = append(out, domain.ProductCounts{ProductID: productID, Counts: map[domain.InteractionType]int64{}})
		}
		out[len(out)-1].Counts[domain.InteractionType(typ)] = n
	}
	return out, rows.Err()
}

func (r *InteractionRepo) CountByType(ctx context.Context, from, to time.Time) (map[domain.InteractionType]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT interaction_type, COUNT(*)
		FROM product_interactions
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY interaction_type
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	defer rows.Close()

	out := map[domain.InteractionType]int64{}
	for rows.Next() {
		var (
			typ string
			n   int64
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		out[domain.InteractionType(typ)] = n
	}
	return out, rows.Err()
}

// ActiveCustomers returns customers with a purchase at or after since, most recent buyers first.
func (r *InteractionRepo) ActiveCustomers(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT customer_id
		FROM product_interactions
		WHERE interaction_type = 'purchase'
		  AND customer_id IS NOT NULL
		  AND created_at >= $1
		GROUP BY customer_id
		ORDER BY MAX(created_at) DESC, customer_id
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("active customers: %w", err)
	}
	return collectIDs(rows)
}

func (r *InteractionRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return purgeOlderThan(ctx, r.pool, "product_interactions", cutoff)
}

// purgeOlderThan deletes in batches so retention never holds a long lock.
func purgeOlderThan(ctx context.Context, pool *pgxpool.Pool, table string, cutoff time.Time) (int64, error) {
	q := fmt.Sprintf(`
		DELETE FROM %[1]s
		WHERE id IN (SELECT id FROM %[1]s WHERE created_at < $1 LIMIT $2)
	`, table)

	var total int64
	for {
		tag, err := pool.Exec(ctx, q, cutoff, purgeBatchSize)
		if err != nil {
			return total, fmt.Errorf("purge %s: %w", table, err)
		}
		total += tag.RowsAffected()
		if tag.RowsAffected() < purgeBatchSize {
			return total, nil
		}
	}
}

func collectIDs(rows pgx.Rows) ([]int64, error) {
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func collectSignals(rows pgx.Rows) ([]domain.Signal, error) {
	defer rows.Close()
	var out []domain.Signal
	for rows.Next() {
		var (
			s   domain.Signal
			typ string
		)
		if err := rows.Scan(&s.ProductID, &typ); err != nil {
			return nil, err
		}
		s.Type = domain.InteractionType(typ)
		out = append(out, s)
	}
	return out, rows.Err()
}

func typeNames(types []domain.InteractionType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// nonNilIDs keeps `x = ANY($n)` well-defined: a nil slice encodes as NULL.
func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
