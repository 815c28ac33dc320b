package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

const exposureColumns = `id, customer_id, session_id, strategy, recommended_ids, source_product_id,
	page_type, clicked_ids, converted, created_at`

type ExposureRepo struct {
	pool *pgxpool.Pool
}

func NewExposureRepo(pool *pgxpool.Pool) *ExposureRepo {
	return &ExposureRepo{pool: pool}
}

func (r *ExposureRepo) Create(ctx context.Context, e *domain.Exposure) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO recommendation_exposures (`+exposureColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, e.ID, e.CustomerID, e.SessionID, string(e.Strategy), nonNilIDs(e.RecommendedIDs), e.SourceProductID,
		string(e.PageType), nonNilIDs(e.ClickedIDs), e.Converted, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert exposure: %w", err)
	}
	return nil
}

func (r *ExposureRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Exposure, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+exposureColumns+` FROM recommendation_exposures WHERE id = $1`, id)
	e, err := scanExposure(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound("exposure not found")
		}
		return nil, fmt.Errorf("get exposure: %w", err)
	}
	return e, nil
}

// AppendClick adds productID to clicked_ids. The predicate keeps clicked_ids a
// duplicate-free subset of recommended_ids.
func (r *ExposureRepo) AppendClick(ctx context.Context, id uuid.UUID, productID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE recommendation_exposures
		SET clicked_ids = array_append(clicked_ids, $2::bigint)
		WHERE id = $1
		  AND $2::bigint = ANY(recommended_ids)
		  AND NOT ($2::bigint = ANY(clicked_ids))
	`, id, productID)
	if err != nil {
		return fmt.Errorf("append click: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var recommended bool
	err = r.pool.QueryRow(ctx, `
		SELECT $2::bigint = ANY(recommended_ids) FROM recommendation_exposures WHERE id = $1
	`, id, productID).Scan(&recommended)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound("exposure not found")
	}
	if err != nil {
		return fmt.Errorf("check exposure: %w", err)
	}
	if !recommended {
		return domain.ErrValidationMeta("product was not recommended in this exposure", map[string]string{
			"product_id": "not part of the recommendation",
		})
	}
	return nil
}

func (r *ExposureRepo) MarkConverted(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE recommendation_exposures SET converted = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark converted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("exposure not found")
	}
	return nil
}

func (r *ExposureRepo) MarkConvertedByPurchase(ctx context.Context, customerID int64, productIDs []int64, since, until time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE recommendation_exposures
		SET converted = TRUE
		WHERE customer_id = $1
		  AND created_at >= $2
		  AND created_at <= $3
		  AND NOT converted
		  AND recommended_ids && $4::bigint[]
	`, customerID, since, until, nonNilIDs(productIDs))
	if err != nil {
		return 0, fmt.Errorf("attribute purchase: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ExposureRepo) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Exposure, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+exposureColumns+`
		FROM recommendation_exposures
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at, id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list exposures: %w", err)
	}
	defer rows.Close()

	var out []domain.Exposure
	for rows.Next() {
		e, err := scanExposure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *ExposureRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return purgeOlderThan(ctx, r.pool, "recommendation_exposures", cutoff)
}

func scanExposure(row pgx.Row) (*domain.Exposure, error) {
	var (
		e        domain.Exposure
		strategy string
		page     string
	)
	if err := row.Scan(&e.ID, &e.CustomerID, &e.SessionID, &strategy, &e.RecommendedIDs, &e.SourceProductID,
		&page, &e.ClickedIDs, &e.Converted, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Strategy = domain.Strategy(strategy)
	e.PageType = domain.PageType(page)
	return &e, nil
}
