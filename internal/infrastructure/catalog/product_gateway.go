package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
)

// ProductGateway reads products from the catalog database. It never writes.
type ProductGateway struct {
	db *sql.DB
	br *breaker
}

func NewProductGateway(db *sql.DB, s BreakerSettings) *ProductGateway {
	return &ProductGateway{db: db, br: newBreaker("catalog", s)}
}

func (g *ProductGateway) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return do(g.br, func() (*domain.Product, error) {
		p, err := scanProduct(g.db.QueryRowContext(ctx, getProductSQL, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound("product not found")
		}
		if err != nil {
			return nil, fmt.Errorf("get product %d: %w", id, err)
		}
		return p, nil
	})
}

// GetProducts returns the products in ids that exist, active or not.
func (g *ProductGateway) GetProducts(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return do(g.br, func() ([]domain.Product, error) {
		return g.query(ctx, getProductsSQL, pq.Array(ids))
	})
}

func (g *ProductGateway) ListActiveProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return nil, nil
	}
	q, args := buildActiveQuery(f)
	return do(g.br, func() ([]domain.Product, error) {
		return g.query(ctx, q, args...)
	})
}

func buildActiveQuery(f domain.ProductFilter) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	b.WriteString("SELECT" + productColumns + productFrom + "\n\tWHERE p.is_active = TRUE")
	if f.IDs != nil {
		b.WriteString(" AND p.id = ANY(" + arg(pq.Array(f.IDs)) + ")")
	}
	if f.CategoryID != nil {
		b.WriteString(" AND p.category_id = " + arg(*f.CategoryID))
	}
	if s := f.SharesWith; s != nil {
		if s.BrandID != nil {
			b.WriteString(" AND (p.category_id = " + arg(s.CategoryID) + " OR p.brand_id = " + arg(*s.BrandID) + ")")
		} else {
			b.WriteString(" AND p.category_id = " + arg(s.CategoryID))
		}
	}
	if len(f.ExcludeIDs) > 0 {
		b.WriteString(" AND NOT (p.id = ANY(" + arg(pq.Array(f.ExcludeIDs)) + "))")
	}
	b.WriteString(productOrder)
	if f.Limit > 0 {
		b.WriteString("\n\tLIMIT " + arg(f.Limit))
	}
	return b.String(), args
}

func (g *ProductGateway) query(ctx context.Context, q string, args ...any) ([]domain.Product, error) {
	rows, err := g.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	var (
		p     domain.Product
		brand sql.NullInt64
	)
	if err := s.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName, &brand, &p.BrandName,
		&p.IsActive, &p.RatingAverage, &p.SalesCount); err != nil {
		return nil, err
	}
	if brand.Valid {
		id := brand.Int64
		p.BrandID = &id
	}
	return &p, nil
}
