package recommend

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/metrics"
)

// logExposure records what was shown. A failed write never fails the request;
// the caller simply receives no exposure id.
func (s *Service) logExposure(ctx context.Context, v Viewer, st domain.Strategy, ids []int64, source *int64, page domain.PageType) *uuid.UUID {
	if s.exposures == nil {
		return nil
	}

	e := &domain.Exposure{
		ID:              s.newID(),
		CustomerID:      v.customerPtr(),
		SessionID:       v.SessionID,
		Strategy:        st,
		RecommendedIDs:  slices.Clone(ids),
		SourceProductID: source,
		PageType:        page,
		ClickedIDs:      []int64{},
		CreatedAt:       s.clock.Now().UTC(),
	}

	// the response may already be on its way when the client hangs up
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ExposureWriteTimeout)
	defer cancel()

	if err := s.exposures.Create(wctx, e); err != nil {
		metrics.RecordExposure("log_failed")
		logger.Ctx(ctx).Warn().Err(err).Str("strategy", string(st)).Msg("exposure write failed")
		return nil
	}
	metrics.RecordExposure("logged")
	id := e.ID
	return &id
}

// RecordClick appends productID to the exposure's clicked list. Repeated
// clicks on the same product are no-ops.
func (s *Service) RecordClick(ctx context.Context, exposureID uuid.UUID, productID int64) error {
	if err := requireProduct(productID); err != nil {
		return err
	}
	e, err := s.exposures.Get(ctx, exposureID)
	if err != nil {
		return err
	}
	if !e.Recommends(productID) {
		return domain.ErrValidationMeta("product was not recommended in this exposure", map[string]string{
			"product_id": "not part of the recommendation",
		})
	}
	if slices.Contains(e.ClickedIDs, productID) {
		return nil
	}
	if err := s.exposures.AppendClick(ctx, exposureID, productID); err != nil {
		return err
	}
	metrics.RecordExposure("click")
	return nil
}

func (s *Service) RecordConversion(ctx context.Context, exposureID uuid.UUID) error {
	if _, err := s.exposures.Get(ctx, exposureID); err != nil {
		return err
	}
	if err := s.exposures.MarkConverted(ctx, exposureID); err != nil {
		return err
	}
	metrics.RecordExposure("conversion")
	return nil
}
