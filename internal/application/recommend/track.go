package recommend

import (
	"context"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/metrics"
)

type TrackCommand struct {
	ProductID       int64
	Type            string
	Source          string
	SearchQuery     string
	ReferrerURL     string
	DurationSeconds *int
	Position        *int
}

func (c TrackCommand) validate(v Viewer) (domain.InteractionType, error) {
	meta := map[string]string{}
	if strings.TrimSpace(v.SessionID) == "" {
		meta["session_id"] = "required"
	}
	if c.ProductID <= 0 {
		meta["product_id"] = "must be a positive integer"
	}
	t, err := domain.ParseInteractionType(c.Type)
	if ae, ok := domain.AsAppError(err); ok {
		maps.Copy(meta, ae.Meta)
	}
	if len(c.Source) > 50 {
		meta["source"] = "must be at most 50 characters"
	}
	if len(c.SearchQuery) > 500 {
		meta["search_query"] = "must be at most 500 characters"
	}
	if c.DurationSeconds != nil && *c.DurationSeconds < 0 {
		meta["duration_seconds"] = "must not be negative"
	}
	if c.Position != nil && *c.Position < 0 {
		meta["position"] = "must not be negative"
	}
	if len(meta) > 0 {
		return "", domain.ErrValidationMeta("invalid interaction", meta)
	}
	return t, nil
}

// TrackInteraction validates the command and hands the interaction to the
// asynchronous writer. The returned id is assigned before persistence.
func (s *Service) TrackInteraction(ctx context.Context, v Viewer, cmd TrackCommand) (uuid.UUID, error) {
	t, err := cmd.validate(v)
	if err != nil {
		return uuid.Nil, err
	}

	in := domain.Interaction{
		ID:              s.newID(),
		CustomerID:      v.customerPtr(),
		SessionID:       v.SessionID,
		ProductID:       cmd.ProductID,
		Type:            t,
		Source:          strings.TrimSpace(cmd.Source),
		SearchQuery:     strings.TrimSpace(cmd.SearchQuery),
		ReferrerURL:     strings.TrimSpace(cmd.ReferrerURL),
		DurationSeconds: cmd.DurationSeconds,
		Position:        cmd.Position,
		CreatedAt:       s.clock.Now().UTC(),
	}
	if t == domain.InteractionView {
		metrics.RecordProductView()
	}

	if !s.tracker.Submit(func(jobCtx context.Context) { s.persist(jobCtx, in) }) {
		metrics.RecordTracking("dropped")
		logger.Ctx(ctx).Warn().
			Str("interaction_id", in.ID.String()).
			Int64("product_id", in.ProductID).
			Msg("tracking queue full; interaction dropped")
	}
	return in.ID, nil
}

func (s *Service) persist(ctx context.Context, in domain.Interaction) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.TrackWriteTimeout)
	defer cancel()

	if err := s.writer.Append(ctx, &in); err != nil {
		metrics.RecordTracking("failed")
		logger.Ctx(ctx).Error().Err(err).Str("interaction_id", in.ID.String()).Msg("interaction write failed")
		return
	}
	metrics.RecordTracking("written")

	if in.Type == domain.InteractionPurchase && !in.Anonymous() {
		if err := s.RecordPurchase(ctx, *in.CustomerID, []int64{in.ProductID}, in.CreatedAt); err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Str("customer_id", strconv.FormatInt(*in.CustomerID, 10)).
				Msg("conversion attribution failed")
		}
	}
}

// RecordPurchase marks exposures shown to the customer within the conversion
// window before at as converted when they recommended any purchased product.
// Exposures created after the purchase are never credited.
func (s *Service) RecordPurchase(ctx context.Context, customerID int64, productIDs []int64, at time.Time) error {
	if customerID == 0 || len(productIDs) == 0 {
		return nil
	}
	until := at.UTC()
	since := until.Add(-s.opts.ConversionWindow)
	n, err := s.exposures.MarkConvertedByPurchase(ctx, customerID, productIDs, since, until)
	if err != nil {
		return err
	}
	if n > 0 {
		metrics.RecordExposure("conversion")
		logger.Ctx(ctx).Debug().Int64("customer_id", customerID).Int64("exposures", n).Msg("purchase attributed to recommendations")
	}
	return nil
}
