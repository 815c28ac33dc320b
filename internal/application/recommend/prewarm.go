package recommend

import (
	"context"
	"errors"
)

const prewarmContentLimit = 10

// PrewarmProduct refreshes the similar-products entry of productID.
func (s *Service) PrewarmProduct(ctx context.Context, productID int64) error {
	_, err := s.content.Refresh(ctx, Request{ProductID: productID, Limit: prewarmContentLimit})
	return err
}

// PrewarmCustomer refreshes the collaborative and personalized entries a
// customer hits with default parameters.
func (s *Service) PrewarmCustomer(ctx context.Context, customerID int64) error {
	req := Request{CustomerID: customerID, Limit: defaultLimit}
	_, errCollab := s.collaborative.Refresh(ctx, req)
	_, errPersonal := s.personalized.Refresh(ctx, req)
	return errors.Join(errCollab, errPersonal)
}

func (s *Service) PrewarmTrending(ctx context.Context, limit, days int) error {
	_, err := s.trending.Refresh(ctx, Request{Limit: limit, Days: days})
	return err
}
