package service

import (
	"context"
	"errors"

	apperrors "tuition/internal/errors"
	"tuition/internal/logger"
	"tuition/internal/model"
	"tuition/internal/tuition"
)

// QuoteService resolves the selected course and computes its tuition.
type QuoteService interface {
	Quote(ctx context.Context, regime model.Regime, in tuition.Input) (*tuition.Quote, error)
}

type quoteService struct {
	catalog CatalogService
	log     logger.Logger
}

// NewQuoteService creates a quote service reading prices from catalog.
func NewQuoteService(catalog CatalogService, log logger.Logger) QuoteService {
	return &quoteService{catalog: catalog, log: log}
}

// Quote validates every field before computing; nothing is computed when
// any field fails.
func (s *quoteService) Quote(ctx context.Context, regime model.Regime, in tuition.Input) (*tuition.Quote, error) {
	if !regime.Valid() {
		return nil, apperrors.ErrUnknownRegime
	}
	in = in.Normalize()

	var course *model.Course
	if in.CourseID != "" {
		c, err := s.catalog.Get(ctx, regime, in.CourseID)
		if err != nil && !errors.Is(err, apperrors.ErrCourseNotFound) {
			return nil, err
		}
		course = c
	}

	if err := tuition.Validate(in, course != nil); err != nil {
		return nil, err
	}

	quote := tuition.Compute(course.CreditPrice, *in.CreditCount, in.InstallmentMonths, *in.DiscountPercent)
	s.log.Debug("tuition quoted", "regime", regime, "course_id", course.ID, "installments", in.InstallmentMonths)
	return &quote, nil
}
