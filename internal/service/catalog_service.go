package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "tuition/internal/errors"
	"tuition/internal/logger"
	"tuition/internal/model"
	"tuition/internal/repository"
)

// CourseInput carries the mutable fields of a course.
type CourseInput struct {
	Name        string
	CreditPrice decimal.Decimal
}

// CatalogService manages the course catalog of both regimes.
type CatalogService interface {
	Hydrate(ctx context.Context) error
	Add(ctx context.Context, regime model.Regime, in CourseInput) (*model.Course, error)
	Update(ctx context.Context, regime model.Regime, id string, in CourseInput) (*model.Course, error)
	Delete(ctx context.Context, regime model.Regime, id string) error
	Get(ctx context.Context, regime model.Regime, id string) (*model.Course, error)
	List(ctx context.Context, regime model.Regime) ([]model.Course, error)
}

type catalogService struct {
	mu      sync.RWMutex
	repo    repository.CatalogRepository
	log     logger.Logger
	catalog model.Catalog
	newID   func() string
}

// NewCatalogService creates a catalog service. Hydrate must run before use.
func NewCatalogService(repo repository.CatalogRepository, log logger.Logger) CatalogService {
	return &catalogService{
		repo:    repo,
		log:     log,
		catalog: model.Catalog{}.Clone(),
		newID:   uuid.NewString,
	}
}

// Hydrate loads the persisted catalog, writing the seed catalog on first start.
func (s *catalogService) Hydrate(ctx context.Context) error {
	catalog, found, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if !found {
		catalog = SeedCatalog()
		if err := s.repo.Save(ctx, catalog); err != nil {
			return fmt.Errorf("persist seed catalog: %w", err)
		}
		s.log.Info("course catalog seeded", "seriado", len(catalog[model.RegimeSeriado]), "aberto", len(catalog[model.RegimeAberto]))
	}

	s.mu.Lock()
	s.catalog = catalog.Clone()
	s.mu.Unlock()
	return nil
}

func (s *catalogService) Add(ctx context.Context, regime model.Regime, in CourseInput) (*model.Course, error) {
	if !regime.Valid() {
		return nil, apperrors.ErrUnknownRegime
	}
	in, err := normalizeCourse(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	course := model.Course{ID: s.newID(), Name: in.Name, CreditPrice: in.CreditPrice}
	next := s.catalog.Clone()
	next[regime] = append(next[regime], course)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}

	s.log.Info("course added", "regime", regime, "id", course.ID, "name", course.Name)
	return &course, nil
}

func (s *catalogService) Update(ctx context.Context, regime model.Regime, id string, in CourseInput) (*model.Course, error) {
	if !regime.Valid() {
		return nil, apperrors.ErrUnknownRegime
	}
	in, err := normalizeCourse(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.catalog.Clone()
	idx := indexOfCourse(next[regime], id)
	if idx < 0 {
		return nil, apperrors.ErrCourseNotFound
	}
	next[regime][idx].Name = in.Name
	next[regime][idx].CreditPrice = in.CreditPrice
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}

	course := next[regime][idx]
	s.log.Info("course updated", "regime", regime, "id", id)
	return &course, nil
}

// Delete removes the course; a missing id is not an error.
func (s *catalogService) Delete(ctx context.Context, regime model.Regime, id string) error {
	if !regime.Valid() {
		return apperrors.ErrUnknownRegime
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOfCourse(s.catalog[regime], id)
	if idx < 0 {
		return nil
	}
	next := s.catalog.Clone()
	next[regime] = append(next[regime][:idx], next[regime][idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	s.log.Info("course deleted", "regime", regime, "id", id)
	return nil
}

func (s *catalogService) Get(_ context.Context, regime model.Regime, id string) (*model.Course, error) {
	if !regime.Valid() {
		return nil, apperrors.ErrUnknownRegime
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := indexOfCourse(s.catalog[regime], id)
	if idx < 0 {
		return nil, apperrors.ErrCourseNotFound
	}
	course := s.catalog[regime][idx]
	return &course, nil
}

func (s *catalogService) List(_ context.Context, regime model.Regime) ([]model.Course, error) {
	if !regime.Valid() {
		return nil, apperrors.ErrUnknownRegime
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Course{}, s.catalog[regime]...), nil
}

// commit persists next and only then swaps it in. Caller holds s.mu.
func (s *catalogService) commit(ctx context.Context, next model.Catalog) error {
	if err := s.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	s.catalog = next
	return nil
}

func normalizeCourse(in CourseInput) (CourseInput, error) {
	var verr apperrors.ValidationError
	in.Name = strings.ToUpper(strings.TrimSpace(in.Name))
	if in.Name == "" {
		verr.Add("name", "course name is required")
	}
	if in.CreditPrice.IsNegative() {
		verr.Add("credit_price", "credit price must not be negative")
	}
	return in, verr.OrNil()
}

func indexOfCourse(courses []model.Course, id string) int {
	for i := range courses {
		if courses[i].ID == id {
			return i
		}
	}
	return -1
}
