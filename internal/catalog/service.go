package catalog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/stockbook/internal/pricing"
	"github.com/odyssey-erp/stockbook/internal/shared"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Invalidator drops cached views derived from an owner's data.
type Invalidator interface {
	Invalidate(ctx context.Context, ownerID int64) error
}

// Service applies the product rules on top of a Repository.
type Service struct {
	repo        Repository
	audit       AuditRecorder
	invalidator Invalidator
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewService wires the catalog service. audit and invalidator may be nil.
func NewService(repo Repository, audit AuditRecorder, invalidator Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		audit:       audit,
		invalidator: invalidator,
		validate:    shared.NewValidator(),
		logger:      logger.With("component", "catalog"),
	}
}

// List returns one page of the owner's products.
func (s *Service) List(ctx context.Context, ownerID int64, filters ListFilters) ([]Product, int, error) {
	if filters.PerPage <= 0 {
		filters.PerPage = shared.DefaultPerPage
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	filters.Search = strings.TrimSpace(filters.Search)
	return s.repo.List(ctx, ownerID, filters)
}

// All returns every product of the owner ordered by name.
func (s *Service) All(ctx context.Context, ownerID int64) ([]Product, error) {
	return s.repo.All(ctx, ownerID)
}

// ModifiedSince returns products touched at or after since.
func (s *Service) ModifiedSince(ctx context.Context, ownerID int64, since time.Time) ([]Product, error) {
	return s.repo.ModifiedSince(ctx, ownerID, since)
}

// Get loads one product of the owner.
func (s *Service) Get(ctx context.Context, ownerID, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrInvalidID
	}
	return s.repo.Get(ctx, ownerID, id)
}

// Create validates in, derives the dependent prices and stores the product.
func (s *Service) Create(ctx context.Context, ownerID int64, in ProductInput) (Product, error) {
	p, err := s.build(in)
	if err != nil {
		return Product{}, err
	}
	p.OwnerID = ownerID
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.afterWrite(ctx, ownerID, "product.create", created)
	return created, nil
}

// Update replaces the editable fields of a product and re-derives prices.
func (s *Service) Update(ctx context.Context, ownerID, id int64, in ProductInput) (Product, error) {
	if id <= 0 {
		return Product{}, ErrInvalidID
	}
	p, err := s.build(in)
	if err != nil {
		return Product{}, err
	}
	p.ID = id
	p.OwnerID = ownerID
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return Product{}, err
	}
	s.afterWrite(ctx, ownerID, "product.update", updated)
	return updated, nil
}

// Delete removes a product once the caller confirmed it.
func (s *Service) Delete(ctx context.Context, ownerID, id int64, confirmed bool) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	p, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.afterWrite(ctx, ownerID, "product.delete", p)
	return nil
}

// Preview applies one edit event of the product form.
func (s *Service) Preview(fields pricing.Fields, state pricing.EditState, changes ...pricing.Change) (pricing.Fields, pricing.EditState, error) {
	return pricing.ApplyEdit(fields, state, changes...)
}

func (s *Service) build(in ProductInput) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := shared.Validate(s.validate, in); err != nil {
		return Product{}, err
	}
	return Product{
		Name:   in.Name,
		Stock:  in.Stock,
		Fields: pricing.Reconcile(in.fields(), in.Direction),
	}, nil
}

func (s *Service) afterWrite(ctx context.Context, ownerID int64, action string, p Product) {
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  ownerID,
			Action:   action,
			Entity:   "product",
			EntityID: strconv.FormatInt(p.ID, 10),
			Meta:     map[string]any{"name": p.Name, "stock": p.Stock, "sales_unit_price": p.SalesUnitPrice},
		})
		if err != nil {
			s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
		}
	}
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, ownerID); err != nil {
			s.logger.Warn("chart cache invalidation failed", slog.Int64("owner_id", ownerID), slog.Any("error", err))
		}
	}
}
