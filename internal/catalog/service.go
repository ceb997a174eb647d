package catalog

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

// StatsCache is bumped after writes that change dashboard aggregates.
type StatsCache interface {
	Bump(ctx context.Context) error
}

// Service implements catalog business rules.
type Service struct {
	repo   Repository
	images ImageStore
	audit  shared.AuditRecorder
	stats  StatsCache
	logger *slog.Logger
}

// NewService wires the catalog service. images, audit and stats may be nil.
func NewService(repo Repository, images ImageStore, audit shared.AuditRecorder, stats StatsCache, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAuditRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, images: images, audit: audit, stats: stats, logger: logger}
}

// List returns products newest first. An empty result is an empty slice.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// Search matches q against name and category. A blank q lists every active product.
func (s *Service) Search(ctx context.Context, q string) ([]Product, error) {
	return s.List(ctx, ListFilter{Search: q, Status: StatusActive})
}

// Get loads a single product regardless of its active flag.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new product with an optional image.
func (s *Service) Create(ctx context.Context, actorID int64, in CreateInput, upload *ImageUpload) (Product, error) {
	if err := validateCreate(&in); err != nil {
		return Product{}, err
	}
	image, err := s.storeImage(ctx, upload)
	if err != nil {
		return Product{}, err
	}
	product, err := s.repo.Create(ctx, in, image)
	if err != nil {
		s.discardImage(ctx, image)
		return Product{}, err
	}
	s.afterWrite(ctx, actorID, shared.AuditProductCreated, product.ID, map[string]any{"name": product.Name})
	return product, nil
}

// Update applies the supplied patch fields. An empty patch without image is rejected.
func (s *Service) Update(ctx context.Context, actorID, id int64, patch ProductPatch, upload *ImageUpload) (Product, error) {
	if err := validatePatch(&patch); err != nil {
		return Product{}, err
	}
	if patch.Empty() && upload == nil {
		return Product{}, shared.NewValidationError("no fields to update")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}

	image, err := s.storeImage(ctx, upload)
	if err != nil {
		return Product{}, err
	}
	patch.image = image

	product, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.discardImage(ctx, image)
		return Product{}, err
	}
	if image != nil && existing.Image != nil && *existing.Image != *image {
		s.discardImage(ctx, existing.Image)
	}
	s.afterWrite(ctx, actorID, shared.AuditProductUpdated, id, nil)
	return product, nil
}

// Delete soft-deletes products still referenced by order lines and removes the rest.
func (s *Service) Delete(ctx context.Context, actorID, id int64) (DeleteResult, error) {
	result := DeleteResult{ID: id}
	var image *string
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		product, err := repo.LockForDelete(ctx, id)
		if err != nil {
			return err
		}
		refs, err := repo.CountItemReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			result.Mode = DeleteSoft
			return repo.Deactivate(ctx, id)
		}
		result.Mode = DeleteHard
		image = product.Image
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return DeleteResult{}, err
	}
	if result.Mode == DeleteHard {
		s.discardImage(ctx, image)
	}
	s.afterWrite(ctx, actorID, shared.AuditProductDeleted, id, map[string]any{"mode": string(result.Mode)})
	return result, nil
}

func (s *Service) storeImage(ctx context.Context, upload *ImageUpload) (*string, error) {
	if upload == nil {
		return nil, nil
	}
	if s.images == nil {
		return nil, shared.NewValidationError("image uploads are not enabled")
	}
	name, err := s.images.Save(ctx, *upload)
	if err != nil {
		return nil, err
	}
	return &name, nil
}

func (s *Service) discardImage(ctx context.Context, name *string) {
	if name == nil || s.images == nil {
		return
	}
	if err := s.images.Remove(ctx, *name); err != nil {
		s.logger.Warn("remove product image", slog.String("image", *name), slog.Any("error", err))
	}
}

func (s *Service) afterWrite(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "product",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
	if s.stats != nil {
		if err := s.stats.Bump(ctx); err != nil {
			s.logger.Warn("bump stats cache", slog.Any("error", err))
		}
	}
}
