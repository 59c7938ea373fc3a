package promotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/frahmantamala/jobly/internal"
)

type ServiceAPI interface {
	ListActive(ctx context.Context) ([]*Package, error)
	GetActiveByID(ctx context.Context, id int64) (*Package, error)
	DefaultPackage(ctx context.Context) (*Package, error)
	Create(ctx context.Context, dto PackageRequestDTO) (*Package, error)
	Update(ctx context.Context, id int64, dto PackageRequestDTO) (*Package, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

const defaultFeaturedPosition = 3

var (
	ErrPackageUnavailable = internal.NewValidationFieldError("package_id", "Promotion package not found or is inactive.", internal.ErrCodePackageUnavailable)
	ErrNoPackages         = internal.NewValidationError("No promotion packages available.", internal.ErrCodePackageUnavailable)
	ErrPackageNotFound    = internal.NewNotFoundError("Promotion package not found.", internal.ErrCodePackageNotFound)
)

// ListActive returns active packages cheapest first, ties broken by id.
func (s *Service) ListActive(ctx context.Context) ([]*Package, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active packages: %w", err)
	}
	out := make([]*Package, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out, nil
}

func (s *Service) GetActiveByID(ctx context.Context, id int64) (*Package, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageUnavailable
		}
		return nil, fmt.Errorf("get package %d: %w", id, err)
	}
	if !m.IsActive {
		return nil, ErrPackageUnavailable
	}
	return FromDataModel(m), nil
}

// DefaultPackage is the cheapest active package, lowest id on a price tie.
func (s *Service) DefaultPackage(ctx context.Context) (*Package, error) {
	pkgs, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(pkgs) == 0 {
		return nil, ErrNoPackages
	}
	return pkgs[0], nil
}

func (s *Service) Create(ctx context.Context, dto PackageRequestDTO) (*Package, error) {
	if verr := dto.Validate(); verr != nil {
		return nil, verr
	}
	name := strings.TrimSpace(dto.Name)
	if err := s.ensureUniqueName(ctx, name, 0); err != nil {
		return nil, err
	}

	p := &Package{
		Name:             name,
		Description:      dto.Description,
		Price:            dto.Price.Round(2),
		DurationDays:     dto.DurationDays,
		FeaturedPosition: defaultFeaturedPosition,
		IsActive:         true,
	}
	if dto.FeaturedPosition != nil {
		p.FeaturedPosition = *dto.FeaturedPosition
	}
	if dto.IsActive != nil {
		p.IsActive = *dto.IsActive
	}

	m := ToDataModel(p)
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}

	s.logger.Info("promotion package created", "package_id", m.ID, "name", m.Name, "price", m.Price.StringFixed(2))
	return FromDataModel(m), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto PackageRequestDTO) (*Package, error) {
	if verr := dto.Validate(); verr != nil {
		return nil, verr
	}

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("get package %d: %w", id, err)
	}

	name := strings.TrimSpace(dto.Name)
	if err := s.ensureUniqueName(ctx, name, id); err != nil {
		return nil, err
	}

	m.Name = name
	m.Description = dto.Description
	m.Price = dto.Price.Round(2)
	m.DurationDays = dto.DurationDays
	if dto.FeaturedPosition != nil {
		m.FeaturedPosition = *dto.FeaturedPosition
	}
	if dto.IsActive != nil {
		m.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update package %d: %w", id, err)
	}

	s.logger.Info("promotion package updated", "package_id", id, "is_active", m.IsActive)
	return FromDataModel(m), nil
}

func (s *Service) ensureUniqueName(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("check package name: %w", err)
	}
	if existing.ID != selfID {
		return internal.NewConflictError("A promotion package with this name already exists.", internal.ErrCodeDuplicatePackage)
	}
	return nil
}
