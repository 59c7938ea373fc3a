package postgres

import (
	"context"

	"gorm.io/gorm"

	promotionmodel "github.com/frahmantamala/jobly/internal/core/datamodel/promotion"
)

type PackageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) ListActive(ctx context.Context) ([]*promotionmodel.Package, error) {
	var pkgs []*promotionmodel.Package
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price ASC").Order("id ASC").
		Find(&pkgs).Error
	return pkgs, err
}

func (r *PackageRepository) GetByID(ctx context.Context, id int64) (*promotionmodel.Package, error) {
	var p promotionmodel.Package
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PackageRepository) GetByName(ctx context.Context, name string) (*promotionmodel.Package, error) {
	var p promotionmodel.Package
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PackageRepository) Create(ctx context.Context, p *promotionmodel.Package) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Update writes every column, including false and zero values.
func (r *PackageRepository) Update(ctx context.Context, p *promotionmodel.Package) error {
	return r.db.WithContext(ctx).Save(p).Error
}
