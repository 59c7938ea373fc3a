package promotion

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	promotionmodel "github.com/frahmantamala/jobly/internal/core/datamodel/promotion"
)

type Package struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"-"`
	DurationDays     int             `json:"duration_days"`
	FeaturedPosition int             `json:"featured_position"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
}

type RepositoryAPI interface {
	ListActive(ctx context.Context) ([]*promotionmodel.Package, error)
	GetByID(ctx context.Context, id int64) (*promotionmodel.Package, error)
	GetByName(ctx context.Context, name string) (*promotionmodel.Package, error)
	Create(ctx context.Context, p *promotionmodel.Package) error
	Update(ctx context.Context, p *promotionmodel.Package) error
}

func ToDataModel(p *Package) *promotionmodel.Package {
	return &promotionmodel.Package{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Price:            p.Price,
		DurationDays:     p.DurationDays,
		FeaturedPosition: p.FeaturedPosition,
		IsActive:         p.IsActive,
		CreatedAt:        p.CreatedAt,
	}
}

func FromDataModel(m *promotionmodel.Package) *Package {
	return &Package{
		ID:               m.ID,
		Name:             m.Name,
		Description:      m.Description,
		Price:            m.Price,
		DurationDays:     m.DurationDays,
		FeaturedPosition: m.FeaturedPosition,
		IsActive:         m.IsActive,
		CreatedAt:        m.CreatedAt,
	}
}
