package promotion

import (
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/jobly/internal"
	"github.com/frahmantamala/jobly/internal/core/common/validation"
)

type PackageResponse struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Price            string `json:"price"`
	DurationDays     int    `json:"duration_days"`
	FeaturedPosition int    `json:"featured_position"`
	IsActive         bool   `json:"is_active"`
}

func (p *Package) ToResponse() PackageResponse {
	return PackageResponse{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Price:            p.Price.StringFixed(2),
		DurationDays:     p.DurationDays,
		FeaturedPosition: p.FeaturedPosition,
		IsActive:         p.IsActive,
	}
}

// PackageRequestDTO is the admin create/update payload.
type PackageRequestDTO struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	DurationDays     int             `json:"duration_days"`
	FeaturedPosition *int            `json:"featured_position,omitempty"`
	IsActive         *bool           `json:"is_active,omitempty"`
}

func (d PackageRequestDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("price", d.Price).PositiveDecimal(internal.ErrCodeInvalidAmount)
	v.Field("duration_days", d.DurationDays).MinInt(1, internal.ErrCodeInvalidDuration).MaxInt(365, internal.ErrCodeInvalidDuration)
	if d.FeaturedPosition != nil {
		v.Field("featured_position", *d.FeaturedPosition).MinInt(1, internal.ErrCodeValidationFailed)
	}
	return v.Validate()
}
