package promotion

import (
	"time"

	"github.com/shopspring/decimal"
)

type Package struct {
	ID               int64           `gorm:"primaryKey" db:"id"`
	Name             string          `gorm:"column:name;not null;uniqueIndex" db:"name"`
	Description      string          `gorm:"column:description" db:"description"`
	Price            decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" db:"price"`
	DurationDays     int             `gorm:"column:duration_days;not null" db:"duration_days"`
	FeaturedPosition int             `gorm:"column:featured_position;not null" db:"featured_position"`
	IsActive         bool            `gorm:"column:is_active;not null" db:"is_active"`
	CreatedAt        time.Time       `gorm:"column:created_at" db:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at" db:"updated_at"`
}

func (Package) TableName() string {
	return "promotion_packages"
}
