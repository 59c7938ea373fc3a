package job

import "time"

// Job carries only the columns the payment flow reads or writes. The rest of
// the jobs table is owned by the listings service.
type Job struct {
	ID            int64      `gorm:"primaryKey" db:"id"`
	RecruiterID   int64      `gorm:"column:recruiter_id;not null;index" db:"recruiter_id"`
	Title         string     `gorm:"column:title;not null" db:"title"`
	CompanyName   string     `gorm:"column:company_name" db:"company_name"`
	IsPromoted    bool       `gorm:"column:is_promoted;not null" db:"is_promoted"`
	PromotedUntil *time.Time `gorm:"column:promoted_until" db:"promoted_until"`
	CreatedAt     time.Time  `gorm:"column:created_at" db:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at" db:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}
