package user

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey" db:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" db:"email"`
	FullName     string    `gorm:"column:full_name;not null" db:"full_name"`
	Phone        string    `gorm:"column:phone" db:"phone"`
	PasswordHash string    `gorm:"column:password_hash;not null" db:"password_hash"`
	Role         string    `gorm:"column:role;not null" db:"role"`
	IsStaff      bool      `gorm:"column:is_staff;not null" db:"is_staff"`
	IsActive     bool      `gorm:"column:is_active;not null" db:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at" db:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" db:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
