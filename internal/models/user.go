package models

import "time"

// User represents a trader account
type User struct {
	Base
	Username    string      `gorm:"uniqueIndex;not null;size:80" json:"username"`
	Email       string      `gorm:"uniqueIndex;not null;size:120" json:"email"`
	Password    string      `gorm:"not null" json:"-"`
	IsActive    bool        `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	Portfolios  []Portfolio `gorm:"foreignKey:UserID" json:"portfolios,omitempty"`
}
