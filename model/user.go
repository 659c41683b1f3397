package model

import "time"

// User is written on every sign-in. Role is informative only; the role
// resolver is the authority.
type User struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Email       string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	DisplayName string    `json:"displayName" gorm:"size:255"`
	Role        Role      `json:"role" gorm:"type:varchar(16);not null"`
	LastLoginAt time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
