package model

import (
	"strings"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"`
	Username string `gorm:"uniqueIndex;not null"`

	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`

	// Sistem bilgileri
	Role       string `json:"role" gorm:"default:'user'"`
	IsVerified bool   `json:"is_verified" gorm:"default:false"`

	// İlişkiler
	Subscriptions []UserSubscription `json:"-"`
	Downloads     []Download         `json:"-"`
}

func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
