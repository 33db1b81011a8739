package model

import (
	"time"

	"gorm.io/gorm"
)

// Download kullanıcının indirdiği bir içeriği temsil eder. Film detayları
// katalog servisinden geldiği haliyle kopyalanır; katalog bu sistemin
// dışındadır.
type Download struct {
	gorm.Model
	UserID  uint   `json:"user_id" gorm:"not null;index:idx_user_movie"`
	MovieID string `json:"movie_id" gorm:"not null;index:idx_user_movie"`

	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	Duration     int    `json:"duration"`
	ReleaseYear  int    `json:"release_year"`
	Genre        string `json:"genre"`
	Description  string `json:"description"`

	PlayProgress int       `json:"play_progress" gorm:"default:0"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsExpired    bool      `json:"is_expired" gorm:"default:false"`

	// İlişkiler
	User User `json:"-" gorm:"foreignKey:UserID"`
}
