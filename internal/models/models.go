package models

import "time"

type Member struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:150;not null"`
	PasswordHash string `gorm:"not null"`
	Token        string `gorm:"index;size:64"`
	IsOnline     bool   `gorm:"not null;default:false"`
	LastActivity time.Time
	CreatedAt    time.Time
}

type Message struct {
	ID        uint      `gorm:"primaryKey"`
	SenderID  uint      `gorm:"index;not null"`
	Sender    Member    `gorm:"constraint:OnDelete:CASCADE"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}
