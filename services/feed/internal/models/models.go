package models

import "time"

type Post struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Title     string    `gorm:"size:200"`
	Body      string    `gorm:"not null"`
	ByOwner   bool      `gorm:"not null;default:false"`
	Edited    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}
