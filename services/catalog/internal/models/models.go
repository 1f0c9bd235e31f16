package models

import "time"

type Product struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	File      string `gorm:"uniqueIndex;size:255;not null"`
	Title     string `gorm:"not null"`
	Price     string `gorm:"not null;default:''"`
	Details   string
	PriceID   string `gorm:"size:255"`
	SitePage  string `gorm:"size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
