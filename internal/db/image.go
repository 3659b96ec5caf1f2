package db

import "time"

type GeneratedImage struct {
	ID                 string    `gorm:"primaryKey;type:uuid"`
	RoundID            string    `gorm:"type:uuid;index;not null;uniqueIndex:idx_images_round_player"`
	PlayerID           string    `gorm:"type:uuid;index;not null;uniqueIndex:idx_images_round_player"`
	PromptID           string    `gorm:"type:uuid;index;not null"`
	PromptText         string    `gorm:"size:800;not null"`
	ImageHandle        string    `gorm:"type:text;not null;default:''"`
	GenerationTimeMs   int64     `gorm:"not null;default:0"`
	IsWinner           bool      `gorm:"not null;default:false"`
	RegenerationNumber int       `gorm:"not null;default:0"`
	Error              string    `gorm:"size:512"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}
