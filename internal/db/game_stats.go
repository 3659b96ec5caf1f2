package db

import "time"

// GameStats is written once when a room reaches game over and never updated.
type GameStats struct {
	ID                      string    `gorm:"primaryKey;type:uuid"`
	RoomID                  string    `gorm:"type:uuid;uniqueIndex;not null"`
	TotalPlayers            int       `gorm:"not null"`
	TotalRounds             int       `gorm:"not null"`
	AverageGenerationTimeMs float64   `gorm:"not null"`
	TotalRegenerations      int       `gorm:"not null"`
	CompletedAt             time.Time `gorm:"not null;index"`
	CreatedAt               time.Time `gorm:"not null"`
}

func (GameStats) TableName() string {
	return "game_stats"
}
