package db

import "time"

const (
	RoomWaiting  = "waiting"
	RoomPlaying  = "playing"
	RoomGameOver = "gameOver"
)

type Room struct {
	ID                     string     `gorm:"primaryKey;type:uuid"`
	Code                   string     `gorm:"size:6;uniqueIndex;not null"`
	HostIdentity           string     `gorm:"size:128;not null"`
	Name                   string     `gorm:"size:64"`
	MaxPlayers             int        `gorm:"not null"`
	RoundTimerSeconds      int        `gorm:"not null"`
	TotalRounds            int        `gorm:"not null"`
	RegenerationsPerPlayer int        `gorm:"not null;default:3"`
	IsPublic               bool       `gorm:"not null;default:false;index:idx_rooms_public_state"`
	State                  string     `gorm:"size:16;not null;index:idx_rooms_public_state"`
	CurrentRoundNumber     int        `gorm:"not null;default:0"`
	CreatedAt              time.Time  `gorm:"not null;index"`
	UpdatedAt              time.Time  `gorm:"not null"`
	StartedAt              *time.Time
	EndedAt                *time.Time
}
