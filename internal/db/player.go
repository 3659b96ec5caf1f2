package db

import "time"

type Player struct {
	ID                string    `gorm:"primaryKey;type:uuid"`
	RoomID            string    `gorm:"type:uuid;index;not null;uniqueIndex:idx_players_room_identity"`
	Identity          string    `gorm:"size:128;not null;uniqueIndex:idx_players_room_identity"`
	Nickname          string    `gorm:"size:64;not null"`
	Score             int       `gorm:"not null;default:0"`
	RegenerationsUsed int       `gorm:"not null;default:0"`
	IsHost            bool      `gorm:"not null;default:false"`
	IsConnected       bool      `gorm:"not null;default:true"`
	JoinSeq           int       `gorm:"not null"`
	JoinedAt          time.Time `gorm:"not null"`
	LastSeenAt        time.Time `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}
