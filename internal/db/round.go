package db

import "time"

const (
	RoundPrompting  = "prompting"
	RoundGenerating = "generating"
	RoundVoting     = "voting"
	RoundComplete   = "complete"
)

type Round struct {
	ID             string     `gorm:"primaryKey;type:uuid"`
	RoomID         string     `gorm:"type:uuid;index;not null;uniqueIndex:idx_rounds_room_number"`
	RoundNumber    int        `gorm:"not null;uniqueIndex:idx_rounds_room_number"`
	QuestionCardID string     `gorm:"type:uuid;not null"`
	CardCzarID     string     `gorm:"type:uuid;not null"`
	WinnerID       *string    `gorm:"type:uuid"`
	State          string     `gorm:"size:16;not null"`
	PromptDeadline time.Time  `gorm:"not null"`
	StartedAt      time.Time  `gorm:"not null"`
	CompletedAt    *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}
