package db

import "time"

type Prompt struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	RoundID     string    `gorm:"type:uuid;index;not null;uniqueIndex:idx_prompts_round_player"`
	PlayerID    string    `gorm:"type:uuid;index;not null;uniqueIndex:idx_prompts_round_player"`
	Text        string    `gorm:"size:800;not null"`
	SubmittedAt time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}
