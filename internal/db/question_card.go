package db

import "time"

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type QuestionCard struct {
	ID         string    `gorm:"primaryKey;type:uuid"`
	Text       string    `gorm:"size:280;not null;uniqueIndex:idx_question_cards_category_text"`
	Category   string    `gorm:"size:64;not null;default:'custom';uniqueIndex:idx_question_cards_category_text;index:idx_question_cards_category_active"`
	Difficulty string    `gorm:"size:16;not null;default:'medium'"`
	IsActive   bool      `gorm:"not null;default:true;index:idx_question_cards_category_active"`
	UsageCount int       `gorm:"not null;default:0;index"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
