// Package store persists rooms, rounds and their children. Every mutation
// runs inside WithinTx so multi-row changes commit or roll back together.
package store

import (
	"context"
	"errors"

	"czar-party/internal/db"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	CreateRoom(room *db.Room) error
	RoomByID(id string) (db.Room, error)
	// LockRoom loads the room and holds a write lock on it until the
	// transaction ends.
	LockRoom(id string) (db.Room, error)
	RoomByCode(code string) (db.Room, error)
	SaveRoom(room *db.Room) error
	DeleteRoom(id string) error
	PublicWaitingRooms(limit int) ([]db.Room, error)

	CreatePlayer(player *db.Player) error
	PlayerByID(id string) (db.Player, error)
	PlayerByIdentity(roomID, identity string) (db.Player, error)
	// PlayersByRoom returns players in join order.
	PlayersByRoom(roomID string, connectedOnly bool) ([]db.Player, error)
	NextJoinSeq(roomID string) (int, error)
	SavePlayer(player *db.Player) error
	DeletePlayersByRoom(roomID string) error

	CreateRound(round *db.Round) error
	RoundByID(id string) (db.Round, error)
	RoundByNumber(roomID string, number int) (db.Round, error)
	SaveRound(round *db.Round) error

	CreatePrompt(prompt *db.Prompt) error
	PromptByID(id string) (db.Prompt, error)
	PromptByRoundPlayer(roundID, playerID string) (db.Prompt, error)
	PromptsByRound(roundID string) ([]db.Prompt, error)

	CreateImage(image *db.GeneratedImage) error
	ImageByRoundPlayer(roundID, playerID string) (db.GeneratedImage, error)
	ImagesByRound(roundID string) ([]db.GeneratedImage, error)
	SaveImage(image *db.GeneratedImage) error

	CreateCard(card *db.QuestionCard) error
	CardByID(id string) (db.QuestionCard, error)
	ActiveCards() ([]db.QuestionCard, error)
	AllCards() ([]db.QuestionCard, error)
	CountCards() (int64, error)
	SaveCard(card *db.QuestionCard) error
	IncrementCardUsage(id string) error

	CreateGameStats(stats *db.GameStats) error
	GameStatsByRoom(roomID string) (db.GameStats, error)

	AppendEvent(event *db.Event) error
	EventsByRoom(roomID string) ([]db.Event, error)
}
