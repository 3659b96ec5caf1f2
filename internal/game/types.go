package game

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"czar-party/internal/db"
)

const (
	CodeLength        = 6
	codeAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeAttempts      = 10
	MaxPromptLength   = 200
	MaxNicknameLength = 32
	publicRoomLimit   = 20
)

// Identity is the verified caller supplied by the auth layer.
type Identity struct {
	Subject  string
	Email    string
	Nickname string
	Picture  string
}

func (i Identity) authenticated() bool {
	return strings.TrimSpace(i.Subject) != ""
}

func (i Identity) displayName(fallback string) string {
	if name := strings.TrimSpace(i.Nickname); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(i.Email, "@"); ok && strings.TrimSpace(local) != "" {
		return strings.TrimSpace(local)
	}
	return fallback
}

type Settings struct {
	Name                   string
	MaxPlayers             int
	RoundTimerSeconds      int
	TotalRounds            int
	RegenerationsPerPlayer int
	IsPublic               bool
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:             8,
		RoundTimerSeconds:      30,
		TotalRounds:            10,
		RegenerationsPerPlayer: 3,
	}
}

type Bounds struct {
	MinPlayers       int
	MaxPlayers       int
	MinTimerSeconds  int
	MaxTimerSeconds  int
	MinRounds        int
	MaxRounds        int
	MaxRegenerations int
}

func DefaultBounds() Bounds {
	return Bounds{
		MinPlayers:       3,
		MaxPlayers:       10,
		MinTimerSeconds:  15,
		MaxTimerSeconds:  60,
		MinRounds:        5,
		MaxRounds:        20,
		MaxRegenerations: 10,
	}
}

func (s Settings) Validate(b Bounds) error {
	switch {
	case s.MaxPlayers < b.MinPlayers || s.MaxPlayers > b.MaxPlayers:
		return ErrInvalidSettings.withMessage(fmt.Sprintf("max players must be between %d and %d", b.MinPlayers, b.MaxPlayers))
	case s.RoundTimerSeconds < b.MinTimerSeconds || s.RoundTimerSeconds > b.MaxTimerSeconds:
		return ErrInvalidSettings.withMessage(fmt.Sprintf("round timer must be between %d and %d seconds", b.MinTimerSeconds, b.MaxTimerSeconds))
	case s.TotalRounds < b.MinRounds || s.TotalRounds > b.MaxRounds:
		return ErrInvalidSettings.withMessage(fmt.Sprintf("total rounds must be between %d and %d", b.MinRounds, b.MaxRounds))
	case s.RegenerationsPerPlayer < 0 || s.RegenerationsPerPlayer > b.MaxRegenerations:
		return ErrInvalidSettings.withMessage(fmt.Sprintf("regenerations per player must be between 0 and %d", b.MaxRegenerations))
	case utf8.RuneCountInString(s.Name) > 64:
		return ErrInvalidSettings.withMessage("room name must be at most 64 characters")
	}
	return nil
}

// Phase is the state-specific part of a round. Exactly one of Prompting,
// Generating, Voting or Complete.
type Phase interface {
	Name() string
	isPhase()
}

type Prompting struct {
	Deadline time.Time
}

type Generating struct{}

type Voting struct {
	Images []ImageView
}

type Complete struct {
	WinnerID    string
	CompletedAt time.Time
}

func (Prompting) Name() string  { return db.RoundPrompting }
func (Generating) Name() string { return db.RoundGenerating }
func (Voting) Name() string     { return db.RoundVoting }
func (Complete) Name() string   { return db.RoundComplete }

func (Prompting) isPhase()  {}
func (Generating) isPhase() {}
func (Voting) isPhase()     {}
func (Complete) isPhase()   {}

type RoomView struct {
	ID                 string
	Code               string
	HostIdentity       string
	State              string
	Settings           Settings
	CurrentRoundNumber int
	ConnectedPlayers   int
	CreatedAt          time.Time
	StartedAt          *time.Time
	EndedAt            *time.Time
}

type PlayerView struct {
	ID                string
	Identity          string
	Nickname          string
	Score             int
	RegenerationsUsed int
	IsHost            bool
	IsConnected       bool
	JoinedAt          time.Time
}

type CardView struct {
	ID         string
	Text       string
	Category   string
	Difficulty string
	IsActive   bool
	UsageCount int
}

type PromptView struct {
	ID          string
	PlayerID    string
	Text        string
	SubmittedAt time.Time
}

type ImageView struct {
	ID                 string
	RoundID            string
	PlayerID           string
	PromptID           string
	Nickname           string
	PromptText         string
	Handle             string
	GenerationTimeMs   int64
	IsWinner           bool
	RegenerationNumber int
	Error              string
	CreatedAt          time.Time
}

type RoundView struct {
	ID                 string
	RoomID             string
	RoundNumber        int
	Phase              Phase
	Card               CardView
	CardCzar           PlayerView
	Prompts            []PromptView
	Players            []PlayerView
	IsCardCzar         bool
	HasSubmittedPrompt bool
	TimeRemaining      time.Duration
	StartedAt          time.Time
}

type RoomStateView struct {
	Room         RoomView
	Players      []PlayerView
	Me           PlayerView
	CurrentRound *RoundView
}

type RoomSummary struct {
	Room    RoomView
	Players []PlayerView
}

type CreateRoomResult struct {
	RoomID   string
	Code     string
	PlayerID string
}

type JoinResult struct {
	RoomID   string
	PlayerID string
	Rejoined bool
}

type LeaveResult struct {
	RoomDeleted bool
}

type StartResult struct {
	RoundID     string
	RoundNumber int
}

type SubmitPromptResult struct {
	PromptID     string
	AllSubmitted bool
}

type AdvanceResult struct {
	State string
}

// VoteResult describes what the vote led to. NextRoundID is empty when the
// game ended or when no next round could be opened.
type VoteResult struct {
	WinnerID        string
	GameOver        bool
	NextRoundID     string
	NextRoundNumber int
}

type GenerateResult struct {
	Images int
	Failed int
}

type StatsView struct {
	RoomID                  string
	TotalPlayers            int
	TotalRounds             int
	AverageGenerationTimeMs float64
	TotalRegenerations      int
	CompletedAt             time.Time
}

func roomView(room db.Room, connected int) RoomView {
	return RoomView{
		ID:           room.ID,
		Code:         room.Code,
		HostIdentity: room.HostIdentity,
		State:        room.State,
		Settings: Settings{
			Name:                   room.Name,
			MaxPlayers:             room.MaxPlayers,
			RoundTimerSeconds:      room.RoundTimerSeconds,
			TotalRounds:            room.TotalRounds,
			RegenerationsPerPlayer: room.RegenerationsPerPlayer,
			IsPublic:               room.IsPublic,
		},
		CurrentRoundNumber: room.CurrentRoundNumber,
		ConnectedPlayers:   connected,
		CreatedAt:          room.CreatedAt,
		StartedAt:          room.StartedAt,
		EndedAt:            room.EndedAt,
	}
}

func playerView(player db.Player) PlayerView {
	return PlayerView{
		ID:                player.ID,
		Identity:          player.Identity,
		Nickname:          player.Nickname,
		Score:             player.Score,
		RegenerationsUsed: player.RegenerationsUsed,
		IsHost:            player.IsHost,
		IsConnected:       player.IsConnected,
		JoinedAt:          player.JoinedAt,
	}
}

func playerViews(players []db.Player) []PlayerView {
	views := make([]PlayerView, 0, len(players))
	for _, player := range players {
		views = append(views, playerView(player))
	}
	return views
}

func cardView(card db.QuestionCard) CardView {
	return CardView{
		ID:         card.ID,
		Text:       card.Text,
		Category:   card.Category,
		Difficulty: card.Difficulty,
		IsActive:   card.IsActive,
		UsageCount: card.UsageCount,
	}
}

func imageView(image db.GeneratedImage, nickname string) ImageView {
	return ImageView{
		ID:                 image.ID,
		RoundID:            image.RoundID,
		PlayerID:           image.PlayerID,
		PromptID:           image.PromptID,
		Nickname:           nickname,
		PromptText:         image.PromptText,
		Handle:             image.ImageHandle,
		GenerationTimeMs:   image.GenerationTimeMs,
		IsWinner:           image.IsWinner,
		RegenerationNumber: image.RegenerationNumber,
		Error:              image.Error,
		CreatedAt:          image.CreatedAt,
	}
}

func statsView(stats db.GameStats) StatsView {
	return StatsView{
		RoomID:                  stats.RoomID,
		TotalPlayers:            stats.TotalPlayers,
		TotalRounds:             stats.TotalRounds,
		AverageGenerationTimeMs: stats.AverageGenerationTimeMs,
		TotalRegenerations:      stats.TotalRegenerations,
		CompletedAt:             stats.CompletedAt,
	}
}
