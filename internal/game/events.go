package game

import (
	"encoding/json"

	"czar-party/internal/db"
	"czar-party/internal/store"

	"gorm.io/datatypes"
)

const (
	eventRoomCreated      = "room_created"
	eventPlayerJoined     = "player_joined"
	eventPlayerLeft       = "player_left"
	eventRoomDeleted      = "room_deleted"
	eventGameStarted      = "game_started"
	eventRoundStarted     = "round_started"
	eventPromptSubmitted  = "prompt_submitted"
	eventRoundForced      = "round_forced"
	eventImagesGenerated  = "images_generated"
	eventImageRegenerated = "image_regenerated"
	eventVoteSubmitted    = "vote_submitted"
	eventGameOver         = "game_over"
)

type EventPayload struct {
	Code         string `json:"code,omitempty"`
	Nickname     string `json:"nickname,omitempty"`
	RoundNumber  int    `json:"round_number,omitempty"`
	Phase        string `json:"phase,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Prompt       string `json:"prompt,omitempty"`
	CardID       string `json:"card_id,omitempty"`
	CardCzarID   string `json:"card_czar_id,omitempty"`
	WinnerID     string `json:"winner_id,omitempty"`
	Count        int    `json:"count,omitempty"`
	Failed       int    `json:"failed,omitempty"`
	Regeneration int    `json:"regeneration,omitempty"`
	Rejoined     bool   `json:"rejoined,omitempty"`
}

func appendEvent(tx store.Tx, roomID, roundID, playerID, eventType string, payload EventPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		RoomID:  roomID,
		Type:    eventType,
		Payload: datatypes.JSON(data),
	}
	if roundID != "" {
		event.RoundID = &roundID
	}
	if playerID != "" {
		event.PlayerID = &playerID
	}
	return tx.AppendEvent(&event)
}
