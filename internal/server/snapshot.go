package server

import (
	"encoding/json"
	"time"

	"czar-party/internal/db"
	"czar-party/internal/game"

	"github.com/gin-gonic/gin"
)

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func optionalMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func settingsJSON(settings game.Settings) gin.H {
	return gin.H{
		"name":                     settings.Name,
		"max_players":              settings.MaxPlayers,
		"round_timer_seconds":      settings.RoundTimerSeconds,
		"total_rounds":             settings.TotalRounds,
		"regenerations_per_player": settings.RegenerationsPerPlayer,
		"is_public":                settings.IsPublic,
	}
}

func roomJSON(room game.RoomView) gin.H {
	return gin.H{
		"id":                   room.ID,
		"code":                 room.Code,
		"host_identity":        room.HostIdentity,
		"state":                room.State,
		"settings":             settingsJSON(room.Settings),
		"current_round_number": room.CurrentRoundNumber,
		"connected_players":    room.ConnectedPlayers,
		"created_at":           millis(room.CreatedAt),
		"started_at":           optionalMillis(room.StartedAt),
		"ended_at":             optionalMillis(room.EndedAt),
	}
}

func roomsJSON(rooms []game.RoomView) []gin.H {
	out := make([]gin.H, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, roomJSON(room))
	}
	return out
}

func playerJSON(player game.PlayerView) gin.H {
	return gin.H{
		"id":                 player.ID,
		"nickname":           player.Nickname,
		"score":              player.Score,
		"regenerations_used": player.RegenerationsUsed,
		"is_host":            player.IsHost,
		"is_connected":       player.IsConnected,
		"joined_at":          millis(player.JoinedAt),
	}
}

func playersJSON(players []game.PlayerView) []gin.H {
	out := make([]gin.H, 0, len(players))
	for _, player := range players {
		out = append(out, playerJSON(player))
	}
	return out
}

func cardJSON(card game.CardView) gin.H {
	return gin.H{
		"id":          card.ID,
		"text":        card.Text,
		"category":    card.Category,
		"difficulty":  card.Difficulty,
		"is_active":   card.IsActive,
		"usage_count": card.UsageCount,
	}
}

func cardsJSON(cards []game.CardView) []gin.H {
	out := make([]gin.H, 0, len(cards))
	for _, card := range cards {
		out = append(out, cardJSON(card))
	}
	return out
}

func imageJSON(image game.ImageView) gin.H {
	out := gin.H{
		"id":                  image.ID,
		"round_id":            image.RoundID,
		"player_id":           image.PlayerID,
		"prompt_id":           image.PromptID,
		"nickname":            image.Nickname,
		"prompt":              image.PromptText,
		"image":               image.Handle,
		"generation_time_ms":  image.GenerationTimeMs,
		"is_winner":           image.IsWinner,
		"regeneration_number": image.RegenerationNumber,
		"created_at":          millis(image.CreatedAt),
	}
	if image.Error != "" {
		out["error"] = image.Error
	}
	return out
}

func imagesJSON(images []game.ImageView) []gin.H {
	out := make([]gin.H, 0, len(images))
	for _, image := range images {
		out = append(out, imageJSON(image))
	}
	return out
}

func phaseJSON(phase game.Phase) gin.H {
	out := gin.H{"name": phase.Name()}
	switch p := phase.(type) {
	case game.Prompting:
		out["deadline"] = millis(p.Deadline)
	case game.Voting:
		out["images"] = imagesJSON(p.Images)
	case game.Complete:
		out["winner_id"] = p.WinnerID
		out["completed_at"] = millis(p.CompletedAt)
	}
	return out
}

func roundJSON(round game.RoundView) gin.H {
	prompts := make([]gin.H, 0, len(round.Prompts))
	for _, prompt := range round.Prompts {
		prompts = append(prompts, gin.H{
			"id":           prompt.ID,
			"player_id":    prompt.PlayerID,
			"text":         prompt.Text,
			"submitted_at": millis(prompt.SubmittedAt),
		})
	}
	return gin.H{
		"id":                   round.ID,
		"room_id":              round.RoomID,
		"round_number":         round.RoundNumber,
		"state":                round.Phase.Name(),
		"phase":                phaseJSON(round.Phase),
		"card":                 cardJSON(round.Card),
		"card_czar":            playerJSON(round.CardCzar),
		"prompts":              prompts,
		"players":              playersJSON(round.Players),
		"is_card_czar":         round.IsCardCzar,
		"has_submitted_prompt": round.HasSubmittedPrompt,
		"time_remaining_ms":    round.TimeRemaining.Milliseconds(),
		"started_at":           millis(round.StartedAt),
	}
}

func roomStateJSON(state game.RoomStateView) gin.H {
	out := gin.H{
		"room":          roomJSON(state.Room),
		"players":       playersJSON(state.Players),
		"me":            playerJSON(state.Me),
		"current_round": nil,
	}
	if state.CurrentRound != nil {
		out["current_round"] = roundJSON(*state.CurrentRound)
	}
	return out
}

func statsJSON(stats game.StatsView) gin.H {
	return gin.H{
		"room_id":                    stats.RoomID,
		"total_players":              stats.TotalPlayers,
		"total_rounds":               stats.TotalRounds,
		"average_generation_time_ms": stats.AverageGenerationTimeMs,
		"total_regenerations":        stats.TotalRegenerations,
		"completed_at":               millis(stats.CompletedAt),
	}
}

func cardStatsJSON(stats game.CardStats) gin.H {
	categories := make([]gin.H, 0, len(stats.Categories))
	for _, category := range stats.Categories {
		categories = append(categories, gin.H{"name": category.Name, "count": category.Count})
	}
	return gin.H{
		"total":        stats.Total,
		"active":       stats.Active,
		"categories":   categories,
		"difficulties": stats.Difficulties,
		"most_used":    cardsJSON(stats.MostUsed),
		"total_usage":  stats.TotalUsage,
	}
}

func eventsJSON(events []db.Event) []gin.H {
	out := make([]gin.H, 0, len(events))
	for _, event := range events {
		entry := gin.H{
			"id":         event.ID,
			"type":       event.Type,
			"round_id":   event.RoundID,
			"player_id":  event.PlayerID,
			"created_at": millis(event.CreatedAt),
		}
		if len(event.Payload) > 0 {
			entry["payload"] = json.RawMessage(event.Payload)
		}
		out = append(out, entry)
	}
	return out
}
