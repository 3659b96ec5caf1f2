package game

import (
	"context"
	"errors"
	"time"

	"czar-party/internal/db"
	"czar-party/internal/store"
)

// aggregateStats writes the one GameStats row for a finished room. Average
// generation time covers the final round only; regenerations cover every
// player who ever joined.
func aggregateStats(tx store.Tx, room *db.Room, last db.Round, now time.Time) (db.GameStats, error) {
	players, err := tx.PlayersByRoom(room.ID, false)
	if err != nil {
		return db.GameStats{}, err
	}
	images, err := tx.ImagesByRound(last.ID)
	if err != nil {
		return db.GameStats{}, err
	}

	stats := db.GameStats{
		RoomID:       room.ID,
		TotalPlayers: len(players),
		TotalRounds:  last.RoundNumber,
		CompletedAt:  now,
	}
	if len(images) > 0 {
		var total int64
		for _, image := range images {
			total += image.GenerationTimeMs
		}
		stats.AverageGenerationTimeMs = float64(total) / float64(len(images))
	}
	for _, player := range players {
		stats.TotalRegenerations += player.RegenerationsUsed
	}

	err = tx.CreateGameStats(&stats)
	if errors.Is(err, store.ErrConflict) {
		return tx.GameStatsByRoom(room.ID)
	}
	return stats, err
}

func (s *Service) StatsForRoom(ctx context.Context, roomID string) (StatsView, error) {
	var view StatsView
	err := s.read(ctx, func(tx store.Tx) error {
		stats, err := tx.GameStatsByRoom(roomID)
		if err != nil {
			return notFound(err, ErrStatsNotFound)
		}
		view = statsView(stats)
		return nil
	})
	return view, err
}

// Events returns the audit trail of a room to one of its members.
func (s *Service) Events(ctx context.Context, id Identity, roomID string) ([]db.Event, error) {
	if !id.authenticated() {
		return nil, ErrUnauthenticated
	}
	var events []db.Event
	err := s.read(ctx, func(tx store.Tx) error {
		if _, err := tx.RoomByID(roomID); err != nil {
			return notFound(err, ErrRoomNotFound)
		}
		if _, err := memberOf(tx, roomID, id); err != nil {
			return err
		}
		var err error
		events, err = tx.EventsByRoom(roomID)
		return err
	})
	return events, err
}
