package game

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"czar-party/internal/db"
	"czar-party/internal/store"
)

func (s *Service) CreateRoom(ctx context.Context, id Identity, settings Settings) (CreateRoomResult, error) {
	if !id.authenticated() {
		return CreateRoomResult{}, ErrUnauthenticated
	}
	settings.Name = strings.TrimSpace(settings.Name)
	if err := settings.Validate(s.bounds); err != nil {
		return CreateRoomResult{}, err
	}

	var result CreateRoomResult
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		now := s.now()
		room := db.Room{
			HostIdentity:           id.Subject,
			Name:                   settings.Name,
			MaxPlayers:             settings.MaxPlayers,
			RoundTimerSeconds:      settings.RoundTimerSeconds,
			TotalRounds:            settings.TotalRounds,
			RegenerationsPerPlayer: settings.RegenerationsPerPlayer,
			IsPublic:               settings.IsPublic,
			State:                  db.RoomWaiting,
			CreatedAt:              now,
		}
		created := false
		for attempt := 0; attempt < codeAttempts && !created; attempt++ {
			room.Code = s.newRoomCode()
			_, err := tx.RoomByCode(room.Code)
			if err == nil {
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			err = tx.CreateRoom(&room)
			switch {
			case err == nil:
				created = true
			case errors.Is(err, store.ErrConflict):
				room.ID = ""
			default:
				return err
			}
		}
		if !created {
			return ErrCodeExhausted
		}

		host := db.Player{
			RoomID:      room.ID,
			Identity:    id.Subject,
			Nickname:    truncateRunes(id.displayName("Host"), MaxNicknameLength),
			IsHost:      true,
			IsConnected: true,
			JoinSeq:     1,
			JoinedAt:    now,
			LastSeenAt:  now,
		}
		if err := tx.CreatePlayer(&host); err != nil {
			return err
		}
		if err := appendEvent(tx, room.ID, "", host.ID, eventRoomCreated, EventPayload{Code: room.Code, Nickname: host.Nickname}); err != nil {
			return err
		}
		result = CreateRoomResult{RoomID: room.ID, Code: room.Code, PlayerID: host.ID}
		return nil
	})
	if err != nil {
		return CreateRoomResult{}, err
	}
	s.metrics.RoomsCreated.Inc()
	s.log.Infow("room created", "room_id", result.RoomID, "code", result.Code, "host", id.Subject)
	return result, nil
}

func (s *Service) JoinRoom(ctx context.Context, id Identity, code, nickname string) (JoinResult, error) {
	if !id.authenticated() {
		return JoinResult{}, ErrUnauthenticated
	}
	nickname = strings.TrimSpace(nickname)
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return JoinResult{}, ErrInvalidLength.withMessage("nickname must be at most 32 characters")
	}

	var roomID string
	err := s.read(ctx, func(tx store.Tx) error {
		room, err := tx.RoomByCode(code)
		if err != nil {
			return notFound(err, ErrRoomNotFound)
		}
		roomID = room.ID
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}

	var result JoinResult
	err = s.inRoom(ctx, roomID, func(tx store.Tx, room *db.Room) error {
		if room.State != db.RoomWaiting {
			return ErrRoomNotJoinable
		}
		now := s.now()
		existing, err := tx.PlayerByIdentity(room.ID, id.Subject)
		if err == nil {
			existing.IsConnected = true
			existing.LastSeenAt = now
			if nickname != "" {
				existing.Nickname = nickname
			}
			if err := tx.SavePlayer(&existing); err != nil {
				return err
			}
			result = JoinResult{RoomID: room.ID, PlayerID: existing.ID, Rejoined: true}
			return appendEvent(tx, room.ID, "", existing.ID, eventPlayerJoined, EventPayload{Nickname: existing.Nickname, Rejoined: true})
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		connected, err := tx.PlayersByRoom(room.ID, true)
		if err != nil {
			return err
		}
		if len(connected) >= room.MaxPlayers {
			return ErrRoomFull
		}
		seq, err := tx.NextJoinSeq(room.ID)
		if err != nil {
			return err
		}
		if nickname == "" {
			nickname = truncateRunes(id.displayName("Player"), MaxNicknameLength)
		}
		player := db.Player{
			RoomID:      room.ID,
			Identity:    id.Subject,
			Nickname:    nickname,
			IsConnected: true,
			JoinSeq:     seq,
			JoinedAt:    now,
			LastSeenAt:  now,
		}
		if err := tx.CreatePlayer(&player); err != nil {
			return err
		}
		result = JoinResult{RoomID: room.ID, PlayerID: player.ID}
		return appendEvent(tx, room.ID, "", player.ID, eventPlayerJoined, EventPayload{Nickname: player.Nickname})
	})
	if err != nil {
		return JoinResult{}, err
	}
	s.log.Infow("player joined", "room_id", result.RoomID, "player_id", result.PlayerID, "rejoined", result.Rejoined)
	return result, nil
}

// LeaveRoom disconnects the caller. A host leaving a room that never started
// takes the room and its roster with them.
func (s *Service) LeaveRoom(ctx context.Context, id Identity, roomID string) (LeaveResult, error) {
	if !id.authenticated() {
		return LeaveResult{}, ErrUnauthenticated
	}
	var result LeaveResult
	err := s.inRoom(ctx, roomID, func(tx store.Tx, room *db.Room) error {
		player, err := memberOf(tx, room.ID, id)
		if err != nil {
			return err
		}
		player.IsConnected = false
		player.LastSeenAt = s.now()
		if err := tx.SavePlayer(&player); err != nil {
			return err
		}
		if !player.IsHost || room.State != db.RoomWaiting {
			return appendEvent(tx, room.ID, "", player.ID, eventPlayerLeft, EventPayload{Nickname: player.Nickname})
		}
		if err := tx.DeletePlayersByRoom(room.ID); err != nil {
			return err
		}
		if err := tx.DeleteRoom(room.ID); err != nil {
			return err
		}
		result.RoomDeleted = true
		return appendEvent(tx, room.ID, "", player.ID, eventRoomDeleted, EventPayload{Code: room.Code, Reason: "host left"})
	})
	if err != nil {
		return LeaveResult{}, err
	}
	s.log.Infow("player left", "room_id", roomID, "identity", id.Subject, "room_deleted", result.RoomDeleted)
	return result, nil
}

func (s *Service) ListPublicRooms(ctx context.Context) ([]RoomView, error) {
	var rooms []RoomView
	err := s.read(ctx, func(tx store.Tx) error {
		records, err := tx.PublicWaitingRooms(publicRoomLimit)
		if err != nil {
			return err
		}
		rooms = make([]RoomView, 0, len(records))
		for _, room := range records {
			connected, err := tx.PlayersByRoom(room.ID, true)
			if err != nil {
				return err
			}
			rooms = append(rooms, roomView(room, len(connected)))
		}
		return nil
	})
	return rooms, err
}

func (s *Service) RoomByCode(ctx context.Context, code string) (RoomSummary, error) {
	var summary RoomSummary
	err := s.read(ctx, func(tx store.Tx) error {
		room, err := tx.RoomByCode(code)
		if err != nil {
			return notFound(err, ErrRoomNotFound)
		}
		connected, err := tx.PlayersByRoom(room.ID, true)
		if err != nil {
			return err
		}
		summary = RoomSummary{Room: roomView(room, len(connected)), Players: playerViews(connected)}
		return nil
	})
	return summary, err
}

// RoomState is the member view of a room, including the round in progress.
func (s *Service) RoomState(ctx context.Context, id Identity, roomID string) (RoomStateView, error) {
	if !id.authenticated() {
		return RoomStateView{}, ErrUnauthenticated
	}
	var view RoomStateView
	err := s.read(ctx, func(tx store.Tx) error {
		room, err := tx.RoomByID(roomID)
		if err != nil {
			return notFound(err, ErrRoomNotFound)
		}
		me, err := memberOf(tx, room.ID, id)
		if err != nil {
			return err
		}
		connected, err := tx.PlayersByRoom(room.ID, true)
		if err != nil {
			return err
		}
		view = RoomStateView{
			Room:    roomView(room, len(connected)),
			Players: playerViews(connected),
			Me:      playerView(me),
		}
		if room.CurrentRoundNumber == 0 {
			return nil
		}
		round, err := tx.RoundByNumber(room.ID, room.CurrentRoundNumber)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		roundState, err := s.buildRoundView(tx, round, me)
		if err != nil {
			return err
		}
		view.CurrentRound = &roundState
		return nil
	})
	return view, err
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}
