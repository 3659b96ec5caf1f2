package game

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"czar-party/internal/db"
	"czar-party/internal/store"
)

func (s *Service) StartGame(ctx context.Context, id Identity, roomID string) (StartResult, error) {
	if !id.authenticated() {
		return StartResult{}, ErrUnauthenticated
	}
	var result StartResult
	err := s.inRoom(ctx, roomID, func(tx store.Tx, room *db.Room) error {
		player, err := tx.PlayerByIdentity(room.ID, id.Subject)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err != nil || !player.IsHost {
			return ErrNotHost
		}
		if room.State != db.RoomWaiting {
			return ErrInvalidState
		}
		connected, err := tx.PlayersByRoom(room.ID, true)
		if err != nil {
			return err
		}
		if len(connected) < s.bounds.MinPlayers {
			return ErrNotEnoughPlayers
		}
		card, err := s.Cards.draw(tx)
		if err != nil {
			return err
		}

		now := s.now()
		room.State = db.RoomPlaying
		room.StartedAt = &now
		room.CurrentRoundNumber = 1
		if err := tx.SaveRoom(room); err != nil {
			return err
		}
		round, err := s.openRound(tx, room, 1, connected[0], card, now)
		if err != nil {
			return err
		}
		if err := appendEvent(tx, room.ID, round.ID, player.ID, eventGameStarted, EventPayload{Count: len(connected)}); err != nil {
			return err
		}
		result = StartResult{RoundID: round.ID, RoundNumber: round.RoundNumber}
		return nil
	})
	if err != nil {
		return StartResult{}, err
	}
	s.metrics.GameStarted()
	s.log.Infow("game started", "room_id", roomID, "round_id", result.RoundID)
	return result, nil
}

func (s *Service) openRound(tx store.Tx, room *db.Room, number int, czar db.Player, card db.QuestionCard, now time.Time) (db.Round, error) {
	round := db.Round{
		RoomID:         room.ID,
		RoundNumber:    number,
		QuestionCardID: card.ID,
		CardCzarID:     czar.ID,
		State:          db.RoundPrompting,
		PromptDeadline: now.Add(time.Duration(room.RoundTimerSeconds) * time.Second),
		StartedAt:      now,
	}
	if err := tx.CreateRound(&round); err != nil {
		return db.Round{}, err
	}
	payload := EventPayload{RoundNumber: number, CardID: card.ID, CardCzarID: czar.ID}
	if err := appendEvent(tx, room.ID, round.ID, czar.ID, eventRoundStarted, payload); err != nil {
		return db.Round{}, err
	}
	return round, nil
}

func (s *Service) SubmitPrompt(ctx context.Context, id Identity, roundID, text string) (SubmitPromptResult, error) {
	if !id.authenticated() {
		return SubmitPromptResult{}, ErrUnauthenticated
	}
	roomID, err := s.roomIDForRound(ctx, roundID)
	if err != nil {
		return SubmitPromptResult{}, err
	}

	var result SubmitPromptResult
	err = s.inRoom(ctx, roomID, func(tx store.Tx, room *db.Room) error {
		round, err := tx.RoundByID(roundID)
		if err != nil {
			return notFound(err, ErrRoundNotFound)
		}
		if round.State != db.RoundPrompting {
			return ErrWrongPhase.withMessage("round is not in prompting phase")
		}
		if s.now().After(round.PromptDeadline) {
			return ErrDeadlinePassed
		}
		text = strings.TrimSpace(text)
		if text == "" || utf8.RuneCountInString(text) > MaxPromptLength {
			return ErrInvalidLength
		}
		player, err := memberOf(tx, room.ID, id)
		if err != nil {
			return err
		}
		if player.ID == round.CardCzarID {
			return ErrCzarCannotPrompt
		}
		if _, err := tx.PromptByRoundPlayer(round.ID, player.ID); err == nil {
			return ErrDuplicate
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		prompt := db.Prompt{
			RoundID:     round.ID,
			PlayerID:    player.ID,
			Text:        text,
			SubmittedAt: s.now(),
		}
		if err := tx.CreatePrompt(&prompt); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrDuplicate
			}
			return err
		}
		if err := appendEvent(tx, room.ID, round.ID, player.ID, eventPromptSubmitted, EventPayload{Prompt: text}); err != nil {
			return err
		}
		result.PromptID = prompt.ID
		result.AllSubmitted, err = allSubmitted(tx, round)
		return err
	})
	if err != nil {
		return SubmitPromptResult{}, err
	}
	s.metrics.PromptsSubmitted.Inc()
	if result.AllSubmitted {
		s.log.Infow("all prompts in", "room_id", roomID, "round_id", roundID)
		s.goBackground(ctx, "generate images", func(ctx context.Context) error {
			_, err := s.GenerateImages(ctx, roundID)
			if errors.Is(err, ErrWrongPhase) {
				return nil
			}
			return err
		})
	}
	return result, nil
}

// allSubmitted reports whether every connected player other than the Card
// Czar has a prompt in the round.
func allSubmitted(tx store.Tx, round db.Round) (bool, error) {
	connected, err := tx.PlayersByRoom(round.RoomID, true)
	if err != nil {
		return false, err
	}
	prompts, err := tx.PromptsByRound(round.ID)
	if err != nil {
		return false, err
	}
	submitted := make(map[string]struct{}, len(prompts))
	for _, prompt := range prompts {
		submitted[prompt.PlayerID] = struct{}{}
	}
	expected := 0
	for _, player := range connected {
		if player.ID == round.CardCzarID {
			continue
		}
		expected++
		if _, ok := submitted[player.ID]; !ok {
			return false, nil
		}
	}
	return expected > 0, nil
}

// AdvanceRound is the host's escape hatch for a stuck round. From prompting
// it closes submissions and starts the image batch; from generating it
// opens voting with whatever images exist.
func (s *Service) AdvanceRound(ctx context.Context, id Identity, roundID string) (AdvanceResult, error) {
	if !id.authenticated() {
		return AdvanceResult{}, ErrUnauthenticated
	}
	roomID, err := s.roomIDForRound(ctx, roundID)
	if err != nil {
		return AdvanceResult{}, err
	}

	var (
		result  AdvanceResult
		prompts []db.Prompt
	)
	err = s.inRoom(ctx, roomID, func(tx store.Tx, room *db.Room) error {
		round, err := tx.RoundByID(roundID)
		if err != nil {
			return notFound(err, ErrRoundNotFound)
		}
		player, err := tx.PlayerByIdentity(room.ID, id.Subject)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err != nil || !player.IsHost {
			return ErrNotHost
		}
		from := round.State
		switch from {
		case db.RoundPrompting:
			prompts, err = claimRound(tx, &round)
			if err != nil {
				return err
			}
		case db.RoundGenerating:
			round.State = db.RoundVoting
			if err := tx.SaveRound(&round); err != nil {
				return err
			}
		default:
			return ErrWrongPhase.withMessage("round can only be advanced from prompting or generating")
		}
		result.State = round.State
		return appendEvent(tx, room.ID, round.ID, player.ID, eventRoundForced, EventPayload{Phase: from, Reason: "host"})
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	s.log.Infow("round advanced by host", "room_id", roomID, "round_id", roundID, "state", result.State)
	if result.State == db.RoundGenerating {
		s.goBackground(ctx, "generate images", func(ctx context.Context) error {
			_, err := s.produceImages(ctx, roomID, roundID, prompts)
			return err
		})
	}
	return result, nil
}

func (s *Service) SubmitVote(ctx context.Context, id Identity, roundID, winnerID string) (VoteResult, error) {
	if !id.authenticated() {
		return VoteResult{}, ErrUnauthenticated
	}
	roomID, err := s.roomIDForRound(ctx, roundID)
	if err != nil {
		return VoteResult{}, err
	}

	var result VoteResult
	err = s.inRoom(ctx, roomID, func(tx store.Tx, room *db.Room) error {
		round, err := tx.RoundByID(roundID)
		if err != nil {
			return notFound(err, ErrRoundNotFound)
		}
		if round.State != db.RoundVoting {
			return ErrWrongPhase.withMessage("round is not in voting phase")
		}
		czar, err := tx.PlayerByID(round.CardCzarID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err != nil || czar.Identity != id.Subject {
			return ErrNotCardCzar
		}
		winner, err := tx.PlayerByID(winnerID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err != nil || winner.RoomID != round.RoomID || winner.ID == czar.ID {
			return ErrInvalidWinner
		}

		now := s.now()
		round.WinnerID = &winner.ID
		round.State = db.RoundComplete
		round.CompletedAt = &now
		if err := tx.SaveRound(&round); err != nil {
			return err
		}
		winner.Score++
		if err := tx.SavePlayer(&winner); err != nil {
			return err
		}
		image, err := tx.ImageByRoundPlayer(round.ID, winner.ID)
		switch {
		case err == nil:
			image.IsWinner = true
			if err := tx.SaveImage(&image); err != nil {
				return err
			}
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		if err := appendEvent(tx, room.ID, round.ID, czar.ID, eventVoteSubmitted, EventPayload{WinnerID: winner.ID, RoundNumber: round.RoundNumber}); err != nil {
			return err
		}
		result.WinnerID = winner.ID

		if round.RoundNumber >= room.TotalRounds {
			result.GameOver = true
			return s.finishGame(tx, room, round, now)
		}
		next, opened, err := s.nextRound(tx, room, round, now)
		if err != nil || !opened {
			return err
		}
		result.NextRoundID = next.ID
		result.NextRoundNumber = next.RoundNumber
		return nil
	})
	if err != nil {
		return VoteResult{}, err
	}

	s.metrics.RoundsCompleted.Inc()
	if result.GameOver {
		s.metrics.GameCompleted()
		s.log.Infow("game over", "room_id", roomID, "round_id", roundID)
	} else {
		s.log.Infow("round complete", "room_id", roomID, "round_id", roundID, "winner", result.WinnerID, "next_round", result.NextRoundNumber)
	}
	return result, nil
}

// nextRound opens the round after completed. The Card Czar rotates through
// connected players in join order. An empty room or an empty card catalog
// leaves the room without a new round and is not an error.
func (s *Service) nextRound(tx store.Tx, room *db.Room, completed db.Round, now time.Time) (db.Round, bool, error) {
	connected, err := tx.PlayersByRoom(room.ID, true)
	if err != nil {
		return db.Round{}, false, err
	}
	if len(connected) == 0 {
		s.log.Warnw("no connected players, next round not opened", "room_id", room.ID, "round", completed.RoundNumber)
		return db.Round{}, false, nil
	}
	czar := connected[completed.RoundNumber%len(connected)]
	card, err := s.Cards.draw(tx)
	if errors.Is(err, ErrNoCards) {
		s.log.Warnw("no active cards, next round not opened", "room_id", room.ID, "round", completed.RoundNumber)
		return db.Round{}, false, nil
	}
	if err != nil {
		return db.Round{}, false, err
	}
	room.CurrentRoundNumber = completed.RoundNumber + 1
	if err := tx.SaveRoom(room); err != nil {
		return db.Round{}, false, err
	}
	round, err := s.openRound(tx, room, room.CurrentRoundNumber, czar, card, now)
	if err != nil {
		return db.Round{}, false, err
	}
	return round, true, nil
}

func (s *Service) finishGame(tx store.Tx, room *db.Room, last db.Round, now time.Time) error {
	room.State = db.RoomGameOver
	room.EndedAt = &now
	room.CurrentRoundNumber = last.RoundNumber
	if err := tx.SaveRoom(room); err != nil {
		return err
	}
	stats, err := aggregateStats(tx, room, last, now)
	if err != nil {
		return err
	}
	return appendEvent(tx, room.ID, last.ID, "", eventGameOver, EventPayload{
		RoundNumber: last.RoundNumber,
		Count:       stats.TotalPlayers,
	})
}

// RoundState is the member view of one round.
func (s *Service) RoundState(ctx context.Context, id Identity, roundID string) (RoundView, error) {
	if !id.authenticated() {
		return RoundView{}, ErrUnauthenticated
	}
	var view RoundView
	err := s.read(ctx, func(tx store.Tx) error {
		round, err := tx.RoundByID(roundID)
		if err != nil {
			return notFound(err, ErrRoundNotFound)
		}
		me, err := memberOf(tx, round.RoomID, id)
		if err != nil {
			return err
		}
		view, err = s.buildRoundView(tx, round, me)
		return err
	})
	return view, err
}

func (s *Service) buildRoundView(tx store.Tx, round db.Round, me db.Player) (RoundView, error) {
	view := RoundView{
		ID:          round.ID,
		RoomID:      round.RoomID,
		RoundNumber: round.RoundNumber,
		IsCardCzar:  me.ID == round.CardCzarID,
		StartedAt:   round.StartedAt,
	}
	if remaining := round.PromptDeadline.Sub(s.now()); remaining > 0 && round.State == db.RoundPrompting {
		view.TimeRemaining = remaining
	}

	card, err := tx.CardByID(round.QuestionCardID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return RoundView{}, err
	}
	view.Card = cardView(card)
	czar, err := tx.PlayerByID(round.CardCzarID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return RoundView{}, err
	}
	view.CardCzar = playerView(czar)

	prompts, err := tx.PromptsByRound(round.ID)
	if err != nil {
		return RoundView{}, err
	}
	view.Prompts = make([]PromptView, 0, len(prompts))
	for _, prompt := range prompts {
		if prompt.PlayerID == me.ID {
			view.HasSubmittedPrompt = true
		}
		view.Prompts = append(view.Prompts, PromptView{
			ID:          prompt.ID,
			PlayerID:    prompt.PlayerID,
			Text:        prompt.Text,
			SubmittedAt: prompt.SubmittedAt,
		})
	}
	connected, err := tx.PlayersByRoom(round.RoomID, true)
	if err != nil {
		return RoundView{}, err
	}
	view.Players = playerViews(connected)

	switch round.State {
	case db.RoundPrompting:
		view.Phase = Prompting{Deadline: round.PromptDeadline}
	case db.RoundGenerating:
		view.Phase = Generating{}
	case db.RoundVoting:
		images, err := roundImages(tx, round.ID)
		if err != nil {
			return RoundView{}, err
		}
		view.Phase = Voting{Images: images}
	default:
		phase := Complete{}
		if round.WinnerID != nil {
			phase.WinnerID = *round.WinnerID
		}
		if round.CompletedAt != nil {
			phase.CompletedAt = *round.CompletedAt
		}
		view.Phase = phase
	}
	return view, nil
}
