package game

import (
	"context"
	"errors"
	"time"

	"czar-party/internal/db"
	"czar-party/internal/store"

	"golang.org/x/sync/errgroup"
)

const maxImageError = 512

type generated struct {
	prompt  db.Prompt
	handle  string
	latency time.Duration
	err     string
}

// claimRound moves a prompting round to generating and returns the prompts
// the batch has to cover.
func claimRound(tx store.Tx, round *db.Round) ([]db.Prompt, error) {
	if round.State != db.RoundPrompting {
		return nil, ErrWrongPhase.withMessage("round is not in prompting phase")
	}
	round.State = db.RoundGenerating
	if err := tx.SaveRound(round); err != nil {
		return nil, err
	}
	return tx.PromptsByRound(round.ID)
}

// GenerateImages closes prompting and produces one image per prompt. The
// generator runs outside the room lock; a failure is recorded on its image
// and never aborts the batch.
func (s *Service) GenerateImages(ctx context.Context, roundID string) (GenerateResult, error) {
	roomID, err := s.roomIDForRound(ctx, roundID)
	if err != nil {
		return GenerateResult{}, err
	}
	var prompts []db.Prompt
	err = s.inRoom(ctx, roomID, func(tx store.Tx, room *db.Room) error {
		round, err := tx.RoundByID(roundID)
		if err != nil {
			return notFound(err, ErrRoundNotFound)
		}
		prompts, err = claimRound(tx, &round)
		return err
	})
	if err != nil {
		return GenerateResult{}, err
	}
	return s.produceImages(ctx, roomID, roundID, prompts)
}

// CloseExpiredPrompting lets any member close a round whose prompt deadline
// has elapsed; nothing closes it otherwise.
func (s *Service) CloseExpiredPrompting(ctx context.Context, id Identity, roundID string) (AdvanceResult, error) {
	if !id.authenticated() {
		return AdvanceResult{}, ErrUnauthenticated
	}
	roomID, err := s.roomIDForRound(ctx, roundID)
	if err != nil {
		return AdvanceResult{}, err
	}
	var prompts []db.Prompt
	err = s.inRoom(ctx, roomID, func(tx store.Tx, room *db.Room) error {
		round, err := tx.RoundByID(roundID)
		if err != nil {
			return notFound(err, ErrRoundNotFound)
		}
		player, err := memberOf(tx, room.ID, id)
		if err != nil {
			return err
		}
		if round.State == db.RoundPrompting && !s.now().After(round.PromptDeadline) {
			return ErrWrongPhase.withMessage("prompt deadline has not passed")
		}
		prompts, err = claimRound(tx, &round)
		if err != nil {
			return err
		}
		return appendEvent(tx, room.ID, round.ID, player.ID, eventRoundForced, EventPayload{Phase: db.RoundPrompting, Reason: "deadline"})
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	s.goBackground(ctx, "generate images", func(ctx context.Context) error {
		_, err := s.produceImages(ctx, roomID, roundID, prompts)
		return err
	})
	return AdvanceResult{State: db.RoundGenerating}, nil
}

func (s *Service) produceImages(ctx context.Context, roomID, roundID string, prompts []db.Prompt) (GenerateResult, error) {
	results := make([]generated, len(prompts))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for i, prompt := range prompts {
		group.Go(func() error {
			results[i] = s.generate(groupCtx, prompt)
			return nil
		})
	}
	_ = group.Wait()

	var result GenerateResult
	err := s.inRoom(ctx, roomID, func(tx store.Tx, room *db.Room) error {
		round, err := tx.RoundByID(roundID)
		if err != nil {
			return notFound(err, ErrRoundNotFound)
		}
		if round.State != db.RoundGenerating {
			return ErrWrongPhase.withMessage("round left generating before images were stored")
		}
		for _, res := range results {
			image := db.GeneratedImage{
				RoundID:          round.ID,
				PlayerID:         res.prompt.PlayerID,
				PromptID:         res.prompt.ID,
				PromptText:       res.prompt.Text,
				ImageHandle:      res.handle,
				GenerationTimeMs: res.latency.Milliseconds(),
				Error:            res.err,
			}
			if err := tx.CreateImage(&image); err != nil {
				if errors.Is(err, store.ErrConflict) {
					continue
				}
				return err
			}
			result.Images++
			if res.err != "" {
				result.Failed++
			}
		}
		round.State = db.RoundVoting
		if err := tx.SaveRound(&round); err != nil {
			return err
		}
		return appendEvent(tx, room.ID, round.ID, "", eventImagesGenerated, EventPayload{Count: result.Images, Failed: result.Failed})
	})
	if err != nil {
		s.log.Warnw("image batch discarded", "room_id", roomID, "round_id", roundID, "error", err)
		return GenerateResult{}, err
	}
	s.log.Infow("images generated", "room_id", roomID, "round_id", roundID, "count", result.Images, "failed", result.Failed)
	return result, nil
}

func (s *Service) generate(ctx context.Context, prompt db.Prompt) generated {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	started := time.Now()
	res, err := s.generator.Generate(ctx, prompt.Text)
	latency := res.Latency
	if latency <= 0 {
		latency = time.Since(started)
	}
	out := generated{prompt: prompt, handle: res.Handle, latency: latency}
	if err != nil {
		out.handle = ""
		out.err = truncateRunes(err.Error(), maxImageError)
		s.log.Warnw("image generation failed", "round_id", prompt.RoundID, "player_id", prompt.PlayerID, "error", err)
	}
	s.metrics.ObserveGeneration(latency, err != nil)
	return out
}

// RegenerateImage replaces the caller's image for the round in place. The
// budget is checked before generating and again when the result is stored.
func (s *Service) RegenerateImage(ctx context.Context, id Identity, roundID, promptID string) (ImageView, error) {
	if !id.authenticated() {
		return ImageView{}, ErrUnauthenticated
	}
	roomID, err := s.roomIDForRound(ctx, roundID)
	if err != nil {
		return ImageView{}, err
	}

	var prompt db.Prompt
	check := func(tx store.Tx, room *db.Room) (db.Player, db.GeneratedImage, error) {
		round, err := tx.RoundByID(roundID)
		if err != nil {
			return db.Player{}, db.GeneratedImage{}, notFound(err, ErrRoundNotFound)
		}
		prompt, err = tx.PromptByID(promptID)
		if err != nil || prompt.RoundID != round.ID {
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return db.Player{}, db.GeneratedImage{}, err
			}
			return db.Player{}, db.GeneratedImage{}, ErrPromptNotFound
		}
		player, err := memberOf(tx, room.ID, id)
		if err != nil {
			return db.Player{}, db.GeneratedImage{}, err
		}
		if player.ID != prompt.PlayerID {
			return db.Player{}, db.GeneratedImage{}, ErrNotOwner
		}
		// Completed rounds are immutable, so regeneration stops once the Czar has voted.
		if round.State != db.RoundVoting {
			return db.Player{}, db.GeneratedImage{}, ErrWrongPhase.withMessage("images can only be regenerated during voting")
		}
		if player.RegenerationsUsed >= room.RegenerationsPerPlayer {
			return db.Player{}, db.GeneratedImage{}, ErrRegenLimit
		}
		image, err := tx.ImageByRoundPlayer(round.ID, player.ID)
		if err != nil {
			return db.Player{}, db.GeneratedImage{}, notFound(err, ErrWrongPhase.withMessage("no image to regenerate"))
		}
		return player, image, nil
	}

	err = s.inRoom(ctx, roomID, func(tx store.Tx, room *db.Room) error {
		_, _, err := check(tx, room)
		return err
	})
	if err != nil {
		return ImageView{}, err
	}

	res := s.generate(ctx, prompt)

	var view ImageView
	err = s.inRoom(ctx, roomID, func(tx store.Tx, room *db.Room) error {
		player, image, err := check(tx, room)
		if err != nil {
			return err
		}
		image.ImageHandle = res.handle
		image.GenerationTimeMs = res.latency.Milliseconds()
		image.Error = res.err
		image.RegenerationNumber++
		if err := tx.SaveImage(&image); err != nil {
			return err
		}
		player.RegenerationsUsed++
		if err := tx.SavePlayer(&player); err != nil {
			return err
		}
		view = imageView(image, player.Nickname)
		return appendEvent(tx, room.ID, roundID, player.ID, eventImageRegenerated, EventPayload{Regeneration: image.RegenerationNumber})
	})
	if err != nil {
		return ImageView{}, err
	}
	s.metrics.Regenerations.Inc()
	s.log.Infow("image regenerated", "room_id", roomID, "round_id", roundID, "regeneration", view.RegenerationNumber)
	return view, nil
}

func (s *Service) ImagesForRound(ctx context.Context, id Identity, roundID string) ([]ImageView, error) {
	if !id.authenticated() {
		return nil, ErrUnauthenticated
	}
	var images []ImageView
	err := s.read(ctx, func(tx store.Tx) error {
		round, err := tx.RoundByID(roundID)
		if err != nil {
			return notFound(err, ErrRoundNotFound)
		}
		if _, err := memberOf(tx, round.RoomID, id); err != nil {
			return err
		}
		images, err = roundImages(tx, round.ID)
		return err
	})
	return images, err
}

func roundImages(tx store.Tx, roundID string) ([]ImageView, error) {
	images, err := tx.ImagesByRound(roundID)
	if err != nil {
		return nil, err
	}
	views := make([]ImageView, 0, len(images))
	for _, image := range images {
		nickname := ""
		if player, err := tx.PlayerByID(image.PlayerID); err == nil {
			nickname = player.Nickname
		}
		views = append(views, imageView(image, nickname))
	}
	return views, nil
}
