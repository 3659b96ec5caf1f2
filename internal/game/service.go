// Package game runs the room and round lifecycle: rooms and rosters,
// the prompting/generating/voting state machine, image generation and
// end-of-game statistics.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"czar-party/internal/db"
	"czar-party/internal/imagegen"
	"czar-party/internal/lock"
	"czar-party/internal/metrics"
	"czar-party/internal/store"

	"go.uber.org/zap"
)

type Options struct {
	Locker           lock.Locker
	Logger           *zap.SugaredLogger
	Metrics          *metrics.Metrics
	Bounds           Bounds
	ImageConcurrency int
	ImageTimeout     time.Duration
	// Now and Intn default to the wall clock and math/rand.
	Now  func() time.Time
	Intn func(n int) int
}

type Service struct {
	store     store.Store
	generator imagegen.Generator
	locker    lock.Locker
	log       *zap.SugaredLogger
	metrics   *metrics.Metrics
	bounds    Bounds
	workers   int
	timeout   time.Duration
	now       func() time.Time
	intn      func(n int) int
	Cards     *QuestionBank

	background sync.WaitGroup
}

func New(st store.Store, generator imagegen.Generator, opts Options) *Service {
	s := &Service{
		store:     st,
		generator: generator,
		locker:    opts.Locker,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		bounds:    opts.Bounds,
		workers:   opts.ImageConcurrency,
		timeout:   opts.ImageTimeout,
		now:       opts.Now,
		intn:      opts.Intn,
	}
	if s.generator == nil {
		s.generator = imagegen.NewPlaceholder()
	}
	if s.locker == nil {
		s.locker = lock.NewLocal()
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	if s.metrics == nil {
		s.metrics = metrics.New("czar_party")
	}
	if s.bounds == (Bounds{}) {
		s.bounds = DefaultBounds()
	}
	if s.workers <= 0 {
		s.workers = 4
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.intn == nil {
		s.intn = rand.IntN
	}
	s.Cards = &QuestionBank{store: st, intn: s.intn, log: s.log}
	return s
}

// Wait blocks until background image batches have finished.
func (s *Service) Wait() {
	s.background.Wait()
}

func (s *Service) goBackground(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if err := fn(ctx); err != nil {
			s.log.Warnw("background task failed", "task", name, "error", err)
		}
	}()
}

// inRoom serializes fn against every other mutation of the same room and
// runs it inside one transaction with the room row locked.
func (s *Service) inRoom(ctx context.Context, roomID string, fn func(tx store.Tx, room *db.Room) error) error {
	unlock, err := s.locker.Lock(ctx, "room:"+roomID)
	if err != nil {
		return fmt.Errorf("lock room: %w", err)
	}
	defer unlock()
	return s.store.WithinTx(ctx, func(tx store.Tx) error {
		room, err := tx.LockRoom(roomID)
		if err != nil {
			return notFound(err, ErrRoomNotFound)
		}
		return fn(tx, &room)
	})
}

func (s *Service) read(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.store.WithinTx(ctx, fn)
}

func (s *Service) roomIDForRound(ctx context.Context, roundID string) (string, error) {
	var roomID string
	err := s.read(ctx, func(tx store.Tx) error {
		round, err := tx.RoundByID(roundID)
		if err != nil {
			return notFound(err, ErrRoundNotFound)
		}
		roomID = round.RoomID
		return nil
	})
	return roomID, err
}

// notFound maps store.ErrNotFound to the given game error and passes other
// failures through.
func notFound(err error, gameErr *Error) error {
	if errors.Is(err, store.ErrNotFound) {
		return gameErr
	}
	return err
}

func memberOf(tx store.Tx, roomID string, id Identity) (db.Player, error) {
	player, err := tx.PlayerByIdentity(roomID, id.Subject)
	if err != nil {
		return db.Player{}, notFound(err, ErrPlayerNotInRoom)
	}
	return player, nil
}
