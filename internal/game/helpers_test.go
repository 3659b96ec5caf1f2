package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"czar-party/internal/db"
	"czar-party/internal/imagegen"
	"czar-party/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc   *Service
	store *store.Memory
	clock *fakeClock
}

type fixtureOption func(*Options)

func withBounds(b Bounds) fixtureOption {
	return func(o *Options) { o.Bounds = b }
}

func withIntn(fn func(int) int) fixtureOption {
	return func(o *Options) { o.Intn = fn }
}

func testBounds() Bounds {
	b := DefaultBounds()
	b.MinRounds = 1
	return b
}

func stubGenerator() imagegen.Generator {
	return imagegen.GeneratorFunc(func(ctx context.Context, prompt string) (imagegen.Result, error) {
		if strings.Contains(prompt, "fail") {
			return imagegen.Result{Latency: 50 * time.Millisecond}, errors.New("content policy violation")
		}
		return imagegen.Result{Handle: "img:" + prompt, Latency: 200 * time.Millisecond}, nil
	})
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	options := Options{Now: clock.Now, Bounds: testBounds()}
	for _, opt := range opts {
		opt(&options)
	}
	st := store.NewMemory()
	svc := New(st, stubGenerator(), options)
	if _, err := svc.Cards.Seed(context.Background(), db.SeedCards); err != nil {
		t.Fatalf("seed cards: %v", err)
	}
	t.Cleanup(svc.Wait)
	return &fixture{svc: svc, store: st, clock: clock}
}

func user(name string) Identity {
	return Identity{Subject: "user-" + name, Email: name + "@example.com"}
}

func smallGame() Settings {
	return Settings{MaxPlayers: 8, RoundTimerSeconds: 30, TotalRounds: 2, RegenerationsPerPlayer: 3, IsPublic: true}
}

func (f *fixture) createRoom(t *testing.T, host Identity, settings Settings) CreateRoomResult {
	t.Helper()
	res, err := f.svc.CreateRoom(context.Background(), host, settings)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return res
}

func (f *fixture) join(t *testing.T, id Identity, code string) JoinResult {
	t.Helper()
	res, err := f.svc.JoinRoom(context.Background(), id, code, "")
	if err != nil {
		t.Fatalf("join %s: %v", id.Subject, err)
	}
	return res
}

// startedRoom creates a room hosted by "host" with the named guests joined
// and the game started.
func (f *fixture) startedRoom(t *testing.T, settings Settings, guests ...string) (CreateRoomResult, StartResult) {
	t.Helper()
	room := f.createRoom(t, user("host"), settings)
	for _, guest := range guests {
		f.join(t, user(guest), room.Code)
	}
	start, err := f.svc.StartGame(context.Background(), user("host"), room.RoomID)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	return room, start
}

func (f *fixture) room(t *testing.T, roomID string) db.Room {
	t.Helper()
	var room db.Room
	err := f.store.WithinTx(context.Background(), func(tx store.Tx) error {
		var err error
		room, err = tx.RoomByID(roomID)
		return err
	})
	if err != nil {
		t.Fatalf("load room: %v", err)
	}
	return room
}

func (f *fixture) round(t *testing.T, roundID string) db.Round {
	t.Helper()
	var round db.Round
	err := f.store.WithinTx(context.Background(), func(tx store.Tx) error {
		var err error
		round, err = tx.RoundByID(roundID)
		return err
	})
	if err != nil {
		t.Fatalf("load round: %v", err)
	}
	return round
}

func (f *fixture) players(t *testing.T, roomID string) []db.Player {
	t.Helper()
	var players []db.Player
	err := f.store.WithinTx(context.Background(), func(tx store.Tx) error {
		var err error
		players, err = tx.PlayersByRoom(roomID, false)
		return err
	})
	if err != nil {
		t.Fatalf("load players: %v", err)
	}
	return players
}

func (f *fixture) images(t *testing.T, roundID string) []db.GeneratedImage {
	t.Helper()
	var images []db.GeneratedImage
	err := f.store.WithinTx(context.Background(), func(tx store.Tx) error {
		var err error
		images, err = tx.ImagesByRound(roundID)
		return err
	})
	if err != nil {
		t.Fatalf("load images: %v", err)
	}
	return images
}

func (f *fixture) playerByIdentity(t *testing.T, roomID string, id Identity) db.Player {
	t.Helper()
	for _, p := range f.players(t, roomID) {
		if p.Identity == id.Subject {
			return p
		}
	}
	t.Fatalf("player %s not in room", id.Subject)
	return db.Player{}
}

func (f *fixture) identityOf(t *testing.T, playerID string) Identity {
	t.Helper()
	var p db.Player
	err := f.store.WithinTx(context.Background(), func(tx store.Tx) error {
		var err error
		p, err = tx.PlayerByID(playerID)
		return err
	})
	if err != nil {
		t.Fatalf("load player: %v", err)
	}
	return Identity{Subject: p.Identity}
}

// playRoundToVoting has every connected non-Czar player submit a prompt and
// waits for the automatic image batch.
func (f *fixture) playRoundToVoting(t *testing.T, roomID, roundID string) {
	t.Helper()
	round := f.round(t, roundID)
	for i, p := range f.players(t, roomID) {
		if p.ID == round.CardCzarID || !p.IsConnected {
			continue
		}
		text := fmt.Sprintf("prompt %d from %s", i, p.Nickname)
		if _, err := f.svc.SubmitPrompt(context.Background(), Identity{Subject: p.Identity}, roundID, text); err != nil {
			t.Fatalf("submit prompt: %v", err)
		}
	}
	f.svc.Wait()
	if got := f.round(t, roundID).State; got != db.RoundVoting {
		t.Fatalf("expected voting, got %s", got)
	}
}

func expectErr(t *testing.T, err error, want *Error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %s, got %v", want.Code, err)
	}
}
