package store

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"czar-party/internal/db"

	"github.com/google/uuid"
)

// Memory keeps every table in maps guarded by one mutex. A transaction works
// on a copy of the tables and swaps it in on success, so a failed callback
// leaves nothing behind.
type Memory struct {
	mu     sync.Mutex
	tables memTables
}

type memTables struct {
	rooms   map[string]db.Room
	players map[string]db.Player
	rounds  map[string]db.Round
	prompts map[string]db.Prompt
	images  map[string]db.GeneratedImage
	cards   map[string]db.QuestionCard
	stats   map[string]db.GameStats
	events  []db.Event
	eventID uint
}

func NewMemory() *Memory {
	return &Memory{
		tables: memTables{
			rooms:   make(map[string]db.Room),
			players: make(map[string]db.Player),
			rounds:  make(map[string]db.Round),
			prompts: make(map[string]db.Prompt),
			images:  make(map[string]db.GeneratedImage),
			cards:   make(map[string]db.QuestionCard),
			stats:   make(map[string]db.GameStats),
		},
	}
}

func (m *Memory) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	working := m.tables.clone()
	if err := fn(&memTx{t: &working}); err != nil {
		return err
	}
	m.tables = working
	return nil
}

func (t memTables) clone() memTables {
	return memTables{
		rooms:   maps.Clone(t.rooms),
		players: maps.Clone(t.players),
		rounds:  maps.Clone(t.rounds),
		prompts: maps.Clone(t.prompts),
		images:  maps.Clone(t.images),
		cards:   maps.Clone(t.cards),
		stats:   maps.Clone(t.stats),
		events:  append([]db.Event(nil), t.events...),
		eventID: t.eventID,
	}
}

type memTx struct {
	t *memTables
}

func now() time.Time {
	return time.Now().UTC()
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func stamp(created, updated *time.Time) {
	at := now()
	if created.IsZero() {
		*created = at
	}
	*updated = at
}

func (tx *memTx) CreateRoom(room *db.Room) error {
	for _, existing := range tx.t.rooms {
		if existing.Code == room.Code {
			return ErrConflict
		}
	}
	ensureID(&room.ID)
	if _, ok := tx.t.rooms[room.ID]; ok {
		return ErrConflict
	}
	stamp(&room.CreatedAt, &room.UpdatedAt)
	tx.t.rooms[room.ID] = *room
	return nil
}

func (tx *memTx) RoomByID(id string) (db.Room, error) {
	room, ok := tx.t.rooms[id]
	if !ok {
		return db.Room{}, ErrNotFound
	}
	return room, nil
}

func (tx *memTx) LockRoom(id string) (db.Room, error) {
	return tx.RoomByID(id)
}

func (tx *memTx) RoomByCode(code string) (db.Room, error) {
	for _, room := range tx.t.rooms {
		if room.Code == code {
			return room, nil
		}
	}
	return db.Room{}, ErrNotFound
}

func (tx *memTx) SaveRoom(room *db.Room) error {
	if _, ok := tx.t.rooms[room.ID]; !ok {
		return ErrNotFound
	}
	room.UpdatedAt = now()
	tx.t.rooms[room.ID] = *room
	return nil
}

func (tx *memTx) DeleteRoom(id string) error {
	delete(tx.t.rooms, id)
	return nil
}

func (tx *memTx) PublicWaitingRooms(limit int) ([]db.Room, error) {
	rooms := make([]db.Room, 0)
	for _, room := range tx.t.rooms {
		if room.IsPublic && room.State == db.RoomWaiting {
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID > rooms[j].ID
		}
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	if limit > 0 && len(rooms) > limit {
		rooms = rooms[:limit]
	}
	return rooms, nil
}

func (tx *memTx) CreatePlayer(player *db.Player) error {
	for _, existing := range tx.t.players {
		if existing.RoomID == player.RoomID && existing.Identity == player.Identity {
			return ErrConflict
		}
	}
	ensureID(&player.ID)
	stamp(&player.CreatedAt, &player.UpdatedAt)
	tx.t.players[player.ID] = *player
	return nil
}

func (tx *memTx) PlayerByID(id string) (db.Player, error) {
	player, ok := tx.t.players[id]
	if !ok {
		return db.Player{}, ErrNotFound
	}
	return player, nil
}

func (tx *memTx) PlayerByIdentity(roomID, identity string) (db.Player, error) {
	for _, player := range tx.t.players {
		if player.RoomID == roomID && player.Identity == identity {
			return player, nil
		}
	}
	return db.Player{}, ErrNotFound
}

func (tx *memTx) PlayersByRoom(roomID string, connectedOnly bool) ([]db.Player, error) {
	players := make([]db.Player, 0)
	for _, player := range tx.t.players {
		if player.RoomID != roomID {
			continue
		}
		if connectedOnly && !player.IsConnected {
			continue
		}
		players = append(players, player)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinSeq == players[j].JoinSeq {
			return players[i].ID < players[j].ID
		}
		return players[i].JoinSeq < players[j].JoinSeq
	})
	return players, nil
}

func (tx *memTx) NextJoinSeq(roomID string) (int, error) {
	next := 1
	for _, player := range tx.t.players {
		if player.RoomID == roomID && player.JoinSeq >= next {
			next = player.JoinSeq + 1
		}
	}
	return next, nil
}

func (tx *memTx) SavePlayer(player *db.Player) error {
	if _, ok := tx.t.players[player.ID]; !ok {
		return ErrNotFound
	}
	player.UpdatedAt = now()
	tx.t.players[player.ID] = *player
	return nil
}

func (tx *memTx) DeletePlayersByRoom(roomID string) error {
	for id, player := range tx.t.players {
		if player.RoomID == roomID {
			delete(tx.t.players, id)
		}
	}
	return nil
}

func (tx *memTx) CreateRound(round *db.Round) error {
	for _, existing := range tx.t.rounds {
		if existing.RoomID == round.RoomID && existing.RoundNumber == round.RoundNumber {
			return ErrConflict
		}
	}
	ensureID(&round.ID)
	stamp(&round.CreatedAt, &round.UpdatedAt)
	tx.t.rounds[round.ID] = *round
	return nil
}

func (tx *memTx) RoundByID(id string) (db.Round, error) {
	round, ok := tx.t.rounds[id]
	if !ok {
		return db.Round{}, ErrNotFound
	}
	return round, nil
}

func (tx *memTx) RoundByNumber(roomID string, number int) (db.Round, error) {
	for _, round := range tx.t.rounds {
		if round.RoomID == roomID && round.RoundNumber == number {
			return round, nil
		}
	}
	return db.Round{}, ErrNotFound
}

func (tx *memTx) SaveRound(round *db.Round) error {
	if _, ok := tx.t.rounds[round.ID]; !ok {
		return ErrNotFound
	}
	round.UpdatedAt = now()
	tx.t.rounds[round.ID] = *round
	return nil
}

func (tx *memTx) CreatePrompt(prompt *db.Prompt) error {
	for _, existing := range tx.t.prompts {
		if existing.RoundID == prompt.RoundID && existing.PlayerID == prompt.PlayerID {
			return ErrConflict
		}
	}
	ensureID(&prompt.ID)
	stamp(&prompt.CreatedAt, &prompt.UpdatedAt)
	tx.t.prompts[prompt.ID] = *prompt
	return nil
}

func (tx *memTx) PromptByID(id string) (db.Prompt, error) {
	prompt, ok := tx.t.prompts[id]
	if !ok {
		return db.Prompt{}, ErrNotFound
	}
	return prompt, nil
}

func (tx *memTx) PromptByRoundPlayer(roundID, playerID string) (db.Prompt, error) {
	for _, prompt := range tx.t.prompts {
		if prompt.RoundID == roundID && prompt.PlayerID == playerID {
			return prompt, nil
		}
	}
	return db.Prompt{}, ErrNotFound
}

func (tx *memTx) PromptsByRound(roundID string) ([]db.Prompt, error) {
	prompts := make([]db.Prompt, 0)
	for _, prompt := range tx.t.prompts {
		if prompt.RoundID == roundID {
			prompts = append(prompts, prompt)
		}
	}
	sort.Slice(prompts, func(i, j int) bool {
		if prompts[i].SubmittedAt.Equal(prompts[j].SubmittedAt) {
			return prompts[i].ID < prompts[j].ID
		}
		return prompts[i].SubmittedAt.Before(prompts[j].SubmittedAt)
	})
	return prompts, nil
}

func (tx *memTx) CreateImage(image *db.GeneratedImage) error {
	for _, existing := range tx.t.images {
		if existing.RoundID == image.RoundID && existing.PlayerID == image.PlayerID {
			return ErrConflict
		}
	}
	ensureID(&image.ID)
	stamp(&image.CreatedAt, &image.UpdatedAt)
	tx.t.images[image.ID] = *image
	return nil
}

func (tx *memTx) ImageByRoundPlayer(roundID, playerID string) (db.GeneratedImage, error) {
	for _, image := range tx.t.images {
		if image.RoundID == roundID && image.PlayerID == playerID {
			return image, nil
		}
	}
	return db.GeneratedImage{}, ErrNotFound
}

func (tx *memTx) ImagesByRound(roundID string) ([]db.GeneratedImage, error) {
	images := make([]db.GeneratedImage, 0)
	for _, image := range tx.t.images {
		if image.RoundID == roundID {
			images = append(images, image)
		}
	}
	sort.Slice(images, func(i, j int) bool {
		if images[i].CreatedAt.Equal(images[j].CreatedAt) {
			return images[i].ID < images[j].ID
		}
		return images[i].CreatedAt.Before(images[j].CreatedAt)
	})
	return images, nil
}

func (tx *memTx) SaveImage(image *db.GeneratedImage) error {
	if _, ok := tx.t.images[image.ID]; !ok {
		return ErrNotFound
	}
	image.UpdatedAt = now()
	tx.t.images[image.ID] = *image
	return nil
}

func (tx *memTx) CreateCard(card *db.QuestionCard) error {
	for _, existing := range tx.t.cards {
		if existing.Category == card.Category && existing.Text == card.Text {
			return ErrConflict
		}
	}
	ensureID(&card.ID)
	stamp(&card.CreatedAt, &card.UpdatedAt)
	tx.t.cards[card.ID] = *card
	return nil
}

func (tx *memTx) CardByID(id string) (db.QuestionCard, error) {
	card, ok := tx.t.cards[id]
	if !ok {
		return db.QuestionCard{}, ErrNotFound
	}
	return card, nil
}

func (tx *memTx) ActiveCards() ([]db.QuestionCard, error) {
	cards, _ := tx.AllCards()
	active := cards[:0]
	for _, card := range cards {
		if card.IsActive {
			active = append(active, card)
		}
	}
	return active, nil
}

func (tx *memTx) AllCards() ([]db.QuestionCard, error) {
	cards := make([]db.QuestionCard, 0, len(tx.t.cards))
	for _, card := range tx.t.cards {
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].ID < cards[j].ID
	})
	return cards, nil
}

func (tx *memTx) CountCards() (int64, error) {
	return int64(len(tx.t.cards)), nil
}

func (tx *memTx) SaveCard(card *db.QuestionCard) error {
	if _, ok := tx.t.cards[card.ID]; !ok {
		return ErrNotFound
	}
	card.UpdatedAt = now()
	tx.t.cards[card.ID] = *card
	return nil
}

func (tx *memTx) IncrementCardUsage(id string) error {
	card, ok := tx.t.cards[id]
	if !ok {
		return ErrNotFound
	}
	card.UsageCount++
	card.UpdatedAt = now()
	tx.t.cards[id] = card
	return nil
}

func (tx *memTx) CreateGameStats(stats *db.GameStats) error {
	for _, existing := range tx.t.stats {
		if existing.RoomID == stats.RoomID {
			return ErrConflict
		}
	}
	ensureID(&stats.ID)
	if stats.CreatedAt.IsZero() {
		stats.CreatedAt = now()
	}
	tx.t.stats[stats.ID] = *stats
	return nil
}

func (tx *memTx) GameStatsByRoom(roomID string) (db.GameStats, error) {
	for _, stats := range tx.t.stats {
		if stats.RoomID == roomID {
			return stats, nil
		}
	}
	return db.GameStats{}, ErrNotFound
}

func (tx *memTx) AppendEvent(event *db.Event) error {
	tx.t.eventID++
	event.ID = tx.t.eventID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now()
	}
	tx.t.events = append(tx.t.events, *event)
	return nil
}

func (tx *memTx) EventsByRoom(roomID string) ([]db.Event, error) {
	events := make([]db.Event, 0)
	for _, event := range tx.t.events {
		if event.RoomID == roomID {
			events = append(events, event)
		}
	}
	return events, nil
}
