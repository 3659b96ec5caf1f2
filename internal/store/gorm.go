package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"czar-party/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the Postgres-backed store.
type Gorm struct {
	conn *gorm.DB
}

func NewGorm(conn *gorm.DB) *Gorm {
	return &Gorm{conn: conn}
}

func (g *Gorm) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return g.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

func (tx *gormTx) create(value any) error {
	// A failed insert aborts the surrounding Postgres transaction, so run it
	// under a savepoint and let callers retry after a conflict.
	return translate(tx.db.Transaction(func(inner *gorm.DB) error {
		return inner.Create(value).Error
	}))
}

func (tx *gormTx) first(dest any, query string, args ...any) error {
	return translate(tx.db.Where(query, args...).First(dest).Error)
}

func (tx *gormTx) CreateRoom(room *db.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	return tx.create(room)
}

func (tx *gormTx) RoomByID(id string) (db.Room, error) {
	var room db.Room
	err := tx.first(&room, "id = ?", id)
	return room, err
}

func (tx *gormTx) LockRoom(id string) (db.Room, error) {
	var room db.Room
	err := tx.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&room).Error
	return room, translate(err)
}

func (tx *gormTx) RoomByCode(code string) (db.Room, error) {
	var room db.Room
	err := tx.first(&room, "code = ?", code)
	return room, err
}

func (tx *gormTx) SaveRoom(room *db.Room) error {
	return translate(tx.db.Save(room).Error)
}

func (tx *gormTx) DeleteRoom(id string) error {
	return translate(tx.db.Where("id = ?", id).Delete(&db.Room{}).Error)
}

func (tx *gormTx) PublicWaitingRooms(limit int) ([]db.Room, error) {
	var rooms []db.Room
	query := tx.db.Where("is_public = ? AND state = ?", true, db.RoomWaiting).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rooms).Error
	return rooms, translate(err)
}

func (tx *gormTx) CreatePlayer(player *db.Player) error {
	if player.ID == "" {
		player.ID = uuid.NewString()
	}
	return tx.create(player)
}

func (tx *gormTx) PlayerByID(id string) (db.Player, error) {
	var player db.Player
	err := tx.first(&player, "id = ?", id)
	return player, err
}

func (tx *gormTx) PlayerByIdentity(roomID, identity string) (db.Player, error) {
	var player db.Player
	err := tx.first(&player, "room_id = ? AND identity = ?", roomID, identity)
	return player, err
}

func (tx *gormTx) PlayersByRoom(roomID string, connectedOnly bool) ([]db.Player, error) {
	var players []db.Player
	query := tx.db.Where("room_id = ?", roomID)
	if connectedOnly {
		query = query.Where("is_connected = ?", true)
	}
	err := query.Order("join_seq ASC").Order("id ASC").Find(&players).Error
	return players, translate(err)
}

func (tx *gormTx) NextJoinSeq(roomID string) (int, error) {
	var highest sql.NullInt64
	err := tx.db.Model(&db.Player{}).Where("room_id = ?", roomID).Select("MAX(join_seq)").Row().Scan(&highest)
	if err != nil {
		return 0, translate(err)
	}
	if !highest.Valid {
		return 1, nil
	}
	return int(highest.Int64) + 1, nil
}

func (tx *gormTx) SavePlayer(player *db.Player) error {
	return translate(tx.db.Save(player).Error)
}

func (tx *gormTx) DeletePlayersByRoom(roomID string) error {
	return translate(tx.db.Where("room_id = ?", roomID).Delete(&db.Player{}).Error)
}

func (tx *gormTx) CreateRound(round *db.Round) error {
	if round.ID == "" {
		round.ID = uuid.NewString()
	}
	return tx.create(round)
}

func (tx *gormTx) RoundByID(id string) (db.Round, error) {
	var round db.Round
	err := tx.first(&round, "id = ?", id)
	return round, err
}

func (tx *gormTx) RoundByNumber(roomID string, number int) (db.Round, error) {
	var round db.Round
	err := tx.first(&round, "room_id = ? AND round_number = ?", roomID, number)
	return round, err
}

func (tx *gormTx) SaveRound(round *db.Round) error {
	return translate(tx.db.Save(round).Error)
}

func (tx *gormTx) CreatePrompt(prompt *db.Prompt) error {
	if prompt.ID == "" {
		prompt.ID = uuid.NewString()
	}
	return tx.create(prompt)
}

func (tx *gormTx) PromptByID(id string) (db.Prompt, error) {
	var prompt db.Prompt
	err := tx.first(&prompt, "id = ?", id)
	return prompt, err
}

func (tx *gormTx) PromptByRoundPlayer(roundID, playerID string) (db.Prompt, error) {
	var prompt db.Prompt
	err := tx.first(&prompt, "round_id = ? AND player_id = ?", roundID, playerID)
	return prompt, err
}

func (tx *gormTx) PromptsByRound(roundID string) ([]db.Prompt, error) {
	var prompts []db.Prompt
	err := tx.db.Where("round_id = ?", roundID).Order("submitted_at ASC").Order("id ASC").Find(&prompts).Error
	return prompts, translate(err)
}

func (tx *gormTx) CreateImage(image *db.GeneratedImage) error {
	if image.ID == "" {
		image.ID = uuid.NewString()
	}
	return tx.create(image)
}

func (tx *gormTx) ImageByRoundPlayer(roundID, playerID string) (db.GeneratedImage, error) {
	var image db.GeneratedImage
	err := tx.first(&image, "round_id = ? AND player_id = ?", roundID, playerID)
	return image, err
}

func (tx *gormTx) ImagesByRound(roundID string) ([]db.GeneratedImage, error) {
	var images []db.GeneratedImage
	err := tx.db.Where("round_id = ?", roundID).Order("created_at ASC").Order("id ASC").Find(&images).Error
	return images, translate(err)
}

func (tx *gormTx) SaveImage(image *db.GeneratedImage) error {
	return translate(tx.db.Save(image).Error)
}

func (tx *gormTx) CreateCard(card *db.QuestionCard) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	return tx.create(card)
}

func (tx *gormTx) CardByID(id string) (db.QuestionCard, error) {
	var card db.QuestionCard
	err := tx.first(&card, "id = ?", id)
	return card, err
}

func (tx *gormTx) ActiveCards() ([]db.QuestionCard, error) {
	var cards []db.QuestionCard
	err := tx.db.Where("is_active = ?", true).Order("id ASC").Find(&cards).Error
	return cards, translate(err)
}

func (tx *gormTx) AllCards() ([]db.QuestionCard, error) {
	var cards []db.QuestionCard
	err := tx.db.Order("id ASC").Find(&cards).Error
	return cards, translate(err)
}

func (tx *gormTx) CountCards() (int64, error) {
	var count int64
	err := tx.db.Model(&db.QuestionCard{}).Count(&count).Error
	return count, translate(err)
}

func (tx *gormTx) SaveCard(card *db.QuestionCard) error {
	return translate(tx.db.Save(card).Error)
}

func (tx *gormTx) IncrementCardUsage(id string) error {
	result := tx.db.Model(&db.QuestionCard{}).
		Where("id = ?", id).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (tx *gormTx) CreateGameStats(stats *db.GameStats) error {
	if stats.ID == "" {
		stats.ID = uuid.NewString()
	}
	return tx.create(stats)
}

func (tx *gormTx) GameStatsByRoom(roomID string) (db.GameStats, error) {
	var stats db.GameStats
	err := tx.first(&stats, "room_id = ?", roomID)
	return stats, err
}

func (tx *gormTx) AppendEvent(event *db.Event) error {
	return translate(tx.db.Create(event).Error)
}

func (tx *gormTx) EventsByRoom(roomID string) ([]db.Event, error) {
	var events []db.Event
	err := tx.db.Where("room_id = ?", roomID).Order("id ASC").Find(&events).Error
	return events, translate(err)
}
