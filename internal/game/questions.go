package game

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"czar-party/internal/db"
	"czar-party/internal/store"

	"go.uber.org/zap"
)

const maxCardLength = 280

// QuestionBank owns the card catalog. Draw is the only call the round
// engine makes; the rest is catalog maintenance.
type QuestionBank struct {
	store store.Store
	intn  func(n int) int
	log   *zap.SugaredLogger
}

type CategoryCount struct {
	Name  string
	Count int
}

type CardStats struct {
	Total        int
	Active       int
	Categories   []CategoryCount
	Difficulties map[string]int
	MostUsed     []CardView
	TotalUsage   int
}

type SeedResult struct {
	Inserted int
	Existing int64
}

// draw picks an active card uniformly at random and counts the selection.
func (b *QuestionBank) draw(tx store.Tx) (db.QuestionCard, error) {
	cards, err := tx.ActiveCards()
	if err != nil {
		return db.QuestionCard{}, err
	}
	if len(cards) == 0 {
		return db.QuestionCard{}, ErrNoCards
	}
	card := cards[b.intn(len(cards))]
	if err := tx.IncrementCardUsage(card.ID); err != nil {
		return db.QuestionCard{}, err
	}
	card.UsageCount++
	return card, nil
}

// Seed inserts records unless the catalog already has cards.
func (b *QuestionBank) Seed(ctx context.Context, records []db.CardRecord) (SeedResult, error) {
	var result SeedResult
	err := b.store.WithinTx(ctx, func(tx store.Tx) error {
		count, err := tx.CountCards()
		if err != nil {
			return err
		}
		if count > 0 {
			result.Existing = count
			return nil
		}
		for _, record := range records {
			card := db.QuestionCard{
				Text:       record.Text,
				Category:   record.Category,
				Difficulty: record.Difficulty,
				IsActive:   true,
			}
			if err := tx.CreateCard(&card); err != nil {
				return err
			}
			result.Inserted++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	if result.Inserted > 0 {
		b.log.Infow("question cards seeded", "count", result.Inserted)
	}
	return result, nil
}

// Import adds records one by one, skipping cards already in the catalog.
func (b *QuestionBank) Import(ctx context.Context, records []db.CardRecord) (int, error) {
	inserted := 0
	for _, record := range records {
		_, err := b.AddCard(ctx, record.Text, record.Category, record.Difficulty)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (b *QuestionBank) AddCard(ctx context.Context, text, category, difficulty string) (CardView, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxCardLength {
		return CardView{}, ErrInvalidCard.withMessage("card text must be between 1 and 280 characters")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = "custom"
	}
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if difficulty == "" {
		difficulty = db.DifficultyMedium
	}
	if !db.ValidDifficulty(difficulty) {
		return CardView{}, ErrInvalidCard.withMessage("difficulty must be easy, medium or hard")
	}
	card := db.QuestionCard{Text: text, Category: category, Difficulty: difficulty, IsActive: true}
	err := b.store.WithinTx(ctx, func(tx store.Tx) error {
		return tx.CreateCard(&card)
	})
	if err != nil {
		return CardView{}, err
	}
	return cardView(card), nil
}

func (b *QuestionBank) ToggleCard(ctx context.Context, cardID string, active bool) (CardView, error) {
	var card db.QuestionCard
	err := b.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		card, err = tx.CardByID(cardID)
		if err != nil {
			return notFound(err, ErrCardNotFound)
		}
		card.IsActive = active
		return tx.SaveCard(&card)
	})
	if err != nil {
		return CardView{}, err
	}
	return cardView(card), nil
}

func (b *QuestionBank) ListCards(ctx context.Context) ([]CardView, error) {
	var views []CardView
	err := b.store.WithinTx(ctx, func(tx store.Tx) error {
		cards, err := tx.AllCards()
		if err != nil {
			return err
		}
		views = make([]CardView, 0, len(cards))
		for _, card := range cards {
			views = append(views, cardView(card))
		}
		return nil
	})
	return views, err
}

// Sample returns up to n distinct active cards in random order without
// counting them as used.
func (b *QuestionBank) Sample(ctx context.Context, n int) ([]CardView, error) {
	var views []CardView
	err := b.store.WithinTx(ctx, func(tx store.Tx) error {
		cards, err := tx.ActiveCards()
		if err != nil {
			return err
		}
		for i := len(cards) - 1; i > 0; i-- {
			j := b.intn(i + 1)
			cards[i], cards[j] = cards[j], cards[i]
		}
		if n < len(cards) {
			cards = cards[:max(n, 0)]
		}
		views = make([]CardView, 0, len(cards))
		for _, card := range cards {
			views = append(views, cardView(card))
		}
		return nil
	})
	return views, err
}

func (b *QuestionBank) Stats(ctx context.Context) (CardStats, error) {
	var cards []db.QuestionCard
	err := b.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		cards, err = tx.AllCards()
		return err
	})
	if err != nil {
		return CardStats{}, err
	}

	stats := CardStats{
		Total: len(cards),
		Difficulties: map[string]int{
			db.DifficultyEasy:   0,
			db.DifficultyMedium: 0,
			db.DifficultyHard:   0,
		},
	}
	perCategory := make(map[string]int)
	var used []db.QuestionCard
	for _, card := range cards {
		if card.IsActive {
			stats.Active++
		}
		perCategory[card.Category]++
		stats.Difficulties[card.Difficulty]++
		stats.TotalUsage += card.UsageCount
		if card.UsageCount > 0 {
			used = append(used, card)
		}
	}
	for name, count := range perCategory {
		stats.Categories = append(stats.Categories, CategoryCount{Name: name, Count: count})
	}
	sort.Slice(stats.Categories, func(i, j int) bool {
		return stats.Categories[i].Name < stats.Categories[j].Name
	})
	sort.SliceStable(used, func(i, j int) bool {
		return used[i].UsageCount > used[j].UsageCount
	})
	if len(used) > 10 {
		used = used[:10]
	}
	for _, card := range used {
		stats.MostUsed = append(stats.MostUsed, cardView(card))
	}
	return stats, nil
}
