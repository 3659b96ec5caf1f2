package game

import (
	"context"
	"testing"

	"czar-party/internal/db"
	"czar-party/internal/store"
)

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.Cards.Seed(ctx, db.SeedCards)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if res.Inserted != 0 || res.Existing != int64(len(db.SeedCards)) {
		t.Fatalf("expected second seed to be skipped, got %#v", res)
	}
}

func TestAddCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	card, err := f.svc.Cards.AddCard(ctx, "  A yeti selling ice cream  ", "", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if card.Text != "A yeti selling ice cream" || card.Category != "custom" || card.Difficulty != db.DifficultyMedium || !card.IsActive {
		t.Fatalf("unexpected card: %#v", card)
	}

	cases := []struct {
		name       string
		text       string
		difficulty string
	}{
		{name: "empty", text: " ", difficulty: "easy"},
		{name: "bad difficulty", text: "A cloud", difficulty: "brutal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Cards.AddCard(ctx, tc.text, "misc", tc.difficulty)
			expectErr(t, err, ErrInvalidCard)
		})
	}
}

func TestImportSkipsExisting(t *testing.T) {
	f := newFixture(t)
	records := []db.CardRecord{
		db.SeedCards[0],
		{Text: "A snowman at a sauna", Category: "weather", Difficulty: db.DifficultyHard},
	}
	inserted, err := f.svc.Cards.Import(context.Background(), records)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("expected only the new card inserted, got %d", inserted)
	}
}

func TestToggleCardExcludesFromDraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cards, err := f.svc.Cards.ListCards(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	keep := cards[len(cards)-1]
	for _, card := range cards[:len(cards)-1] {
		if _, err := f.svc.Cards.ToggleCard(ctx, card.ID, false); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}
	for i := 0; i < 5; i++ {
		err := f.store.WithinTx(ctx, func(tx store.Tx) error {
			card, err := f.svc.Cards.draw(tx)
			if err != nil {
				return err
			}
			if card.ID != keep.ID {
				t.Errorf("drew inactive card %s", card.Text)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
	}
	stats, err := f.svc.Cards.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Active != 1 || stats.TotalUsage != 5 || len(stats.MostUsed) != 1 || stats.MostUsed[0].UsageCount != 5 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	_, err = f.svc.Cards.ToggleCard(ctx, "missing", true)
	expectErr(t, err, ErrCardNotFound)
}

func TestCardStats(t *testing.T) {
	f := newFixture(t)
	stats, err := f.svc.Cards.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != len(db.SeedCards) || stats.Active != stats.Total {
		t.Fatalf("unexpected totals: %#v", stats)
	}
	sum := 0
	for _, count := range stats.Difficulties {
		sum += count
	}
	if sum != stats.Total {
		t.Fatalf("difficulty counts do not add up: %v", stats.Difficulties)
	}
	for i := 1; i < len(stats.Categories); i++ {
		if stats.Categories[i-1].Name >= stats.Categories[i].Name {
			t.Fatalf("categories not sorted: %v", stats.Categories)
		}
	}
	if len(stats.MostUsed) != 0 || stats.TotalUsage != 0 {
		t.Fatalf("fresh catalog should have no usage")
	}
}

func TestSampleDoesNotCountUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cards, err := f.svc.Cards.Sample(ctx, 5)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(cards) != 5 {
		t.Fatalf("expected 5 cards, got %d", len(cards))
	}
	seen := make(map[string]bool)
	for _, card := range cards {
		if seen[card.ID] {
			t.Fatalf("sample repeated a card")
		}
		seen[card.ID] = true
	}
	all, err := f.svc.Cards.Sample(ctx, 100)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(all) != len(db.SeedCards) {
		t.Fatalf("expected the whole active catalog, got %d", len(all))
	}
	stats, err := f.svc.Cards.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsage != 0 {
		t.Fatalf("sampling must not count usage")
	}
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{ErrUnauthenticated, KindAuth},
		{ErrRoomNotFound, KindNotFound},
		{ErrNotCardCzar, KindAuthorization},
		{ErrRoomFull, KindStateConflict},
		{ErrInvalidWinner, KindValidation},
		{ErrRegenLimit, KindResourceExhaustion},
		{ErrWrongPhase.withMessage("other message"), KindStateConflict},
		{context.Canceled, KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.kind {
			t.Fatalf("%v: expected %s, got %s", tc.err, tc.kind, got)
		}
	}
}
