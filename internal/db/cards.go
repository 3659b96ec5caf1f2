package db

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

type CardRecord struct {
	Text       string
	Category   string
	Difficulty string
}

// SeedCards is the reference deck inserted on first boot.
var SeedCards = []CardRecord{
	{Text: "A cat wearing a business suit at an important meeting", Category: "animals", Difficulty: DifficultyEasy},
	{Text: "A dinosaur trying to use a smartphone", Category: "animals", Difficulty: DifficultyEasy},
	{Text: "A penguin hosting a cooking show", Category: "animals", Difficulty: DifficultyEasy},
	{Text: "A robot having trouble with technology", Category: "technology", Difficulty: DifficultyEasy},
	{Text: "A superhero whose only power is making excellent sandwiches", Category: "characters", Difficulty: DifficultyEasy},
	{Text: "A pirate ship sailing through space", Category: "adventure", Difficulty: DifficultyEasy},
	{Text: "A medieval knight at a modern coffee shop", Category: "characters", Difficulty: DifficultyEasy},
	{Text: "A dragon trying to order pizza online", Category: "animals", Difficulty: DifficultyEasy},
	{Text: "An astronaut gardening on Mars", Category: "space", Difficulty: DifficultyEasy},
	{Text: "A vampire at the beach wearing sunscreen", Category: "characters", Difficulty: DifficultyEasy},
	{Text: "The world's most boring superhero saving the day", Category: "characters", Difficulty: DifficultyMedium},
	{Text: "A library where the books are trying to escape", Category: "fantasy", Difficulty: DifficultyMedium},
	{Text: "A cooking competition between robots and aliens", Category: "technology", Difficulty: DifficultyMedium},
	{Text: "An office where everyone is a different mythical creature", Category: "fantasy", Difficulty: DifficultyMedium},
	{Text: "A weather forecast delivered by actual weather phenomena", Category: "nature", Difficulty: DifficultyMedium},
	{Text: "A gym where the equipment has gone rogue", Category: "technology", Difficulty: DifficultyMedium},
	{Text: "A detective story where the criminal is gravity", Category: "mystery", Difficulty: DifficultyMedium},
	{Text: "A school where the subjects teach themselves", Category: "education", Difficulty: DifficultyMedium},
	{Text: "A restaurant where the food reviews you", Category: "food", Difficulty: DifficultyMedium},
	{Text: "A traffic jam in a world where cars are alive", Category: "technology", Difficulty: DifficultyMedium},
	{Text: "Scissors in couples therapy with rock and paper", Category: "objects", Difficulty: DifficultyHard},
	{Text: "A mirror having a bad reflection day", Category: "objects", Difficulty: DifficultyHard},
}

func ValidDifficulty(value string) bool {
	switch value {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// ReadCardsCSV reads "category,difficulty,text" rows, skipping the header row.
// Rows with a single column are treated as text-only custom cards.
func ReadCardsCSV(path string) ([]CardRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []CardRecord
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		record := CardRecord{Category: "custom", Difficulty: DifficultyMedium}
		switch len(row) {
		case 1:
			record.Text = strings.TrimSpace(row[0])
		case 2:
			record.Category = strings.TrimSpace(row[0])
			record.Text = strings.TrimSpace(row[1])
		default:
			record.Category = strings.TrimSpace(row[0])
			record.Difficulty = strings.ToLower(strings.TrimSpace(row[1]))
			record.Text = strings.TrimSpace(row[2])
		}
		if record.Text == "" {
			continue
		}
		if record.Category == "" {
			record.Category = "custom"
		}
		if !ValidDifficulty(record.Difficulty) {
			return nil, fmt.Errorf("line %d: unknown difficulty %q", i+1, record.Difficulty)
		}
		records = append(records, record)
	}
	return records, nil
}
