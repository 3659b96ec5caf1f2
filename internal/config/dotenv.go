package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads the files that exist among paths. Variables already in the
// environment win, then earlier files win over later ones.
func LoadDotEnv(paths ...string) error {
	var found []string
	for _, path := range paths {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			return err
		case info.IsDir():
			return fmt.Errorf("dotenv path %s is a directory", path)
		}
		found = append(found, path)
	}
	if len(found) == 0 {
		return nil
	}
	return godotenv.Load(found...)
}
