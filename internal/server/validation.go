package server

import (
	"strings"
	"sync"

	"czar-party/internal/db"
	"czar-party/internal/game"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("roomcode", func(fl validator.FieldLevel) bool {
			return game.ValidCode(normalizeCode(fl.Field().String()))
		})
		_ = engine.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
			value := strings.ToLower(strings.TrimSpace(fl.Field().String()))
			return value == "" || db.ValidDifficulty(value)
		})
	})
}

// normalizeCode strips surrounding whitespace only; codes are case-sensitive.
func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}
