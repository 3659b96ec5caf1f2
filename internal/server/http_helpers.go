package server

import (
	"errors"
	"net/http"

	"czar-party/internal/game"

	"github.com/gin-gonic/gin"
)

func statusFor(kind game.Kind) int {
	switch kind {
	case game.KindAuth:
		return http.StatusUnauthorized
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindAuthorization:
		return http.StatusForbidden
	case game.KindStateConflict:
		return http.StatusConflict
	case game.KindValidation:
		return http.StatusBadRequest
	case game.KindResourceExhaustion:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	var gameErr *game.Error
	if errors.As(err, &gameErr) {
		c.JSON(statusFor(gameErr.Kind), gin.H{"error": gameErr.Message, "code": gameErr.Code})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
}

func writeBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": "invalid_request"})
}
