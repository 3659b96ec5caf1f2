package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const defaultSampleSize = 5

type addCardRequest struct {
	Text       string `json:"text" binding:"required,max=280"`
	Category   string `json:"category" binding:"max=64"`
	Difficulty string `json:"difficulty" binding:"difficulty"`
}

type toggleCardRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type sampleQuery struct {
	N int `form:"n" binding:"omitempty,min=1,max=50"`
}

var addCardMessages = bindMessages{
	"Text": {
		"required": "card text is required",
		"max":      "card text must be 280 characters or fewer",
	},
	"Category":   {"max": "category must be 64 characters or fewer"},
	"Difficulty": {"difficulty": "difficulty must be easy, medium or hard"},
}

var toggleCardMessages = bindMessages{
	"Active": {"required": "active is required"},
}

var sampleMessages = bindMessages{
	"N": {
		"min": "n must be between 1 and 50",
		"max": "n must be between 1 and 50",
	},
}

func (s *Server) handleListCards(c *gin.Context) {
	cards, err := s.svc.Cards.ListCards(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cardsJSON(cards)})
}

func (s *Server) handleSampleCards(c *gin.Context) {
	var query sampleQuery
	if !bindQuery(c, &query, sampleMessages, "invalid sample size") {
		return
	}
	if query.N == 0 {
		query.N = defaultSampleSize
	}
	cards, err := s.svc.Cards.Sample(c.Request.Context(), query.N)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cardsJSON(cards)})
}

func (s *Server) handleCardStats(c *gin.Context) {
	stats, err := s.svc.Cards.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cardStatsJSON(stats))
}

func (s *Server) handleAddCard(c *gin.Context) {
	var req addCardRequest
	if !bindJSON(c, &req, addCardMessages, "invalid card") {
		return
	}
	card, err := s.svc.Cards.AddCard(c.Request.Context(), req.Text, req.Category, req.Difficulty)
	if err != nil {
		writeError(c, err)
		return
	}
	s.log.Infow("card added", "card_id", card.ID, "subject", identity(c).Subject)
	c.JSON(http.StatusCreated, cardJSON(card))
}

func (s *Server) handleToggleCard(c *gin.Context) {
	var req toggleCardRequest
	if !bindJSON(c, &req, toggleCardMessages, "invalid toggle request") {
		return
	}
	card, err := s.svc.Cards.ToggleCard(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cardJSON(card))
}
