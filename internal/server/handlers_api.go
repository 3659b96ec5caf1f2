package server

import (
	"net/http"

	"czar-party/internal/game"

	"github.com/gin-gonic/gin"
)

type createRoomRequest struct {
	Name                   string `json:"name"`
	MaxPlayers             *int   `json:"max_players"`
	RoundTimerSeconds      *int   `json:"round_timer_seconds"`
	TotalRounds            *int   `json:"total_rounds"`
	RegenerationsPerPlayer *int   `json:"regenerations_per_player"`
	IsPublic               bool   `json:"is_public"`
}

func (r createRoomRequest) settings() game.Settings {
	settings := game.DefaultSettings()
	settings.Name = r.Name
	settings.IsPublic = r.IsPublic
	if r.MaxPlayers != nil {
		settings.MaxPlayers = *r.MaxPlayers
	}
	if r.RoundTimerSeconds != nil {
		settings.RoundTimerSeconds = *r.RoundTimerSeconds
	}
	if r.TotalRounds != nil {
		settings.TotalRounds = *r.TotalRounds
	}
	if r.RegenerationsPerPlayer != nil {
		settings.RegenerationsPerPlayer = *r.RegenerationsPerPlayer
	}
	return settings
}

type joinRoomRequest struct {
	Code     string `json:"code" binding:"required,roomcode"`
	Nickname string `json:"nickname"`
}

type submitPromptRequest struct {
	Text string `json:"text"`
}

type voteRequest struct {
	WinnerID string `json:"winner_id" binding:"required"`
}

var joinMessages = bindMessages{
	"Code": {
		"required": "room code is required",
		"roomcode": "room code must be 6 uppercase letters",
	},
}

var voteMessages = bindMessages{
	"WinnerID": {"required": "winner_id is required"},
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if !bindOptionalJSON(c, &req, nil, "invalid room settings") {
		return
	}
	result, err := s.svc.CreateRoom(c.Request.Context(), identity(c), req.settings())
	if err != nil {
		writeError(c, err)
		return
	}
	s.log.Infow("room created", "room_id", result.RoomID, "code", result.Code)
	c.JSON(http.StatusCreated, gin.H{
		"room_id":   result.RoomID,
		"code":      result.Code,
		"player_id": result.PlayerID,
	})
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if !bindJSON(c, &req, joinMessages, "invalid join request") {
		return
	}
	result, err := s.svc.JoinRoom(c.Request.Context(), identity(c), normalizeCode(req.Code), req.Nickname)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room_id":   result.RoomID,
		"player_id": result.PlayerID,
		"rejoined":  result.Rejoined,
	})
}

func (s *Server) handleLeaveRoom(c *gin.Context) {
	result, err := s.svc.LeaveRoom(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_deleted": result.RoomDeleted})
}

func (s *Server) handleListPublicRooms(c *gin.Context) {
	rooms, err := s.svc.ListPublicRooms(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": roomsJSON(rooms)})
}

func (s *Server) handleRoomByCode(c *gin.Context) {
	code := normalizeCode(c.Param("code"))
	if !game.ValidCode(code) {
		writeError(c, game.ErrRoomNotFound)
		return
	}
	summary, err := s.svc.RoomByCode(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room":    roomJSON(summary.Room),
		"players": playersJSON(summary.Players),
	})
}

func (s *Server) handleRoomState(c *gin.Context) {
	state, err := s.svc.RoomState(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, roomStateJSON(state))
}

func (s *Server) handleStartGame(c *gin.Context) {
	result, err := s.svc.StartGame(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	s.log.Infow("game started", "room_id", c.Param("id"), "round_id", result.RoundID)
	c.JSON(http.StatusOK, gin.H{
		"round_id":     result.RoundID,
		"round_number": result.RoundNumber,
	})
}

func (s *Server) handleRoomEvents(c *gin.Context) {
	events, err := s.svc.Events(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": eventsJSON(events)})
}

func (s *Server) handleRoomStats(c *gin.Context) {
	stats, err := s.svc.StatsForRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statsJSON(stats))
}

func (s *Server) handleRoundState(c *gin.Context) {
	round, err := s.svc.RoundState(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, roundJSON(round))
}

func (s *Server) handleSubmitPrompt(c *gin.Context) {
	var req submitPromptRequest
	if !bindJSON(c, &req, nil, "invalid prompt request") {
		return
	}
	result, err := s.svc.SubmitPrompt(c.Request.Context(), identity(c), c.Param("id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"prompt_id":     result.PromptID,
		"all_submitted": result.AllSubmitted,
	})
}

func (s *Server) handleAdvanceRound(c *gin.Context) {
	result, err := s.svc.AdvanceRound(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": result.State})
}

func (s *Server) handleCloseRound(c *gin.Context) {
	result, err := s.svc.CloseExpiredPrompting(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": result.State})
}

func (s *Server) handleVote(c *gin.Context) {
	var req voteRequest
	if !bindJSON(c, &req, voteMessages, "invalid vote request") {
		return
	}
	result, err := s.svc.SubmitVote(c.Request.Context(), identity(c), c.Param("id"), req.WinnerID)
	if err != nil {
		writeError(c, err)
		return
	}
	body := gin.H{
		"winner_id":  result.WinnerID,
		"game_over":  result.GameOver,
		"next_round": nil,
	}
	if result.NextRoundID != "" {
		body["next_round"] = gin.H{"id": result.NextRoundID, "round_number": result.NextRoundNumber}
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleRoundImages(c *gin.Context) {
	images, err := s.svc.ImagesForRound(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": imagesJSON(images)})
}

func (s *Server) handleRegenerate(c *gin.Context) {
	image, err := s.svc.RegenerateImage(c.Request.Context(), identity(c), c.Param("id"), c.Param("promptId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, imageJSON(image))
}
