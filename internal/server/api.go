package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/buragame/burad/internal/game"
	"github.com/buragame/burad/internal/store"
)

// identity is the caller as described by the gateway headers. The server
// trusts the reverse proxy to have authenticated the user.
type identity struct {
	ID     string
	Name   string
	Avatar string
}

func identityFrom(c *gin.Context) (identity, bool) {
	id := identity{
		ID:     c.GetHeader("X-User-Id"),
		Name:   c.GetHeader("X-User-Name"),
		Avatar: c.GetHeader("X-User-Avatar"),
	}
	if id.ID == "" {
		return identity{}, false
	}
	if id.Name == "" {
		id.Name = id.ID
	}
	return id, true
}

// tableConfigPayload uses pointers so absent fields fall back to defaults
// while explicit zero values are rejected by validation.
type tableConfigPayload struct {
	MaxPlayers        *int    `json:"maxPlayers"`
	DiscardVisibility *string `json:"discardVisibility"`
	EnableFourEnds    *bool   `json:"enableFourEnds"`
	TurnTimeoutSec    *int    `json:"turnTimeoutSec"`
}

func (p *tableConfigPayload) resolve() (game.TableConfig, error) {
	cfg := game.DefaultTableConfig()
	if p == nil {
		return cfg, nil
	}
	if p.MaxPlayers != nil {
		if *p.MaxPlayers < 2 || *p.MaxPlayers > 4 {
			return cfg, errors.New("maxPlayers must be between 2 and 4")
		}
		cfg.MaxPlayers = *p.MaxPlayers
	}
	if p.DiscardVisibility != nil {
		if *p.DiscardVisibility != game.DiscardOpen && *p.DiscardVisibility != game.DiscardFaceDown {
			return cfg, errors.New("discardVisibility must be open or faceDown")
		}
		cfg.DiscardVisibility = *p.DiscardVisibility
	}
	if p.EnableFourEnds != nil {
		cfg.EnableFourEnds = *p.EnableFourEnds
	}
	if p.TurnTimeoutSec != nil {
		if *p.TurnTimeoutSec < 5 || *p.TurnTimeoutSec > 300 {
			return cfg, errors.New("turnTimeoutSec must be between 5 and 300")
		}
		cfg.TurnTimeoutSec = *p.TurnTimeoutSec
	}
	return cfg, nil
}

type createRoomRequest struct {
	Name    string              `json:"name"`
	Variant string              `json:"variant"`
	Config  *tableConfigPayload `json:"config"`
}

type joinRoomRequest struct {
	RoomID string `json:"room_id"`
}

// API serves the REST facade in front of the websocket surface.
type API struct {
	registry *Registry
	hub      *Hub
	stats    *store.Store
}

// NewAPI wires the REST handlers. stats may be nil, which disables the
// leaderboard.
func NewAPI(registry *Registry, hub *Hub, stats *store.Store) *API {
	return &API{registry: registry, hub: hub, stats: stats}
}

// Register mounts the REST routes on the router.
func (a *API) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/variants", a.handleVariants)
	api.GET("/rooms", a.handleRooms)
	api.GET("/leaderboard", a.handleLeaderboard)

	g := api.Group("/game")
	g.POST("/create", a.handleCreate)
	g.POST("/join", a.handleJoin)
	g.POST("/start/:room_id", a.handleStart)
	g.GET("/state/:room_id", a.handleState)
}

func (a *API) handleVariants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"variants": game.Variants()})
}

func (a *API) handleRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": a.registry.Summaries()})
}

func (a *API) handleCreate(c *gin.Context) {
	user, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		req.Name = user.Name + "'s table"
	}

	cfg, err := req.Config.resolve()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if variant, ok := game.VariantByKey(req.Variant); ok {
		if req.Config == nil || req.Config.MaxPlayers == nil {
			cfg.MaxPlayers = variant.PlayersMax
		} else if cfg.MaxPlayers < variant.PlayersMin || cfg.MaxPlayers > variant.PlayersMax {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxPlayers outside variant bounds"})
			return
		}
	}

	room := a.registry.Create(req.Name, req.Variant, cfg)
	if err := room.AddPlayer(game.Player{ID: user.ID, Name: user.Name, AvatarURL: user.Avatar}); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	a.hub.BroadcastLobby()
	c.JSON(http.StatusOK, gin.H{
		"room_id": room.ID(),
		"state":   room.ToState(user.ID),
	})
}

func (a *API) handleJoin(c *gin.Context) {
	user, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_id required"})
		return
	}

	room, ok := a.registry.Get(req.RoomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if err := room.AddPlayer(game.Player{ID: user.ID, Name: user.Name, AvatarURL: user.Avatar}); err != nil {
		var kind game.RuleError
		if errors.As(err, &kind) {
			c.JSON(http.StatusConflict, gin.H{"error": string(kind)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	a.hub.BroadcastRoom(room)
	a.hub.BroadcastLobby()
	c.JSON(http.StatusOK, gin.H{
		"room_id": room.ID(),
		"state":   room.ToState(user.ID),
	})
}

func (a *API) handleStart(c *gin.Context) {
	user, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	room, ok := a.registry.Get(c.Param("room_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if err := room.Start(); err != nil {
		var kind game.RuleError
		if errors.As(err, &kind) {
			c.JSON(http.StatusConflict, gin.H{"error": string(kind)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	a.hub.BroadcastRoom(room)
	a.hub.BroadcastLobby()
	c.JSON(http.StatusOK, gin.H{"state": room.ToState(user.ID)})
}

func (a *API) handleState(c *gin.Context) {
	room, ok := a.registry.Get(c.Param("room_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	viewerID := c.Query("player_id")
	if viewerID == "" {
		if user, ok := identityFrom(c); ok {
			viewerID = user.ID
		}
	}

	c.JSON(http.StatusOK, room.ToState(viewerID))
}

func (a *API) handleLeaderboard(c *gin.Context) {
	if a.stats == nil {
		c.JSON(http.StatusOK, gin.H{"leaderboard": []store.LeaderboardRow{}})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	rows, err := a.stats.Leaderboard(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}
	if rows == nil {
		rows = []store.LeaderboardRow{}
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
}
