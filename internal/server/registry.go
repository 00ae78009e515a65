package server

import (
	rand "math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/buragame/burad/internal/game"
	"github.com/buragame/burad/internal/randutil"
	"github.com/buragame/burad/internal/roomid"
)

// RoomSummary is the lightweight lobby record for a room.
type RoomSummary struct {
	RoomID     string           `json:"room_id"`
	Name       string           `json:"name"`
	Variant    game.Variant     `json:"variant"`
	Players    int              `json:"players"`
	PlayersMax int              `json:"players_max"`
	Started    bool             `json:"started"`
	Config     game.TableConfig `json:"config"`
}

// Registry is the process-wide keyed store of rooms.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*game.Room
	logger  *log.Logger
	clock   quartz.Clock
	rng     *rand.Rand
	idGen   *roomid.Generator
	metrics *Metrics
}

// NewRegistry creates an empty registry. Each room receives its own rng
// derived from the registry's, so a seeded server is fully deterministic.
func NewRegistry(logger *log.Logger, clock quartz.Clock, rng *rand.Rand, metrics *Metrics) *Registry {
	return &Registry{
		rooms:   make(map[string]*game.Room),
		logger:  logger.WithPrefix("registry"),
		clock:   clock,
		rng:     rng,
		idGen:   roomid.NewGenerator(nil),
		metrics: metrics,
	}
}

// Create inserts a new room. An empty or unknown variant key yields a custom
// variant sized to the table config.
func (reg *Registry) Create(name, variantKey string, config game.TableConfig) *game.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if config.MaxPlayers == 0 {
		config = game.DefaultTableConfig()
	}
	variant, ok := game.VariantByKey(variantKey)
	if !ok {
		variant = game.CustomVariant(config.MaxPlayers)
	}

	id := reg.idGen.Generate()
	for reg.rooms[id] != nil {
		id = reg.idGen.Generate()
	}
	room := game.NewRoom(id, name, variant, config, reg.logger, reg.clock, randutil.New(reg.rng.Int64()))
	reg.rooms[id] = room
	reg.metrics.RoomCreated(len(reg.rooms))
	reg.logger.Info("room created", "room", id, "name", name, "variant", variant.Key)
	return room
}

// Get retrieves a room by id.
func (reg *Registry) Get(id string) (*game.Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[id]
	return room, ok
}

// Delete removes a room by id.
func (reg *Registry) Delete(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.rooms[id]; !ok {
		return
	}
	delete(reg.rooms, id)
	reg.metrics.RoomDeleted(len(reg.rooms))
	reg.logger.Info("room deleted", "room", id)
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// Summaries returns lobby records for every room.
func (reg *Registry) Summaries() []RoomSummary {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]RoomSummary, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		cfg := room.Config()
		out = append(out, RoomSummary{
			RoomID:     room.ID(),
			Name:       room.Name(),
			Variant:    room.Variant(),
			Players:    room.PlayerCount(),
			PlayersMax: cfg.MaxPlayers,
			Started:    room.Started(),
			Config:     cfg,
		})
	}
	return out
}
