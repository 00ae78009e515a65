package game

import (
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/buragame/burad/internal/deck"
	"github.com/buragame/burad/internal/roomid"
)

// RevealDelay is how long a closed trick stays visible on the board before
// the next turn or round begins. No intents are accepted during the window.
const RevealDelay = 5 * time.Second

// Player is a seated participant.
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	Seat         int    `json:"seat"`
	Disconnected bool   `json:"disconnected"`
}

// Announcement records a declared combination.
type Announcement struct {
	PlayerID string      `json:"player_id"`
	Combo    string      `json:"combo"`
	Cards    []deck.Card `json:"cards"`
}

// PlayOpts carries the optional round/trick guards a client may attach to a
// play intent to protect against acting on stale state.
type PlayOpts struct {
	RoundID    string
	TrickIndex *int
}

// MatchParticipant is one player's final line in a completed match.
type MatchParticipant struct {
	PlayerID string
	Name     string
	Score    int
	GameWins int
}

// MatchResult is handed to the persistence sink exactly once per match.
type MatchResult struct {
	MatchID      string
	RoomID       string
	VariantKey   string
	WinnerID     string
	Winners      []string
	Losers       []string
	TotalRounds  int
	Participants []MatchParticipant
}

// Room is a per-table game engine. Every exported method acquires the room
// mutex; the engine itself never blocks, so operations are atomic with
// respect to each other and to snapshot projection.
type Room struct {
	mu     sync.Mutex
	clock  quartz.Clock
	rng    *rand.Rand
	logger *log.Logger

	id      string
	name    string
	variant Variant
	config  TableConfig

	players []Player
	started bool

	deckCards     []deck.Card
	catalog       map[string]deck.Card
	trump         deck.Suit
	trumpCard     *deck.Card
	hands         map[string][]deck.Card
	taken         map[string][]deck.Card
	discardPile   []deck.Card
	announcements []Announcement
	declared      map[string]map[string]bool

	turnIdx           int
	turnDeadline      time.Time
	currentTrick      *Trick
	lastTrickWinnerID string
	dealerIdx         int

	roundNumber       int
	roundID           string
	roundActive       bool
	roundSummary      map[string]int
	trickIndex        int
	revealSnapshot    *Trick
	revealUntil       time.Time
	pendingTurnResume bool
	pendingRoundStart bool

	winnerID  string
	matchOver bool
	winners   []string
	losers    []string

	scores   map[string]int
	gameWins map[string]int

	matchResult *MatchResult
}

// NewRoom creates an empty room. The clock drives turn deadlines and reveal
// windows; the rng drives shuffles and the dealer pick.
func NewRoom(id, name string, variant Variant, config TableConfig, logger *log.Logger, clock quartz.Clock, rng *rand.Rand) *Room {
	if config.MaxPlayers == 0 {
		config.MaxPlayers = DefaultTableConfig().MaxPlayers
	}
	if config.DiscardVisibility == "" {
		config.DiscardVisibility = DefaultTableConfig().DiscardVisibility
	}
	if config.TurnTimeoutSec == 0 {
		config.TurnTimeoutSec = DefaultTableConfig().TurnTimeoutSec
	}
	return &Room{
		clock:    clock,
		rng:      rng,
		logger:   logger.WithPrefix("room").With("room", id),
		id:       id,
		name:     name,
		variant:  variant,
		config:   config,
		catalog:  make(map[string]deck.Card),
		hands:    make(map[string][]deck.Card),
		taken:    make(map[string][]deck.Card),
		declared: make(map[string]map[string]bool),
		scores:   make(map[string]int),
		gameWins: make(map[string]int),
	}
}

// ID returns the room id.
func (r *Room) ID() string { return r.id }

// Name returns the room name.
func (r *Room) Name() string { return r.name }

// Variant returns the room variant.
func (r *Room) Variant() Variant { return r.variant }

// Config returns the table configuration.
func (r *Room) Config() TableConfig { return r.config }

// Started reports whether the match has started.
func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// PlayerCount returns the current roster size.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Players returns a copy of the roster.
func (r *Room) Players() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Player, len(r.players))
	copy(out, r.players)
	return out
}

// AddPlayer seats a player. Idempotent on an already seated id.
func (r *Room) AddPlayer(p Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrGameAlreadyStarted
	}
	for _, existing := range r.players {
		if existing.ID == p.ID {
			return nil
		}
	}
	if len(r.players) >= r.config.MaxPlayers {
		return ErrRoomFull
	}
	p.Seat = len(r.players)
	r.players = append(r.players, p)
	if _, ok := r.hands[p.ID]; !ok {
		r.hands[p.ID] = nil
	}
	if _, ok := r.scores[p.ID]; !ok {
		r.scores[p.ID] = 0
	}
	if _, ok := r.gameWins[p.ID]; !ok {
		r.gameWins[p.ID] = 0
	}
	r.logger.Info("player joined", "player", p.ID, "seat", p.Seat)
	return nil
}

// RemovePlayer drops a player from the roster and all per-player state.
// Removing a non-member is a no-op.
func (r *Room) RemovePlayer(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.players[:0]
	for _, p := range r.players {
		if p.ID != playerID {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(r.players) {
		return
	}
	r.players = kept
	delete(r.hands, playerID)
	delete(r.taken, playerID)
	delete(r.scores, playerID)
	delete(r.declared, playerID)
	delete(r.gameWins, playerID)
	if len(r.players) > 0 {
		r.turnIdx %= len(r.players)
	} else {
		r.started = false
		r.roundActive = false
	}
	r.logger.Info("player removed", "player", playerID, "remaining", len(r.players))
}

// SetDisconnected flags a seated player as disconnected or back. Peers see
// the flag in snapshots while the grace window runs.
func (r *Room) SetDisconnected(playerID string, disconnected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.players {
		if r.players[i].ID == playerID {
			r.players[i].Disconnected = disconnected
			return
		}
	}
}

// Start freezes the roster, picks a random dealer and deals the first round.
// Starting an already started room is a no-op.
func (r *Room) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	minPlayers := r.variant.PlayersMin
	if minPlayers > r.config.MaxPlayers {
		minPlayers = r.config.MaxPlayers
	}
	if minPlayers < 2 {
		minPlayers = 2
	}
	if len(r.players) < minPlayers {
		return ErrNotEnoughPlayers
	}
	r.started = true
	r.matchOver = false
	r.matchResult = nil
	r.roundSummary = map[string]int{}
	r.winners = nil
	r.losers = nil
	r.turnDeadline = time.Time{}
	r.lastTrickWinnerID = ""
	r.dealerIdx = r.rng.IntN(len(r.players))
	r.roundNumber = 0
	r.gameWins = make(map[string]int, len(r.players))
	for _, p := range r.players {
		r.gameWins[p.ID] = 0
	}
	r.startNewRound(true)
	r.logger.Info("match started", "players", len(r.players), "dealer", r.dealerIdx)
	return nil
}

// startNewRound deals a fresh shuffled deck. Callers hold the lock.
func (r *Room) startNewRound(initial bool) {
	if len(r.players) == 0 {
		return
	}
	r.roundNumber++
	r.roundID = fmt.Sprintf("r_%d", r.roundNumber)
	r.roundActive = true

	base := deck.NewDeck()
	r.catalog = make(map[string]deck.Card, len(base))
	for _, card := range base {
		r.catalog[card.ID] = card
	}
	r.deckCards = make([]deck.Card, len(base))
	copy(r.deckCards, base)
	deck.Shuffle(r.deckCards, r.rng)

	// The bottom card of the deck sets trump and is drawn last.
	if len(r.deckCards) > 0 {
		last := r.deckCards[len(r.deckCards)-1]
		r.trumpCard = &last
		r.trump = last.Suit
	}

	r.discardPile = nil
	r.announcements = nil
	r.declared = make(map[string]map[string]bool, len(r.players))
	r.taken = make(map[string][]deck.Card, len(r.players))
	r.hands = make(map[string][]deck.Card, len(r.players))
	for _, p := range r.players {
		r.declared[p.ID] = make(map[string]bool)
		r.taken[p.ID] = nil
		r.hands[p.ID] = nil
	}
	r.currentTrick = nil
	r.trickIndex = 0
	r.revealSnapshot = nil
	r.revealUntil = time.Time{}
	r.pendingTurnResume = false
	r.pendingRoundStart = false

	// One card at a time across seats, four passes.
	for pass := 0; pass < 4; pass++ {
		for _, p := range r.players {
			if len(r.deckCards) == 0 {
				break
			}
			r.hands[p.ID] = append(r.hands[p.ID], r.deckCards[0])
			r.deckCards = r.deckCards[1:]
		}
	}

	if initial || r.lastTrickWinnerID == "" {
		r.turnIdx = (r.dealerIdx + 1) % len(r.players)
	} else {
		r.turnIdx = r.playerIndex(r.lastTrickWinnerID)
	}
	r.refreshDeadline()
	r.logger.Debug("round started", "round", r.roundID, "trump", r.trump)
}

func (r *Room) playerIndex(playerID string) int {
	for idx, p := range r.players {
		if p.ID == playerID {
			return idx
		}
	}
	return -1
}

func (r *Room) playerSeat(playerID string) int {
	for _, p := range r.players {
		if p.ID == playerID {
			return p.Seat
		}
	}
	return 0
}

func (r *Room) currentPlayerID() string {
	if len(r.players) == 0 {
		return ""
	}
	return r.players[r.turnIdx].ID
}

func (r *Room) refreshDeadline() {
	if !r.roundActive {
		r.turnDeadline = time.Time{}
		return
	}
	if r.config.TurnTimeoutSec <= 0 {
		r.turnDeadline = time.Time{}
		return
	}
	r.turnDeadline = r.clock.Now().Add(time.Duration(r.config.TurnTimeoutSec) * time.Second)
}

// checkTimeout charges the current player a 6-point penalty and ends the
// round if the turn deadline has elapsed. Callers hold the lock.
func (r *Room) checkTimeout() {
	if !r.roundActive || r.turnDeadline.IsZero() {
		return
	}
	if !r.clock.Now().After(r.turnDeadline) {
		return
	}
	offender := r.currentPlayerID()
	if offender == "" {
		return
	}
	penalties := make(map[string]int, len(r.players))
	r.roundSummary = make(map[string]int, len(r.players))
	for _, p := range r.players {
		penalties[p.ID] = 0
		r.roundSummary[p.ID] = 0
	}
	penalties[offender] = 6
	r.logger.Info("turn timed out", "player", offender, "round", r.roundID)
	r.finalizeRound(penalties, nil)
	// No trick to show, so there is no reveal window to wait for.
	if r.pendingRoundStart && r.revealUntil.IsZero() {
		r.pendingRoundStart = false
		r.startNewRound(false)
	}
}

// checkReveal clears an elapsed reveal window and resumes play: either the
// next round starts or the turn deadline is refreshed. Callers hold the lock.
func (r *Room) checkReveal() {
	if r.revealUntil.IsZero() {
		return
	}
	if r.clock.Now().Before(r.revealUntil) {
		return
	}
	r.revealUntil = time.Time{}
	r.revealSnapshot = nil
	if r.pendingRoundStart && !r.matchOver {
		r.pendingRoundStart = false
		r.startNewRound(false)
		return
	}
	if r.pendingTurnResume && r.roundActive {
		r.pendingTurnResume = false
		r.refreshDeadline()
	}
}

// DeclareCombination registers an opening-of-round declaration. Valid only
// before the first trick and once per combo per player per round.
func (r *Room) DeclareCombination(playerID, comboKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkTimeout()
	r.checkReveal()
	if !r.roundActive {
		return ErrRoundNotActive
	}
	if r.trickIndex > 0 || r.currentTrick != nil {
		return ErrTrickAlreadyStarted
	}
	switch comboKey {
	case "bura", "molodka", "moscow", "four_ends":
	default:
		return ErrUnknownCombination
	}
	if comboKey == "four_ends" && !r.config.EnableFourEnds {
		return ErrCombinationNotEnabled
	}
	declared := r.declared[playerID]
	if declared == nil {
		declared = make(map[string]bool)
		r.declared[playerID] = declared
	}
	if declared[comboKey] {
		return ErrCombinationAlreadyDeclared
	}
	cards := r.findCombinationCards(playerID, comboKey)
	if len(cards) == 0 {
		return ErrCombinationCardsMissing
	}
	r.announcements = append(r.announcements, Announcement{PlayerID: playerID, Combo: comboKey, Cards: cards})
	declared[comboKey] = true
	r.logger.Info("combination declared", "player", playerID, "combo", comboKey)
	return nil
}

func (r *Room) findCombinationCards(playerID, comboKey string) []deck.Card {
	hand := r.hands[playerID]
	if len(hand) == 0 {
		return nil
	}
	switch comboKey {
	case "bura":
		if r.trump == "" {
			return nil
		}
		var trumps []deck.Card
		for _, card := range hand {
			if card.Suit == r.trump {
				trumps = append(trumps, card)
			}
		}
		if len(trumps) >= 4 {
			return trumps[:4]
		}
	case "molodka":
		for _, suit := range deck.Suits {
			if suit == r.trump {
				continue
			}
			var sameSuit []deck.Card
			for _, card := range hand {
				if card.Suit == suit {
					sameSuit = append(sameSuit, card)
				}
			}
			if len(sameSuit) >= 4 {
				return sameSuit[:4]
			}
		}
	case "moscow":
		var aces []deck.Card
		hasTrumpAce := false
		for _, card := range hand {
			if card.Rank == deck.Ace {
				aces = append(aces, card)
				if card.Suit == r.trump {
					hasTrumpAce = true
				}
			}
		}
		if len(aces) >= 3 && hasTrumpAce {
			return aces[:3]
		}
	case "four_ends":
		var tens, aces []deck.Card
		for _, card := range hand {
			switch card.Rank {
			case deck.Ten:
				tens = append(tens, card)
			case deck.Ace:
				aces = append(aces, card)
			}
		}
		if len(tens) == 4 {
			return tens
		}
		if len(aces) == 4 {
			return aces
		}
	}
	return nil
}

// isValidFourCardThrow reports whether a 4-card lead is legal: all one suit,
// four aces, four tens, or a mix of only aces and tens with at least one of
// each.
func isValidFourCardThrow(cards []deck.Card) bool {
	if len(cards) != 4 {
		return false
	}
	sameSuit := true
	for _, card := range cards[1:] {
		if card.Suit != cards[0].Suit {
			sameSuit = false
			break
		}
	}
	if sameSuit {
		return true
	}
	tens, aces := 0, 0
	for _, card := range cards {
		switch card.Rank {
		case deck.Ten:
			tens++
		case deck.Ace:
			aces++
		default:
			return false
		}
	}
	if tens == 4 || aces == 4 {
		return true
	}
	return tens > 0 && aces > 0 && tens+aces == 4
}

// RequestEarlyTurn lets a non-current player seize the lead between tricks
// when holding exactly four cards of the named suit with at least one ace
// and at least three aces or tens combined. Returns the qualifying cards.
func (r *Room) RequestEarlyTurn(playerID string, suit deck.Suit, roundID string) ([]deck.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkTimeout()
	r.checkReveal()
	if !r.revealUntil.IsZero() {
		return nil, ErrAwaitReveal
	}
	if !r.started || !r.roundActive {
		return nil, ErrRoundNotActive
	}
	if roundID != "" && r.roundID != "" && roundID != r.roundID {
		return nil, ErrRoundMismatch
	}
	if playerID == r.currentPlayerID() {
		return nil, ErrNotYourTurn
	}
	if r.currentTrick != nil {
		return nil, ErrTrickAlreadyStarted
	}
	if !suit.Valid() {
		return nil, ErrEarlyTurnInsufficientCards
	}
	hand := r.hands[playerID]
	if len(hand) == 0 {
		return nil, ErrEarlyTurnInsufficientCards
	}
	var sameSuit []deck.Card
	for _, card := range hand {
		if card.Suit == suit {
			sameSuit = append(sameSuit, card)
		}
	}
	if len(sameSuit) != 4 {
		return nil, ErrEarlyTurnInsufficientCards
	}
	aces, high := 0, 0
	for _, card := range sameSuit {
		if card.Rank == deck.Ace {
			aces++
		}
		if card.Rank == deck.Ace || card.Rank == deck.Ten {
			high++
		}
	}
	if aces < 1 {
		return nil, ErrEarlyTurnRequiresAce
	}
	if high < 3 {
		return nil, ErrEarlyTurnRequiresThreeHighCards
	}
	r.turnIdx = r.playerIndex(playerID)
	r.refreshDeadline()
	r.logger.Info("early turn granted", "player", playerID, "suit", suit)
	return sameSuit, nil
}

// PlayCards applies a lead or a follow for the current player.
func (r *Room) PlayCards(playerID string, cards []deck.Card, opts PlayOpts) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkTimeout()
	r.checkReveal()
	if !r.revealUntil.IsZero() {
		return ErrAwaitReveal
	}
	if !r.started || !r.roundActive {
		return ErrRoundNotActive
	}
	if playerID != r.currentPlayerID() {
		return ErrNotYourTurn
	}
	if opts.RoundID != "" && r.roundID != "" && opts.RoundID != r.roundID {
		return ErrRoundMismatch
	}
	if len(cards) == 0 {
		return ErrMustMatchRequiredCount
	}

	hand := r.hands[playerID]
	// Multiset containment: repeats in the payload need repeats in the hand.
	remaining := make([]deck.Card, len(hand))
	copy(remaining, hand)
	resolved := make([]deck.Card, 0, len(cards))
	for _, card := range cards {
		found := -1
		for i, owned := range remaining {
			if owned.Same(card) {
				found = i
				break
			}
		}
		if found < 0 {
			return ErrCardNotInHand
		}
		resolved = append(resolved, remaining[found])
		remaining = append(remaining[:found], remaining[found+1:]...)
	}
	cards = resolved

	seat := r.playerSeat(playerID)

	if r.currentTrick == nil {
		if len(cards) == 4 {
			if !isValidFourCardThrow(cards) {
				return ErrInvalidFourCardThrow
			}
		} else {
			for _, card := range cards[1:] {
				if card.Suit != cards[0].Suit {
					return ErrLeaderSuitMismatch
				}
			}
		}
		minAvailable := -1
		for _, p := range r.players {
			if p.ID == playerID {
				continue
			}
			if n := len(r.hands[p.ID]); minAvailable < 0 || n < minAvailable {
				minAvailable = n
			}
		}
		if minAvailable >= 0 && len(cards) > minAvailable {
			return ErrOpponentsTooShort
		}
		r.trickIndex++
		trick := &Trick{
			LeaderID:      playerID,
			LeaderSeat:    seat,
			RequiredCount: len(cards),
			OwnerID:       playerID,
			OwnerSeat:     seat,
			OwnerCards:    cards,
			TrickIndex:    r.trickIndex,
		}
		trick.Plays = append(trick.Plays, TrickPlay{
			PlayerID: playerID,
			Seat:     seat,
			Cards:    cards,
			Outcome:  OutcomeLead,
			Owner:    true,
		})
		r.currentTrick = trick
	} else {
		trick := r.currentTrick
		if opts.TrickIndex != nil && *opts.TrickIndex != trick.TrickIndex {
			return ErrTrickMismatch
		}
		if len(cards) != trick.RequiredCount {
			return ErrMustMatchRequiredCount
		}
		beatCount := MaxBeatCount(cards, trick.OwnerCards, r.trump)
		var outcome Outcome
		ownerFlag := false
		switch {
		case beatCount == trick.RequiredCount:
			outcome = OutcomeBeat
			for i := range trick.Plays {
				trick.Plays[i].Owner = false
			}
			trick.OwnerID = playerID
			trick.OwnerSeat = seat
			trick.OwnerCards = cards
			ownerFlag = true
		case beatCount > 0:
			outcome = OutcomePartial
		default:
			outcome = OutcomeDiscard
		}
		trick.Plays = append(trick.Plays, TrickPlay{
			PlayerID: playerID,
			Seat:     seat,
			Cards:    cards,
			Outcome:  outcome,
			Owner:    ownerFlag,
		})
	}

	r.hands[playerID] = remaining
	r.turnIdx = (r.turnIdx + 1) % len(r.players)

	if r.currentTrick != nil && len(r.currentTrick.Plays) == len(r.players) {
		r.completeTrick()
	} else {
		r.refreshDeadline()
	}
	return nil
}

// completeTrick moves all played cards to the winner, opens the reveal
// window, draws hands back up and finishes the round when nothing is left.
// Callers hold the lock.
func (r *Room) completeTrick() {
	trick := r.currentTrick
	if trick == nil {
		return
	}
	winnerID := trick.OwnerID
	var won []deck.Card
	for _, play := range trick.Plays {
		won = append(won, play.Cards...)
	}
	r.taken[winnerID] = append(r.taken[winnerID], won...)
	r.discardPile = append(r.discardPile, won...)
	r.lastTrickWinnerID = winnerID
	r.revealSnapshot = trick
	r.revealUntil = r.clock.Now().Add(RevealDelay)
	r.currentTrick = nil
	r.turnIdx = r.playerIndex(winnerID)
	r.drawUp(winnerID)
	r.turnDeadline = time.Time{}
	r.logger.Debug("trick complete", "winner", winnerID, "trick", trick.TrickIndex, "cards", len(won))
	if r.roundFinished() {
		points := r.calculateRoundResult()
		r.roundSummary = points
		penalties, leaders := r.calculatePenalties(points)
		r.finalizeRound(penalties, leaders)
	} else {
		r.pendingTurnResume = true
	}
}

// drawUp refills hands to 4 from the deck in seat order starting at the
// winner, one card per pass. The trump card at the bottom is drawn last.
// Callers hold the lock.
func (r *Room) drawUp(winnerID string) {
	if len(r.deckCards) == 0 {
		return
	}
	start := r.playerIndex(winnerID)
	total := len(r.players)
	for len(r.deckCards) > 0 {
		drewAny := false
		for offset := 0; offset < total; offset++ {
			if len(r.deckCards) == 0 {
				break
			}
			pid := r.players[(start+offset)%total].ID
			if len(r.hands[pid]) >= 4 {
				continue
			}
			r.hands[pid] = append(r.hands[pid], r.deckCards[0])
			r.deckCards = r.deckCards[1:]
			drewAny = true
		}
		if !drewAny {
			break
		}
	}
}

func (r *Room) roundFinished() bool {
	for _, hand := range r.hands {
		if len(hand) > 0 {
			return false
		}
	}
	return len(r.deckCards) == 0
}

func (r *Room) calculateRoundResult() map[string]int {
	points := make(map[string]int, len(r.taken))
	for pid, cards := range r.taken {
		total := 0
		for _, card := range cards {
			total += card.Rank.Points()
		}
		points[pid] = total
	}
	return points
}

// calculatePenalties applies the penalty table: leaders take 0, exactly 31
// points takes 2, zero points takes 6, everyone else takes 4.
func (r *Room) calculatePenalties(points map[string]int) (map[string]int, []string) {
	penalties := make(map[string]int, len(r.players))
	if len(points) == 0 {
		for _, p := range r.players {
			penalties[p.ID] = 0
		}
		return penalties, nil
	}
	maxPoints := 0
	first := true
	for _, value := range points {
		if first || value > maxPoints {
			maxPoints = value
			first = false
		}
	}
	var leaders []string
	for _, p := range r.players {
		if points[p.ID] == maxPoints {
			leaders = append(leaders, p.ID)
		}
	}
	isLeader := make(map[string]bool, len(leaders))
	for _, pid := range leaders {
		isLeader[pid] = true
	}
	for _, p := range r.players {
		value := points[p.ID]
		switch {
		case isLeader[p.ID]:
			penalties[p.ID] = 0
		case value == 31:
			penalties[p.ID] = 2
		case value == 0:
			penalties[p.ID] = 6
		default:
			penalties[p.ID] = 4
		}
	}
	return penalties, leaders
}

// finalizeRound books penalties and wins, then either ends the match (any
// score >= 12) or schedules the next round behind the reveal window.
// Callers hold the lock.
func (r *Room) finalizeRound(penalties map[string]int, leaders []string) {
	for pid, value := range penalties {
		r.scores[pid] += value
	}
	for _, pid := range leaders {
		r.gameWins[pid]++
	}
	r.roundActive = false
	r.currentTrick = nil
	r.turnDeadline = time.Time{}
	r.pendingTurnResume = false
	r.matchOver = false
	for _, score := range r.scores {
		if score >= 12 {
			r.matchOver = true
			break
		}
	}
	if r.matchOver {
		r.winners = nil
		r.losers = nil
		for _, p := range r.players {
			if r.scores[p.ID] >= 12 {
				r.losers = append(r.losers, p.ID)
			} else {
				r.winners = append(r.winners, p.ID)
			}
		}
		r.winnerID = ""
		if len(r.winners) == 1 {
			r.winnerID = r.winners[0]
		}
		r.pendingRoundStart = false
		r.started = false
		r.matchResult = r.buildMatchResult()
		r.logger.Info("match over", "winners", r.winners, "losers", r.losers, "rounds", r.roundNumber)
		return
	}
	r.winnerID = ""
	r.pendingRoundStart = true
	r.logger.Debug("round finished", "round", r.roundID, "scores", r.scores)
}

func (r *Room) buildMatchResult() *MatchResult {
	participants := make([]MatchParticipant, 0, len(r.players))
	for _, p := range r.players {
		participants = append(participants, MatchParticipant{
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    r.scores[p.ID],
			GameWins: r.gameWins[p.ID],
		})
	}
	winners := make([]string, len(r.winners))
	copy(winners, r.winners)
	losers := make([]string, len(r.losers))
	copy(losers, r.losers)
	return &MatchResult{
		MatchID:      roomid.New(),
		RoomID:       r.id,
		VariantKey:   r.variant.Key,
		WinnerID:     r.winnerID,
		Winners:      winners,
		Losers:       losers,
		TotalRounds:  r.roundNumber,
		Participants: participants,
	}
}

// ConsumeMatchResult returns the pending match result exactly once after a
// match ends. Subsequent calls return false until another match completes.
func (r *Room) ConsumeMatchResult() (*MatchResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.matchResult == nil {
		return nil, false
	}
	res := r.matchResult
	r.matchResult = nil
	return res, true
}
