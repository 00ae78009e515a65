package game

import (
	"sort"
	"time"

	"github.com/buragame/burad/internal/deck"
)

// PublicCard is a card as seen by one viewer inside a trick: always the id,
// plus suit/rank/decoration when face-up for that viewer.
type PublicCard struct {
	CardID   string    `json:"cardId"`
	FaceUp   bool      `json:"faceUp"`
	Suit     deck.Suit `json:"suit,omitempty"`
	Rank     deck.Rank `json:"rank,omitempty"`
	Color    string    `json:"color,omitempty"`
	ImageURL string    `json:"imageUrl,omitempty"`
}

// TrickPlayView is a trick play projected for one viewer.
type TrickPlayView struct {
	PlayerID string       `json:"player_id"`
	Seat     int          `json:"seat"`
	Cards    []PublicCard `json:"cards"`
	Outcome  Outcome      `json:"outcome"`
	Owner    bool         `json:"owner"`
}

// TrickView is the public shape of a trick (current or reveal snapshot).
type TrickView struct {
	LeaderID      string          `json:"leader_id"`
	LeaderSeat    int             `json:"leader_seat"`
	OwnerID       string          `json:"owner_id"`
	OwnerSeat     int             `json:"owner_seat"`
	RequiredCount int             `json:"required_count"`
	TrickIndex    int             `json:"trick_index"`
	Plays         []TrickPlayView `json:"plays"`
}

// BoardCard is a card on the attacker/defender board view.
type BoardCard struct {
	CardID       string    `json:"cardId"`
	FaceUp       bool      `json:"faceUp"`
	Suit         deck.Suit `json:"suit,omitempty"`
	Rank         deck.Rank `json:"rank,omitempty"`
	Color        string    `json:"color,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	BackImageURL string    `json:"backImageUrl,omitempty"`
}

// BoardView groups the lead cards against the response cards, with the
// reveal deadline while the closed trick is still showing.
type BoardView struct {
	Attacker      []BoardCard `json:"attacker"`
	Defender      []BoardCard `json:"defender"`
	RevealUntilTs *float64    `json:"revealUntilTs,omitempty"`
}

// PlayerClock is the per-seat turn/timer summary.
type PlayerClock struct {
	PlayerID     string `json:"playerId"`
	Name         string `json:"name"`
	TurnTimerSec *int   `json:"turnTimerSec,omitempty"`
	IsActive     bool   `json:"isActive"`
}

// PlayerTotals carries round wins and current round points for a player.
type PlayerTotals struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Points   int    `json:"points"`
}

// GameState is the viewer-scoped snapshot broadcast after every transition.
type GameState struct {
	RoomID            string         `json:"room_id"`
	RoomName          string         `json:"room_name"`
	Started           bool           `json:"started"`
	Variant           Variant        `json:"variant"`
	Config            TableConfig    `json:"config"`
	Players           []Player       `json:"players"`
	Me                *Player        `json:"me,omitempty"`
	Trump             deck.Suit      `json:"trump,omitempty"`
	TrumpCard         *deck.Card     `json:"trump_card,omitempty"`
	TableCards        []PublicCard   `json:"table_cards"`
	DeckCount         int            `json:"deck_count"`
	Hands             []deck.Card    `json:"hands,omitempty"`
	HandCounts        map[string]int `json:"hand_counts"`
	TurnPlayerID      string         `json:"turn_player_id,omitempty"`
	WinnerID          string         `json:"winner_id,omitempty"`
	Scores            map[string]int `json:"scores"`
	Trick             *TrickView     `json:"trick,omitempty"`
	TrickIndex        int            `json:"trick_index"`
	DiscardPile       []deck.Card    `json:"discard_pile"`
	DiscardCount      int            `json:"discard_count"`
	TakenCounts       map[string]int `json:"taken_counts"`
	RoundPoints       map[string]int `json:"round_points"`
	Announcements     []Announcement `json:"announcements"`
	TurnDeadlineTs    *float64       `json:"turn_deadline_ts,omitempty"`
	RoundNumber       int            `json:"round_number"`
	RoundID           string         `json:"round_id,omitempty"`
	MatchOver         bool           `json:"match_over"`
	Winners           []string       `json:"winners"`
	Losers            []string       `json:"losers"`
	LastTrickWinnerID string         `json:"last_trick_winner_id,omitempty"`
	PlayerTotals      []PlayerTotals `json:"player_totals"`
	Cards             []deck.Card    `json:"cards"`
	Board             *BoardView     `json:"board,omitempty"`
	TablePlayers      []PlayerClock  `json:"tablePlayers"`
}

func unixSeconds(t time.Time) *float64 {
	if t.IsZero() {
		return nil
	}
	ts := float64(t.UnixMilli()) / 1000
	return &ts
}

// toPublicTrick projects a trick for one viewer. Lead and beating plays are
// always face-up; partial and discard plays are face-up only to the player
// who made them unless the table plays with an open discard.
func (r *Room) toPublicTrick(trick *Trick, viewerID string) *TrickView {
	view := &TrickView{
		LeaderID:      trick.LeaderID,
		LeaderSeat:    trick.LeaderSeat,
		OwnerID:       trick.OwnerID,
		OwnerSeat:     trick.OwnerSeat,
		RequiredCount: trick.RequiredCount,
		TrickIndex:    trick.TrickIndex,
	}
	for _, play := range trick.Plays {
		show := r.config.DiscardVisibility == DiscardOpen ||
			play.Outcome == OutcomeLead || play.Outcome == OutcomeBeat ||
			play.PlayerID == viewerID
		cards := make([]PublicCard, 0, len(play.Cards))
		for _, card := range play.Cards {
			if show {
				cards = append(cards, PublicCard{
					CardID:   card.ID,
					FaceUp:   true,
					Suit:     card.Suit,
					Rank:     card.Rank,
					Color:    card.Color,
					ImageURL: card.ImageURL,
				})
			} else {
				cards = append(cards, PublicCard{CardID: card.ID})
			}
		}
		view.Plays = append(view.Plays, TrickPlayView{
			PlayerID: play.PlayerID,
			Seat:     play.Seat,
			Cards:    cards,
			Outcome:  play.Outcome,
			Owner:    play.Owner,
		})
	}
	return view
}

// boardEntry decorates a public card for the board view. Face-down cards
// keep only their id and card back; the catalog is not consulted for hidden
// suits or ranks.
func (r *Room) boardEntry(card PublicCard) BoardCard {
	entry := BoardCard{
		CardID: card.CardID,
		FaceUp: card.FaceUp,
	}
	if catalogCard, ok := r.catalog[card.CardID]; ok {
		entry.BackImageURL = catalogCard.BackImageURL
	}
	if card.FaceUp {
		entry.Suit = card.Suit
		entry.Rank = card.Rank
		entry.Color = card.Color
		entry.ImageURL = card.ImageURL
	}
	return entry
}

// ToState projects the room for one viewer. Like every intent it first runs
// the lazy timeout and reveal probes, so snapshotting can advance the clock
// transitions but never anything else.
func (r *Room) ToState(viewerID string) *GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkTimeout()
	r.checkReveal()

	trickSource := r.currentTrick
	revealActive := false
	if trickSource == nil && r.revealSnapshot != nil && !r.revealUntil.IsZero() {
		trickSource = r.revealSnapshot
		revealActive = true
	}
	var trickView *TrickView
	if trickSource != nil {
		trickView = r.toPublicTrick(trickSource, viewerID)
	}

	discardCards := []deck.Card{}
	if r.config.DiscardVisibility == DiscardOpen {
		discardCards = append(discardCards, r.discardPile...)
	}

	var hands []deck.Card
	var me *Player
	for i := range r.players {
		if r.players[i].ID == viewerID {
			p := r.players[i]
			me = &p
			break
		}
	}
	if own, ok := r.hands[viewerID]; ok {
		hands = append([]deck.Card{}, own...)
	}

	handCounts := make(map[string]int, len(r.hands))
	for pid, hand := range r.hands {
		handCounts[pid] = len(hand)
	}
	takenCounts := make(map[string]int, len(r.taken))
	for pid, cards := range r.taken {
		takenCounts[pid] = len(cards)
	}

	tableCards := []PublicCard{}
	if trickView != nil {
		for _, play := range trickView.Plays {
			tableCards = append(tableCards, play.Cards...)
		}
	}

	var board *BoardView
	if trickView != nil && len(trickView.Plays) > 0 {
		leaderPlay := &trickView.Plays[0]
		for i := range trickView.Plays {
			if trickView.Plays[i].Outcome == OutcomeLead || trickView.Plays[i].Outcome == OutcomeBeat {
				leaderPlay = &trickView.Plays[i]
				break
			}
		}
		var defenderPlay *TrickPlayView
		for i := range trickView.Plays {
			if &trickView.Plays[i] != leaderPlay {
				defenderPlay = &trickView.Plays[i]
				break
			}
		}
		attacker := make([]BoardCard, 0, len(leaderPlay.Cards))
		for _, card := range leaderPlay.Cards {
			attacker = append(attacker, r.boardEntry(card))
		}
		defender := []BoardCard{}
		if defenderPlay != nil {
			for _, card := range defenderPlay.Cards {
				defender = append(defender, r.boardEntry(card))
			}
		}
		board = &BoardView{Attacker: attacker, Defender: defender}
		if revealActive {
			board.RevealUntilTs = unixSeconds(r.revealUntil)
		}
	}

	activePlayerID := ""
	if r.roundActive {
		activePlayerID = r.currentPlayerID()
	}
	now := r.clock.Now()
	tablePlayers := make([]PlayerClock, 0, len(r.players))
	for _, p := range r.players {
		isActive := activePlayerID == p.ID && !r.turnDeadline.IsZero() && !revealActive
		clock := PlayerClock{PlayerID: p.ID, Name: p.Name, IsActive: isActive}
		if isActive {
			remaining := int(r.turnDeadline.Sub(now) / time.Second)
			if remaining < 0 {
				remaining = 0
			}
			clock.TurnTimerSec = &remaining
		}
		tablePlayers = append(tablePlayers, clock)
	}

	totals := make([]PlayerTotals, 0, len(r.players))
	for _, p := range r.players {
		points := 0
		for _, card := range r.taken[p.ID] {
			points += card.Rank.Points()
		}
		totals = append(totals, PlayerTotals{
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    r.gameWins[p.ID],
			Points:   points,
		})
	}

	catalog := make([]deck.Card, 0, len(r.catalog))
	for _, card := range r.catalog {
		catalog = append(catalog, card)
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].ID < catalog[j].ID })

	players := make([]Player, len(r.players))
	copy(players, r.players)

	turnPlayerID := ""
	if len(r.players) > 0 && r.roundActive {
		turnPlayerID = r.players[r.turnIdx].ID
	}

	scores := make(map[string]int, len(r.scores))
	for pid, score := range r.scores {
		scores[pid] = score
	}
	roundPoints := make(map[string]int, len(r.roundSummary))
	for pid, points := range r.roundSummary {
		roundPoints[pid] = points
	}

	return &GameState{
		RoomID:            r.id,
		RoomName:          r.name,
		Started:           r.started,
		Variant:           r.variant,
		Config:            r.config,
		Players:           players,
		Me:                me,
		Trump:             r.trump,
		TrumpCard:         r.trumpCard,
		TableCards:        tableCards,
		DeckCount:         len(r.deckCards),
		Hands:             hands,
		HandCounts:        handCounts,
		TurnPlayerID:      turnPlayerID,
		WinnerID:          r.winnerID,
		Scores:            scores,
		Trick:             trickView,
		TrickIndex:        r.trickIndex,
		DiscardPile:       discardCards,
		DiscardCount:      len(r.discardPile),
		TakenCounts:       takenCounts,
		RoundPoints:       roundPoints,
		Announcements:     append([]Announcement{}, r.announcements...),
		TurnDeadlineTs:    unixSeconds(r.turnDeadline),
		RoundNumber:       r.roundNumber,
		RoundID:           r.roundID,
		MatchOver:         r.matchOver,
		Winners:           append([]string{}, r.winners...),
		Losers:            append([]string{}, r.losers...),
		LastTrickWinnerID: r.lastTrickWinnerID,
		PlayerTotals:      totals,
		Cards:             catalog,
		Board:             board,
		TablePlayers:      tablePlayers,
	}
}
