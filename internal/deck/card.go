package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit. The wire protocol carries the suit symbol
// itself, so the type is a string rather than an ordinal.
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Suits lists the four suits in catalog order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Valid returns true if the suit is one of the four known suits.
func (s Suit) Valid() bool {
	switch s {
	case Spades, Hearts, Diamonds, Clubs:
		return true
	}
	return false
}

// IsRed returns true if the suit is red (Hearts or Diamonds).
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Color returns the wire color name for the suit.
func (s Suit) Color() string {
	if s.IsRed() {
		return "red"
	}
	return "black"
}

// code returns the single-letter suit code used in card ids and image URLs.
func (s Suit) code() string {
	switch s {
	case Spades:
		return "S"
	case Clubs:
		return "C"
	case Diamonds:
		return "D"
	case Hearts:
		return "H"
	default:
		return "?"
	}
}

// Rank represents a card rank in the 36-card deck (6..10, J=11, Q=12, K=13, A=14).
type Rank int

const (
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Ranks lists all ranks from weakest to strongest. Ten sits below Jack in
// trick strength even though it is worth 10 points.
var Ranks = []Rank{Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// Strength returns the trick-comparison ordinal of the rank (6 → 0, A → 8).
func (r Rank) Strength() int {
	return int(r) - int(Six)
}

// Points returns the scoring value of the rank at round end.
func (r Rank) Points() int {
	switch r {
	case Ace:
		return 11
	case Ten:
		return 10
	case King:
		return 4
	case Queen:
		return 3
	case Jack:
		return 2
	default:
		return 0
	}
}

// code returns the single-character rank code used in card ids and image
// URLs. Ten is "0" to keep the code one character.
func (r Rank) code() string {
	switch r {
	case Ten:
		return "0"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// String returns the display form of the rank.
func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// BackImageURL is the shared card-back artwork sent to clients.
const BackImageURL = "https://deckofcardsapi.com/static/img/back.png"

// Card is a playing card plus its client decoration. Identity is by
// (suit, rank); the id is stable and derived from them.
type Card struct {
	ID           string `json:"id"`
	Suit         Suit   `json:"suit"`
	Rank         Rank   `json:"rank"`
	Color        string `json:"color,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	BackImageURL string `json:"backImageUrl,omitempty"`
}

// New creates a card for the given suit and rank with its id, color and
// image URLs filled in.
func New(suit Suit, rank Rank) Card {
	return Card{
		ID:           fmt.Sprintf("c_%s%s", strings.ToLower(rank.code()), strings.ToLower(suit.code())),
		Suit:         suit,
		Rank:         rank,
		Color:        suit.Color(),
		ImageURL:     fmt.Sprintf("https://deckofcardsapi.com/static/img/%s%s.png", rank.code(), suit.code()),
		BackImageURL: BackImageURL,
	}
}

// Same reports identity equality by (suit, rank).
func (c Card) Same(o Card) bool {
	return c.Suit == o.Suit && c.Rank == o.Rank
}

// String returns the display form of a card (e.g. "A♠").
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}
