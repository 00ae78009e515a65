package game

import "github.com/buragame/burad/internal/deck"

// Outcome classifies a play within a trick.
type Outcome string

const (
	OutcomeLead    Outcome = "lead"
	OutcomeBeat    Outcome = "beat"
	OutcomePartial Outcome = "partial"
	OutcomeDiscard Outcome = "discard"
)

// TrickPlay is one player's contribution to a trick.
type TrickPlay struct {
	PlayerID string
	Seat     int
	Cards    []deck.Card
	Outcome  Outcome
	Owner    bool
}

// Trick is an exchange in flight: the leader puts down 1-4 cards and every
// other player responds with the same count. The owner is whoever's last
// card-set cannot currently be fully beaten.
type Trick struct {
	LeaderID      string
	LeaderSeat    int
	RequiredCount int
	OwnerID       string
	OwnerSeat     int
	OwnerCards    []deck.Card
	TrickIndex    int
	Plays         []TrickPlay
}

// Beats reports whether card a strictly beats card b given the trump suit:
// same suit and higher rank strength, or trump over non-trump. Trump against
// trump falls under the same-suit clause; off-suit non-trump never beats.
func Beats(a, b deck.Card, trump deck.Suit) bool {
	if a.Suit == b.Suit {
		return a.Rank.Strength() > b.Rank.Strength()
	}
	return a.Suit == trump && b.Suit != trump
}

// MaxBeatCount computes the size of the largest subset of challenger cards
// that can be paired injectively with owner cards such that every paired
// challenger card strictly beats its owner card. Exact backtracking over the
// owner cards; |owner| <= 4 keeps the search constant.
func MaxBeatCount(challenger, owner []deck.Card, trump deck.Suit) int {
	used := make([]bool, len(challenger))

	var helper func(ownerIdx int) int
	helper = func(ownerIdx int) int {
		if ownerIdx >= len(owner) {
			return 0
		}
		best := helper(ownerIdx + 1)
		for i, card := range challenger {
			if used[i] {
				continue
			}
			if Beats(card, owner[ownerIdx], trump) {
				used[i] = true
				if n := 1 + helper(ownerIdx+1); n > best {
					best = n
				}
				used[i] = false
			}
		}
		return best
	}

	return helper(0)
}
