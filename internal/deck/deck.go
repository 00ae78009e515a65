package deck

import rand "math/rand/v2"

// Size is the number of cards in a Bura deck.
const Size = 36

// NewDeck returns the 36 cards in canonical order: suits in catalog order,
// ranks from six to ace within each suit.
func NewDeck() []Card {
	cards := make([]Card, 0, Size)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, New(suit, rank))
		}
	}
	return cards
}

// Shuffle randomizes the order of cards in place using the provided rng.
func Shuffle(cards []Card, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}
