package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buragame/burad/internal/randutil"
)

func TestNewDeckComposition(t *testing.T) {
	t.Parallel()

	cards := NewDeck()
	require.Len(t, cards, Size)

	seen := make(map[string]bool, Size)
	perSuit := make(map[Suit]int)
	for _, card := range cards {
		require.False(t, seen[card.ID], "duplicate card %s", card.ID)
		seen[card.ID] = true
		perSuit[card.Suit]++
	}
	for _, suit := range Suits {
		assert.Equal(t, 9, perSuit[suit])
	}
}

func TestShuffleDeterministic(t *testing.T) {
	t.Parallel()

	a := NewDeck()
	b := NewDeck()
	Shuffle(a, randutil.New(7))
	Shuffle(b, randutil.New(7))
	assert.Equal(t, a, b)

	c := NewDeck()
	Shuffle(c, randutil.New(8))
	assert.NotEqual(t, a, c)
}

func TestShufflePreservesCards(t *testing.T) {
	t.Parallel()

	cards := NewDeck()
	Shuffle(cards, randutil.New(1))
	seen := make(map[string]bool, Size)
	for _, card := range cards {
		seen[card.ID] = true
	}
	assert.Len(t, seen, Size)
}
