package game

// Variant describes a table ruleset preset.
type Variant struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	PlayersMin  int    `json:"players_min"`
	PlayersMax  int    `json:"players_max"`
	Description string `json:"description"`
}

var variantOrder = []string{"classic_3p", "classic_2p", "with_sevens", "with_draw"}

var variants = map[string]Variant{
	"classic_3p": {
		Key:         "classic_3p",
		Title:       "Классика (3 игрока)",
		PlayersMin:  3,
		PlayersMax:  3,
		Description: "36 карт, игра до 12 штрафных очков.",
	},
	"classic_2p": {
		Key:         "classic_2p",
		Title:       "Классика (2 игрока)",
		PlayersMin:  2,
		PlayersMax:  2,
		Description: "Дуэльная Бура: добор до 4 карт после каждой взятки.",
	},
	"with_sevens": {
		Key:         "with_sevens",
		Title:       "С семёрками (3 игрока)",
		PlayersMin:  3,
		PlayersMax:  3,
		Description: "Экспериментальные правила с семёрками.",
	},
	"with_draw": {
		Key:         "with_draw",
		Title:       "Свободный стол (2–4 игрока)",
		PlayersMin:  2,
		PlayersMax:  4,
		Description: "Настраиваемый стол с добором до 4 карт.",
	},
}

// VariantByKey looks up a preset variant.
func VariantByKey(key string) (Variant, bool) {
	v, ok := variants[key]
	return v, ok
}

// Variants returns the preset variants in a stable order.
func Variants() []Variant {
	out := make([]Variant, 0, len(variantOrder))
	for _, key := range variantOrder {
		out = append(out, variants[key])
	}
	return out
}

// CustomVariant synthesizes a variant for a table created without a preset.
func CustomVariant(maxPlayers int) Variant {
	return Variant{
		Key:         "custom",
		Title:       "Пользовательский стол",
		PlayersMin:  2,
		PlayersMax:  maxPlayers,
		Description: "Игра с настраиваемыми параметрами",
	}
}

// DiscardVisibility values for TableConfig.
const (
	DiscardOpen     = "open"
	DiscardFaceDown = "faceDown"
)

// TableConfig is the immutable per-room configuration.
type TableConfig struct {
	MaxPlayers        int    `json:"maxPlayers"`
	DiscardVisibility string `json:"discardVisibility"`
	EnableFourEnds    bool   `json:"enableFourEnds"`
	TurnTimeoutSec    int    `json:"turnTimeoutSec"`
}

// DefaultTableConfig returns the defaults applied when the creator does not
// customise the table.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		MaxPlayers:        3,
		DiscardVisibility: DiscardOpen,
		EnableFourEnds:    true,
		TurnTimeoutSec:    40,
	}
}
