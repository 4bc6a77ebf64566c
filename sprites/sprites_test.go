package sprites

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func metadata() map[string]any {
	return map[string]any{
		"back_default":  "back.png",
		"front_default": "front.png",
		"front_female":  "front-f.png",
		"front_shiny":   "shiny.png",
		"back_female":   nil,
		"other": map[string]any{
			"dream_world": map[string]any{
				"front_default": "dream.svg",
				"front_female":  nil,
			},
			"official-artwork": map[string]any{
				"front_default": "https://example.org/art.png",
				"front_shiny":   "https://example.org/art-shiny.png",
			},
		},
		"versions": map[string]any{
			"generation-iv": map[string]any{
				"platinum": map[string]any{
					"front_default":      "pt.png",
					"front_shiny_female": "skip.png",
				},
				"icons": map[string]any{"front_default": "icon.png"},
			},
			"generation-i": map[string]any{
				"red-blue": map[string]any{
					"back_gray":     "gray.png",
					"front_default": "rb.png",
				},
			},
		},
	}
}

func urls(list []Sprite) string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.URL
	}
	return strings.Join(out, " ")
}

func TestParseOrdersSprites(t *testing.T) {
	list := Parse(metadata(), Species{Generation: 3, HasGender: true})
	require.Equal(t,
		"https://example.org/art.png dream.svg front-f.png front.png rb.png pt.png back.png",
		urls(list))

	art := list[0]
	require.Equal(t, Sprite{Source: "official-artwork", Generation: 3, Side: "front", Gender: "male", URL: "https://example.org/art.png"}, art)
	require.Equal(t, 5, list[1].Generation)
	require.Equal(t, "red-blue", list[4].Source)
	require.Equal(t, 1, list[4].Generation)
	require.Equal(t, 4, list[5].Generation)
}

func TestParseGenderless(t *testing.T) {
	list := Parse(map[string]any{"front_default": "a.png"}, Species{})
	require.Len(t, list, 1)
	require.Equal(t, "none", list[0].Gender)
	require.Equal(t, "default", list[0].Source)
}

func TestParseGeneration(t *testing.T) {
	require.Equal(t, 4, ParseGeneration("generation-iv"))
	require.Equal(t, 8, ParseGeneration("generation-VIII"))
	require.Equal(t, 0, ParseGeneration(""))
	require.Equal(t, 0, ParseGeneration("generation-zz"))
}

func TestPick(t *testing.T) {
	list := Parse(metadata(), Species{HasGender: true})
	local := func(s Sprite) bool { return !strings.Contains(s.URL, "://") }

	s, ok := Pick(list, "front", local)
	require.True(t, ok)
	require.Equal(t, "dream.svg", s.URL)

	s, ok = Pick(list, "back", nil)
	require.True(t, ok)
	require.Equal(t, "back.png", s.URL)

	_, ok = Pick(list, "side", nil)
	require.False(t, ok)
}
