package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThemesBuiltin(t *testing.T) {
	ts := NewThemes(nil, "")
	assert.Equal(t, 2, ts.Len())
	assert.Equal(t, "default", ts.Default().Name)

	th, ok := ts.Get("onedark")
	assert.True(t, ok)
	assert.Equal(t, OneDarkTheme, th)

	th, ok = ts.Get("nope")
	assert.False(t, ok)
	assert.Equal(t, DefaultTheme, th)
}

func TestThemesExtra(t *testing.T) {
	custom := Theme{Name: "dracula", Title: "#ff6e96", Icon: "#79dafa", Text: "#f8f8f2", Bg: "#282a36"}
	override := Theme{Name: "onedark", Title: "#ffffff", Text: "#000000", Bg: "#111111"}
	ts := NewThemes([]Theme{custom, override, {Title: "#unnamed"}}, "dracula")

	assert.Equal(t, 3, ts.Len())
	assert.Equal(t, "dracula", ts.Default().Name)

	th, _ := ts.Get("onedark")
	assert.Equal(t, "#ffffff", th.Title)

	items := ts.Items()
	assert.Equal(t, []string{"default", "onedark", "dracula"}, []string{items[0].Name, items[1].Name, items[2].Name})
	items[0].Name = "mutated"
	assert.Equal(t, "default", ts.Items()[0].Name)
}

func TestThemeFallbackColors(t *testing.T) {
	assert.Equal(t, DefaultTheme.Border, OneDarkTheme.border())
	assert.Equal(t, DefaultTheme.Ring, OneDarkTheme.ring())
	assert.Equal(t, "#abc", Theme{Border: "#abc"}.border())
}

func TestThemeNames(t *testing.T) {
	ts := NewThemes([]Theme{{Name: "dracula"}}, "")
	assert.Equal(t, []string{"default", "onedark", "dracula"}, ts.Names())
}
