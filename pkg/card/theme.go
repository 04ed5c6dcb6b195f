package card

// Theme 卡片配色。Border 与 Ring 为空时使用默认主题的颜色。
type Theme struct {
	Name   string `mapstructure:"name" json:"name"`
	Title  string `mapstructure:"title" json:"title"`
	Icon   string `mapstructure:"icon" json:"icon"`
	Text   string `mapstructure:"text" json:"text"`
	Bg     string `mapstructure:"bg" json:"bg"`
	Border string `mapstructure:"border" json:"border,omitempty"`
	Ring   string `mapstructure:"ring" json:"ring,omitempty"`
}

var (
	// DefaultTheme 默认亮色主题
	DefaultTheme = Theme{
		Name:   "default",
		Title:  "#2f80ed",
		Icon:   "#4c71f2",
		Text:   "#434d58",
		Bg:     "#fffefe",
		Border: "#e4e2e2",
		Ring:   "#2f80ed",
	}

	// OneDarkTheme onedark 暗色主题
	OneDarkTheme = Theme{
		Name:  "onedark",
		Title: "#e4bf7a",
		Icon:  "#8eb573",
		Text:  "#df6d74",
		Bg:    "#282c34",
	}
)

func (t Theme) border() string {
	if t.Border == "" {
		return DefaultTheme.Border
	}
	return t.Border
}

func (t Theme) ring() string {
	if t.Ring == "" {
		return DefaultTheme.Ring
	}
	return t.Ring
}

// Themes 主题注册表，保持注册顺序
type Themes struct {
	items      []Theme
	defaultIdx int
}

// NewThemes 创建注册表：内置主题在前，extra 中同名主题覆盖内置主题。
// defaultName 找不到时回退到 "default"。
func NewThemes(extra []Theme, defaultName string) *Themes {
	ts := &Themes{items: []Theme{DefaultTheme, OneDarkTheme}}
	for _, t := range extra {
		if t.Name == "" {
			continue
		}
		if i := ts.index(t.Name); i >= 0 {
			ts.items[i] = t
			continue
		}
		ts.items = append(ts.items, t)
	}
	if i := ts.index(defaultName); i >= 0 {
		ts.defaultIdx = i
	}
	return ts
}

func (ts *Themes) index(name string) int {
	for i, t := range ts.items {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// Get 按名称查找主题，找不到时返回默认主题与 false
func (ts *Themes) Get(name string) (Theme, bool) {
	if i := ts.index(name); i >= 0 {
		return ts.items[i], true
	}
	return ts.Default(), false
}

// Default 默认主题
func (ts *Themes) Default() Theme {
	return ts.items[ts.defaultIdx]
}

// Items 所有主题
func (ts *Themes) Items() []Theme {
	return append([]Theme(nil), ts.items...)
}

// Len 主题数量
func (ts *Themes) Len() int {
	return len(ts.items)
}

// Names 所有主题名称
func (ts *Themes) Names() []string {
	names := make([]string, 0, len(ts.items))
	for _, t := range ts.items {
		names = append(names, t.Name)
	}
	return names
}
