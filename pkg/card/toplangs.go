package card

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"minestats/pkg/github"
)

const (
	DefaultCardWidth  = 300
	MinCardWidth      = 230
	DefaultLangsCount = 5
	MaxLangsCount     = 10
	DefaultLangColor  = "#858585"
	cardPadding       = 25
)

// TopLangsOptions 语言卡片选项
type TopLangsOptions struct {
	Hide       []string // 要隐藏的语言名，忽略大小写
	Count      int      // 显示数量，限制在 1..10，0 表示默认 5
	Width      int      // 卡片宽度，最小 230，0 表示默认 300
	HideBorder bool
}

// UseLanguages 按字节数降序挑选语言，过滤隐藏列表后取前 count 个
func UseLanguages(top github.TopLangs, hide []string, count int) []github.Lang {
	if count <= 0 {
		count = DefaultLangsCount
	}
	count = max(1, min(count, MaxLangsCount))

	fold := cases.Fold()
	hidden := make(map[string]struct{}, len(hide))
	for _, h := range hide {
		if h = strings.TrimSpace(h); h != "" {
			hidden[fold.String(h)] = struct{}{}
		}
	}

	out := make([]github.Lang, 0, count)
	for _, lang := range top.Sorted() {
		if _, skip := hidden[fold.String(strings.TrimSpace(lang.Name))]; skip {
			continue
		}
		out = append(out, lang)
		if len(out) == count {
			break
		}
	}
	return out
}

// RenderTopLangs 渲染最常用语言卡片
func RenderTopLangs(top github.TopLangs, theme Theme, opts TopLangsOptions) ([]byte, error) {
	langs := UseLanguages(top, opts.Hide, opts.Count)

	width := opts.Width
	if width == 0 {
		width = DefaultCardWidth
	}
	if width < MinCardWidth {
		width = MinCardWidth
	}

	var total int64
	for _, l := range langs {
		total += l.Size
	}

	const paddingRight = 95
	progressWidth := width - paddingRight

	var body strings.Builder
	fmt.Fprintf(&body, `<svg data-testid="lang-items" x="%d">`+"\n", cardPadding)
	for i, lang := range langs {
		percent := 0
		if total > 0 {
			percent = int(lang.Size * 100 / total)
		}
		color := DefaultLangColor
		if lang.Color != nil && *lang.Color != "" {
			color = *lang.Color
		}
		bar := max(2, min(percent, 100)) * progressWidth / 100

		fmt.Fprintf(&body,
			`  <g transform="translate(0, %d)">`+
				`<text data-testid="lang-name" x="2" y="15" class="lang-name">%s</text>`+
				`<text x="%d" y="34" class="lang-name">%d%%</text>`+
				`<svg width="%d" x="0" y="25"><rect rx="5" ry="5" x="0" y="0" width="%d" height="8" fill="#ddd"/>`+
				`<rect data-testid="lang-progress" height="8" fill="%s" rx="5" ry="5" x="0" y="0" width="%d"/></svg>`+
				`</g>`+"\n",
			i*40, escapeXML(lang.Name), progressWidth+10, percent, progressWidth, progressWidth, escapeXML(color), bar)
	}
	body.WriteString("</svg>\n")

	return renderFrame(frame{
		Width:      width,
		Height:     45 + (len(langs)+1)*40,
		Title:      "Most Used Languages",
		Desc:       fmt.Sprintf("%d languages", len(langs)),
		Theme:      theme,
		HideBorder: opts.HideBorder,
		Body:       body.String(),
	})
}
