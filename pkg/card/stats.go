package card

import (
	"fmt"
	"strings"

	"minestats/pkg/github"
)

const (
	statsCardWidth  = 467
	statsCardHeight = 195
	statsLineHeight = 25
)

// StatsOptions 统计卡片选项
type StatsOptions struct {
	HideRank   bool
	HideBorder bool
	Animations bool
}

type statRow struct {
	id    string
	label string
	value int64
}

// RenderStats 根据用户统计渲染 SVG 卡片
func RenderStats(stats github.UserGithubStats, theme Theme, opts StatsOptions) ([]byte, error) {
	rows := []statRow{
		{"stars", "Total Stars Earned", stats.Stars},
		{"commits", "Total Commits", stats.Commits},
		{"prs", "Total PRs", stats.PRs},
		{"issues", "Total Issues", stats.Issues},
		{"contribs", "Contributed to", stats.Contribs},
	}

	var body strings.Builder
	body.WriteString(`<svg x="0" y="0">` + "\n")
	for i, row := range rows {
		fmt.Fprintf(&body,
			`  <g transform="translate(0, %d)"><g class="stagger" style="animation-delay: %dms" transform="translate(25, 0)">`+
				`<text class="stat bold" y="12.5">%s:</text>`+
				`<text class="stat bold" x="170" y="12.5" data-testid="%s">%s</text></g></g>`+"\n",
			i*statsLineHeight, (i+3)*150, escapeXML(row.label), row.id, formatCount(row.value))
	}
	body.WriteString("</svg>\n")

	if !opts.HideRank {
		fmt.Fprintf(&body,
			`<g data-testid="rank-circle" transform="translate(%d, %d)">`+
				`<circle class="rank-circle-rim" cx="-10" cy="8" r="40"/>`+
				`<circle class="rank-circle" cx="-10" cy="8" r="40"/>`+
				`<g class="rank-text"><text x="-5" y="3" alignment-baseline="central" dominant-baseline="central" text-anchor="middle">%s</text></g>`+
				`</g>`+"\n",
			statsCardWidth-95, statsCardHeight/2-50, escapeXML(stats.Rank.Level))
	}

	title := fmt.Sprintf("%s's GitHub Stats", stats.Name)
	return renderFrame(frame{
		Width:      statsCardWidth,
		Height:     statsCardHeight,
		Title:      title,
		Desc:       fmt.Sprintf("Rank: %s, score %d", stats.Rank.Level, stats.Rank.Score),
		Theme:      theme,
		RingFrom:   formatFloat(circleProgress(0)),
		RingTo:     formatFloat(circleProgress(100 - float64(stats.Rank.Score))),
		HideBorder: opts.HideBorder,
		Animations: opts.Animations,
		Body:       body.String(),
	})
}

// formatCount 大于 1000 的数字显示为 1.2k
func formatCount(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	k := float64(n) / 1000
	s := fmt.Sprintf("%.1f", k)
	s = strings.TrimSuffix(s, ".0")
	return s + "k"
}
