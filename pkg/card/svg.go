package card

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"
	"text/template"
)

// SVG 卡片骨架：标题、背景、样式，body 由具体卡片填充
const cardTemplate = `<svg width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" fill="none" xmlns="http://www.w3.org/2000/svg" role="img" aria-labelledby="descId">
<title id="titleId">{{xml .Title}}</title>
<desc id="descId">{{xml .Desc}}</desc>
<style>
  .header { font: 600 18px 'Segoe UI', Ubuntu, Sans-Serif; fill: {{xml .Theme.Title}}; animation: fadeInAnimation 0.8s ease-in-out forwards; }
  @supports(-moz-appearance: auto) { .header { font-size: 15.5px; } }
  .stat { font: 600 14px 'Segoe UI', Ubuntu, "Helvetica Neue", Sans-Serif; fill: {{xml .Theme.Text}}; }
  .stagger { opacity: 0; animation: fadeInAnimation 0.3s ease-in-out forwards; }
  .rank-text { font: 800 24px 'Segoe UI', Ubuntu, Sans-Serif; fill: {{xml .Theme.Text}}; animation: scaleInAnimation 0.3s ease-in-out forwards; }
  .lang-name { font: 400 11px 'Segoe UI', Ubuntu, Sans-Serif; fill: {{xml .Theme.Text}}; }
  .icon { fill: {{xml .Theme.Icon}}; }
  .rank-circle-rim { stroke: {{xml .Ring}}; fill: none; stroke-width: 6; opacity: 0.2; }
  .rank-circle { stroke: {{xml .Ring}}; stroke-dasharray: 250; fill: none; stroke-width: 6; stroke-linecap: round; opacity: 0.8; transform-origin: -10px 8px; transform: rotate(-90deg); animation: rankAnimation 1s forwards ease-in-out; }
  @keyframes rankAnimation { from { stroke-dashoffset: {{.RingFrom}}; } to { stroke-dashoffset: {{.RingTo}}; } }
  @keyframes scaleInAnimation { from { transform: translate(-5px, 5px) scale(0); } to { transform: translate(-5px, 5px) scale(1); } }
  @keyframes fadeInAnimation { from { opacity: 0; } to { opacity: 1; } }
  {{- if not .Animations}}
  * { animation-duration: 0s !important; animation-delay: 0s !important; }
  {{- end}}
</style>
<rect data-testid="card-bg" x="0.5" y="0.5" rx="4.5" height="99%" width="{{.InnerWidth}}" fill="{{xml .Theme.Bg}}" stroke="{{xml .Border}}" stroke-opacity="{{if .HideBorder}}0{{else}}1{{end}}"/>
<g data-testid="card-title" transform="translate(25, 35)">
  <text x="0" y="0" class="header" data-testid="header">{{xml .Title}}</text>
</g>
<g data-testid="main-card-body" transform="translate(0, 55)">
{{.Body}}
</g>
</svg>
`

var cardTmpl = template.Must(template.New("card").Funcs(template.FuncMap{"xml": escapeXML}).Parse(cardTemplate))

type frame struct {
	Width      int
	Height     int
	Title      string
	Desc       string
	Theme      Theme
	Border     string
	Ring       string
	RingFrom   string
	RingTo     string
	HideBorder bool
	Animations bool
	Body       string
}

func (f frame) InnerWidth() int {
	return f.Width - 1
}

func renderFrame(f frame) ([]byte, error) {
	f.Border = f.Theme.border()
	f.Ring = f.Theme.ring()
	if f.RingFrom == "" {
		f.RingFrom = formatFloat(circleProgress(0))
		f.RingTo = f.RingFrom
	}

	var buf bytes.Buffer
	if err := cardTmpl.Execute(&buf, f); err != nil {
		return nil, fmt.Errorf("render card: %w", err)
	}
	return buf.Bytes(), nil
}

// circleProgress 等级圆环的 dashoffset，value 为 0-100
func circleProgress(value float64) float64 {
	const radius = 40.0
	c := math.Pi * (radius * 2)
	value = math.Max(0, math.Min(100, value))
	return (100 - value) / 100 * c
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
