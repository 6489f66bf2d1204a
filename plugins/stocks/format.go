package stocks

import (
	"context"
	"fmt"
	"strings"
)

// render builds the mobile-friendly HTML brief: a compact quote table,
// a failure list, and an optional per-symbol news section.
func (p *Plugin) render(ctx context.Context, dateStr string, quotes []quote, symbolNames map[string]string, withNews bool, newsPerSymbol int) string {
	var b strings.Builder
	b.WriteString(`<h2 style="margin:0 0 8px;font-size:15px;font-weight:600;">`)
	b.WriteString("今日股票简报（" + dateStr + "）")
	b.WriteString(`</h2>`)

	b.WriteString(`<table style="width:100%;border-collapse:collapse;font-size:13px;">` +
		`<thead><tr>` +
		`<th style="text-align:left;padding:4px 6px;">名称</th>` +
		`<th style="text-align:right;padding:4px 6px;">现价</th>` +
		`<th style="text-align:right;padding:4px 6px;">涨跌</th>` +
		`<th style="text-align:right;padding:4px 6px;">昨/今</th>` +
		`</tr></thead><tbody>`)

	var failed []quote
	for _, q := range quotes {
		if q.failed {
			failed = append(failed, q)
			continue
		}

		// Name precedence: configured symbol_names, then the feed name for
		// A-shares. HK feed names are not trusted unless configured.
		name := symbolNames[q.symbol]
		if name == "" && !strings.HasSuffix(strings.ToUpper(strings.TrimSpace(q.symbol)), ".HK") {
			name = q.name
		}
		if name == "" {
			name = q.symbol
		}

		changeAbs := q.current - q.prevClose

		b.WriteString(`<tr>` +
			`<td style="padding:4px 6px;border-top:1px solid #eee;">` + name + `</td>` +
			fmt.Sprintf(`<td style="padding:4px 6px;border-top:1px solid #eee;text-align:right;">%.2f</td>`, q.current) +
			`<td style="padding:4px 6px;border-top:1px solid #eee;text-align:right;">` +
			colorPct(q.changePct) + ` / ` + signedFixed(changeAbs, 2) + `</td>` +
			fmt.Sprintf(`<td style="padding:4px 6px;border-top:1px solid #eee;text-align:right;">%.2f / %.2f</td>`, q.prevClose, q.openToday) +
			`</tr>`)
	}
	b.WriteString(`</tbody></table>`)

	if len(failed) > 0 {
		b.WriteString(`<div style="margin-top:8px;color:#e53935;">获取失败：</div>`)
		for _, q := range failed {
			b.WriteString(`<div style="margin-bottom:4px;color:#e53935;">` + q.symbol + `：获取失败（` + q.errMsg + `）</div>`)
		}
	}

	if withNews && newsPerSymbol > 0 {
		b.WriteString(`<h3 style="margin:8px 0 4px;">新闻</h3>`)
		for _, q := range quotes {
			if q.failed || q.name == "" {
				continue
			}
			newsName := symbolNames[q.symbol]
			if newsName == "" {
				newsName = q.name
			}
			heading := q.symbol + " " + newsName
			if strings.HasSuffix(strings.ToUpper(strings.TrimSpace(q.symbol)), ".HK") && symbolNames[q.symbol] == "" {
				heading = q.symbol
			}
			b.WriteString(`<div style="margin-top:6px;font-weight:600;">` + heading + `</div>`)

			items := p.fetchNews(ctx, q.name, newsPerSymbol)
			if len(items) == 0 {
				b.WriteString(`<div style="color:#757575;">暂无相关新闻。</div>`)
				continue
			}
			b.WriteString(`<ul style="padding-left:18px;margin:4px 0 8px;">`)
			for _, it := range items {
				b.WriteString(`<li><a href="` + it.url + `" target="_blank">` + it.title + `</a></li>`)
			}
			b.WriteString(`</ul>`)
		}
	}

	return `<div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;font-size:14px;line-height:1.6;">` +
		b.String() + `</div>`
}

// colorPct renders a percent change red for gains and green for losses
// (CN market convention).
func colorPct(pct float64) string {
	raw := signedFixed(pct, 2) + "%"
	switch {
	case pct > 0:
		return `<span style="color:#e53935;">` + raw + `</span>`
	case pct < 0:
		return `<span style="color:#1b5e20;">` + raw + `</span>`
	}
	return raw
}

func signedFixed(v float64, prec int) string {
	if v >= 0 {
		return fmt.Sprintf("+%.*f", prec, v)
	}
	return fmt.Sprintf("%.*f", prec, v)
}
