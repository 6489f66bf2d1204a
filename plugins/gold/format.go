package gold

import (
	"context"
	"fmt"
	"strings"
	"time"

	logx "pushbrief/pkg/logx"
)

type renderInput struct {
	dateStr     string
	quotes      []goldQuote
	bankRaw     map[string]map[string]any // non-nil only for tanshuapi_bankgold2
	precision   int
	historyDays int
	now         time.Time
	provider    ProviderConfig
	fx          *FXConfig
}

func (p *Plugin) render(ctx context.Context, in renderInput) string {
	var b strings.Builder
	b.WriteString(`<h2 style="margin:0 0 8px;font-size:15px;font-weight:600;">今日金价简报（` + in.dateStr + `）</h2>`)

	var failed []goldQuote
	if in.bankRaw != nil {
		failed = renderBankCards(&b, in)
	} else {
		failed = renderRateTable(&b, in)
	}

	p.renderFX(ctx, &b, in)

	if len(failed) > 0 {
		b.WriteString(`<div style="margin-top:8px;color:#e53935;">获取失败：</div>`)
		for _, q := range failed {
			b.WriteString(`<div style="margin-bottom:4px;color:#e53935;">` + q.symbol + `：获取失败（` + q.errMsg + `）</div>`)
		}
	}

	return `<div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;font-size:14px;line-height:1.6;">` +
		b.String() + `</div>`
}

// renderBankCards renders one card per variety with buy/sell, prev/open and
// the feed's own update time (bankgold2 layout).
func renderBankCards(b *strings.Builder, in renderInput) []goldQuote {
	var failed []goldQuote
	for _, q := range in.quotes {
		if q.failed {
			failed = append(failed, q)
			continue
		}
		item := in.bankRaw[q.symbol]
		buyStr := formatOptionalAny(item["buyprice"], in.precision)
		sellStr := formatOptionalAny(item["sellprice"], in.precision)
		prevStr := formatOptionalPtr(q.prevClose, in.precision)
		openStr := formatOptionalPtr(q.openToday, in.precision)
		unit := strings.TrimSpace(fmt.Sprint(orEmpty(item["unit"])))
		if unit == "" {
			unit = "—"
		}
		updated := strings.TrimSpace(fmt.Sprint(orEmpty(item["updatetime"])))
		if updated == "" {
			updated = "—"
		}

		b.WriteString(`<div style="margin-bottom:12px;padding:10px;border:1px solid #eee;border-radius:6px;background:#fafafa;">` +
			`<div style="display:flex;justify-content:space-between;align-items:baseline;margin-bottom:6px;">` +
			`<span style="font-size:14px;font-weight:600;">` + q.name + `</span>` +
			fmt.Sprintf(`<span style="font-size:16px;font-weight:600;">%.*f <span style="font-size:11px;color:#666;font-weight:400;">%s</span></span>`, in.precision, q.current, unit) +
			`</div>` +
			`<div style="font-size:12px;color:#666;margin-bottom:4px;">买入 ` + buyStr + ` / 卖出 ` + sellStr + ` · 昨收 ` + prevStr + ` / 今开 ` + openStr + `</div>` +
			`<div style="font-size:12px;">涨跌 ` + colorChangePct(q.changePct) + `（` + signedChangeAbs(q.changeAbs) + `） <span style="color:#999;font-size:11px;">` + updated + `</span></div>` +
			`</div>`)
	}
	return failed
}

// renderRateTable renders the compact table layout used by the rate
// providers, with the baseline column labeled with its actual date.
func renderRateTable(b *strings.Builder, in renderInput) []goldQuote {
	prevDateLabel := in.now.AddDate(0, 0, -in.historyDays).Format("01-02")
	historyLabel := `基准价<br><span style="font-size:11px;color:#666;">` + prevDateLabel + `</span>`

	b.WriteString(`<table style="width:100%;border-collapse:collapse;font-size:12px;table-layout:fixed;">` +
		`<thead><tr>` +
		`<th style="text-align:left;padding:3px 4px;width:40%;">品种</th>` +
		`<th style="text-align:right;padding:3px 4px;width:20%;">现价</th>` +
		`<th style="text-align:right;padding:3px 4px;width:20%;">` + historyLabel + `</th>` +
		`<th style="text-align:right;padding:3px 4px;width:20%;">涨跌</th>` +
		`</tr></thead><tbody>`)

	var failed []goldQuote
	for _, q := range in.quotes {
		if q.failed {
			failed = append(failed, q)
			continue
		}
		b.WriteString(`<tr>` +
			`<td style="padding:3px 4px;border-top:1px solid #eee;">` + q.name + `</td>` +
			fmt.Sprintf(`<td style="padding:3px 4px;border-top:1px solid #eee;text-align:right;white-space:nowrap;">%.*f</td>`, in.precision, q.current) +
			`<td style="padding:3px 4px;border-top:1px solid #eee;text-align:right;white-space:nowrap;">` + formatOptionalPtr(q.prevClose, in.precision) + `</td>` +
			`<td style="padding:3px 4px;border-top:1px solid #eee;text-align:right;white-space:nowrap;">` + colorChangePct(q.changePct) + ` / ` + signedChangeAbs(q.changeAbs) + `</td>` +
			`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
	return failed
}

// renderFX appends the exchange-rate reference block. Only the metalpriceapi
// provider supports it; an FX fetch failure degrades to an inline notice.
func (p *Plugin) renderFX(ctx context.Context, b *strings.Builder, in renderInput) {
	if in.fx == nil {
		return
	}
	providerType := strings.ToLower(strings.TrimSpace(in.provider.Type))
	if providerType == "" {
		providerType = "metalpriceapi"
	}
	if providerType != "metalpriceapi" {
		return
	}

	var currencies []string
	for _, c := range in.fx.Currencies {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			currencies = append(currencies, c)
		}
	}
	if len(currencies) == 0 {
		return
	}
	base := strings.ToUpper(strings.TrimSpace(in.fx.Base))
	if base == "" {
		base = "CNY"
	}
	labels := make(map[string]string, len(in.fx.Labels))
	for k, v := range in.fx.Labels {
		labels[strings.ToUpper(strings.TrimSpace(k))] = v
	}

	rates, err := p.fetchMetalpriceFXRates(ctx, in.provider, base, currencies)
	if err != nil {
		p.log.Warn("fx rates fetch failed", logx.Err(err))
		b.WriteString(`<div style="margin-top:8px;color:#e53935;">汇率获取失败：` + err.Error() + `</div>`)
		return
	}

	type fxRow struct{ name, code, rate string }
	var rows []fxRow
	for _, cur := range currencies {
		rate, ok := rates[cur]
		if !ok {
			continue
		}
		name := labels[cur]
		if name == "" {
			name = cur
		}
		rows = append(rows, fxRow{name: name, code: cur, rate: fmt.Sprintf("%.4f", rate)})
	}
	if len(rows) == 0 {
		return
	}

	b.WriteString(`<div style="margin-top:10px;font-size:13px;font-weight:600;">汇率参考（1 ` + base + `）</div>`)
	b.WriteString(`<table style="width:100%;border-collapse:collapse;font-size:12px;table-layout:fixed;">` +
		`<thead><tr>` +
		`<th style="text-align:left;padding:3px 4px;width:40%;">货币</th>` +
		`<th style="text-align:right;padding:3px 4px;width:60%;">1 基础货币 =</th>` +
		`</tr></thead><tbody>`)
	for _, r := range rows {
		b.WriteString(`<tr>` +
			`<td style="padding:3px 4px;border-top:1px solid #eee;">` + r.name + ` (` + r.code + `)</td>` +
			`<td style="padding:3px 4px;border-top:1px solid #eee;text-align:right;white-space:nowrap;">` + r.rate + `</td>` +
			`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
}

// colorChangePct renders a percent change red for gains and green for losses,
// or "--" when unknown.
func colorChangePct(pct *float64) string {
	if pct == nil {
		return "--"
	}
	raw := fmt.Sprintf("%+.2f%%", *pct)
	switch {
	case *pct > 0:
		return `<span style="color:#e53935;">` + raw + `</span>`
	case *pct < 0:
		return `<span style="color:#1b5e20;">` + raw + `</span>`
	}
	return raw
}

func signedChangeAbs(v *float64) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%+.2f", *v)
}

// formatOptionalPtr formats a value with the given precision, or "—".
func formatOptionalPtr(v *float64, precision int) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.*f", precision, *v)
}

func formatOptionalAny(v any, precision int) string {
	if f, ok := toFloat(v); ok {
		return fmt.Sprintf("%.*f", precision, f)
	}
	return "—"
}

func orEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
