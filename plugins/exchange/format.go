package exchange

import (
	"fmt"
	"strconv"
	"strings"
)

func render(dateStr string, results []bankResult, currencies []string, names map[string]string, precision int) string {
	var b strings.Builder
	b.WriteString(`<h2 style="margin:0 0 8px;font-size:15px;font-weight:600;">银行汇率简报（` + dateStr + `）</h2>`)

	for _, res := range results {
		display := bankNames[res.bankCode]
		if display == "" {
			display = res.bankCode
		}
		b.WriteString(`<h3 style="margin:16px 0 8px;font-size:14px;font-weight:600;">` +
			display + ` (` + res.bankCode + `)</h3>`)

		if res.failed {
			b.WriteString(`<div style="margin-bottom:12px;color:#e53935;">获取失败：` + res.errMsg + `</div>`)
			continue
		}
		if res.updateTime != "" {
			b.WriteString(`<p style="margin:0 0 8px;font-size:12px;color:#666;">数据更新时间：` + res.updateTime + `</p>`)
		}

		codeMap := make(map[string]map[string]any, len(res.rates))
		for _, item := range res.rates {
			code := strings.ToUpper(strings.TrimSpace(fmt.Sprint(item["code"])))
			if code != "" {
				codeMap[code] = item
			}
		}

		b.WriteString(`<table style="width:100%;border-collapse:collapse;border:1px solid #eee;border-radius:6px;background:#fafafa;margin-bottom:12px;">` +
			`<tr style="background:#f5f5f5;">` +
			`<th style="padding:8px 12px;text-align:left;font-size:12px;">币种</th>` +
			`<th style="padding:8px 12px;text-align:right;font-size:12px;">中间价</th>` +
			`<th style="padding:8px 12px;text-align:right;font-size:12px;">现汇买入</th>` +
			`<th style="padding:8px 12px;text-align:right;font-size:12px;">现汇卖出</th>` +
			`</tr>`)

		for _, code := range currencies {
			item := codeMap[code]
			name := names[code]
			if name == "" && item != nil {
				if s, ok := item["name"].(string); ok {
					name = strings.TrimSpace(s)
				}
			}
			if name == "" {
				name = code
			}
			b.WriteString(`<tr style="border-bottom:1px solid #eee;">` +
				`<td style="padding:8px 12px;font-size:12px;">` + name + `</td>` +
				`<td style="padding:8px 12px;text-align:right;font-size:12px;">` + formatOptional(item["zhesuan"], precision) + `</td>` +
				`<td style="padding:8px 12px;text-align:right;font-size:12px;">` + formatOptional(item["hui_in"], precision) + `</td>` +
				`<td style="padding:8px 12px;text-align:right;font-size:12px;">` + formatOptional(item["hui_out"], precision) + `</td>` +
				`</tr>`)
		}
		b.WriteString(`</table>`)
	}

	return `<div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;font-size:14px;line-height:1.6;">` +
		b.String() + `</div>`
}

// formatOptional formats a numeric JSON value with the given precision,
// returning "—" when missing or unparsable.
func formatOptional(v any, precision int) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', precision, 64)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return "—"
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "—"
		}
		return strconv.FormatFloat(f, 'f', precision, 64)
	}
	return "—"
}
