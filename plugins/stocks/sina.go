package stocks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"pushbrief/internal/fetch"
	logx "pushbrief/pkg/logx"
)

// Sina hq feed. A-share fields: 0=name, 1=open, 2=prev close, 3=current.
// HK fields: 0=english name, 1=chinese name, 2=open, 3=prev close, 6=current.
const sinaHQURL = "http://hq.sinajs.cn/list="

var reHan = regexp.MustCompile(`\p{Han}`)

type quote struct {
	symbol    string
	name      string
	prevClose float64
	openToday float64
	current   float64
	changePct float64
	failed    bool
	errMsg    string
}

// symbolToSina maps a user symbol to a Sina feed code.
//
// Examples:
//   - 600519.SH -> sh600519
//   - 000858.SZ -> sz000858
//   - 1024.HK   -> hk01024
func symbolToSina(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return ""
	}
	switch {
	case strings.HasSuffix(s, ".SH"):
		return "sh" + s[:len(s)-3]
	case strings.HasSuffix(s, ".SZ"):
		return "sz" + s[:len(s)-3]
	case strings.HasSuffix(s, ".HK"):
		base := s[:len(s)-3]
		var digits strings.Builder
		for _, ch := range base {
			if ch >= '0' && ch <= '9' {
				digits.WriteRune(ch)
			}
		}
		if digits.Len() == 0 {
			return ""
		}
		// Sina uses 5-digit Hong Kong codes with leading zeros, e.g. hk01024.
		return "hk" + fmt.Sprintf("%05s", digits.String())
	case strings.HasPrefix(s, "6"):
		return "sh" + s
	}
	// Default: treat as SZ A-share style.
	return "sz" + s
}

// fetchQuotes pulls all symbols from the Sina feed in one request. A transport
// failure marks every quote failed; a missing or malformed entry only fails
// that symbol.
func (p *Plugin) fetchQuotes(ctx context.Context, symbols []string) []quote {
	sinaCodes := make([]string, len(symbols))
	for i, s := range symbols {
		sinaCodes[i] = symbolToSina(s)
	}

	text, err := p.fetchFeed(ctx, sinaCodes)
	if err != nil {
		p.log.Warn("sina quote request failed", logx.Err(err))
		out := make([]quote, len(symbols))
		for i, s := range symbols {
			out[i] = quote{symbol: s, failed: true, errMsg: err.Error()}
		}
		return out
	}

	out := make([]quote, 0, len(symbols))
	for i, symbol := range symbols {
		out = append(out, parseQuote(text, symbol, sinaCodes[i]))
	}
	return out
}

func (p *Plugin) fetchFeed(ctx context.Context, sinaCodes []string) (string, error) {
	url := sinaHQURL + strings.Join(sinaCodes, ",")
	header := http.Header{}
	// The feed rejects requests without a finance.sina.com.cn referer.
	header.Set("Referer", "https://finance.sina.com.cn/")

	resp, err := fetch.Get(ctx, p.client, url, nil, header)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sina feed status=%d", resp.StatusCode)
	}

	// The feed is GBK-encoded; GB18030 is its superset.
	dec := transform.NewReader(resp.Body, simplifiedchinese.GB18030.NewDecoder())
	b, err := io.ReadAll(io.LimitReader(dec, 1<<20))
	if err != nil {
		return "", fmt.Errorf("sina feed decode: %w", err)
	}
	return string(b), nil
}

func parseQuote(text, symbol, sinaCode string) quote {
	isHK := strings.HasSuffix(strings.ToUpper(strings.TrimSpace(symbol)), ".HK")

	re := regexp.MustCompile(`var\s+hq_str_` + regexp.QuoteMeta(sinaCode) + `="([^"]*)"`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return quote{symbol: symbol, failed: true, errMsg: "无数据"}
	}
	parts := strings.Split(m[1], ",")
	minLen := 4
	if isHK {
		minLen = 7
	}
	if len(parts) < minLen {
		return quote{symbol: symbol, failed: true, errMsg: "字段不足"}
	}

	var (
		name       string
		openT      float64
		prev, curr float64
		err        error
	)
	if isHK {
		// Prefer the Chinese name when it actually contains CJK; otherwise fall
		// back to the English name to avoid mojibake.
		cnName := strings.TrimSpace(parts[1])
		enName := strings.TrimSpace(parts[0])
		if reHan.MatchString(cnName) {
			name = cnName
		} else {
			name = enName
		}
		if openT, prev, curr, err = parseFloat3(parts[2], parts[3], parts[6]); err != nil {
			return quote{symbol: symbol, name: name, failed: true, errMsg: err.Error()}
		}
	} else {
		name = strings.TrimSpace(parts[0])
		if openT, prev, curr, err = parseFloat3(parts[1], parts[2], parts[3]); err != nil {
			return quote{symbol: symbol, name: name, failed: true, errMsg: err.Error()}
		}
	}

	var changePct float64
	if prev != 0 {
		changePct = (curr - prev) / prev * 100
	}
	return quote{
		symbol:    symbol,
		name:      name,
		prevClose: prev,
		openToday: openT,
		current:   curr,
		changePct: changePct,
	}
}

func parseFloat3(a, b, c string) (fa, fb, fc float64, err error) {
	if fa, err = strconv.ParseFloat(strings.TrimSpace(a), 64); err != nil {
		return 0, 0, 0, err
	}
	if fb, err = strconv.ParseFloat(strings.TrimSpace(b), 64); err != nil {
		return 0, 0, 0, err
	}
	if fc, err = strconv.ParseFloat(strings.TrimSpace(c), 64); err != nil {
		return 0, 0, 0, err
	}
	return fa, fb, fc, nil
}
