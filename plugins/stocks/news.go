package stocks

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"pushbrief/internal/fetch"
	logx "pushbrief/pkg/logx"
)

const eastmoneyNewsURL = "https://so.eastmoney.com/news/s"

var (
	reAnchor = regexp.MustCompile(`(?is)<a[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	reTag    = regexp.MustCompile(`(?s)<[^>]*>`)
)

type newsItem struct {
	title string
	url   string
}

// fetchNews scrapes Eastmoney search results for keyword, returning at most
// limit items. This is a best-effort optional enrichment: any failure returns
// an empty list, never an error. Obvious ad/promo links are filtered out but
// strong relevance is not guaranteed.
func (p *Plugin) fetchNews(ctx context.Context, keyword string, limit int) []newsItem {
	if limit <= 0 {
		return nil
	}
	params := url.Values{}
	params.Set("keyword", keyword)

	resp, err := fetch.Get(ctx, p.client, eastmoneyNewsURL, params, nil)
	if err != nil {
		p.log.Warn("news fetch failed", logx.String("keyword", keyword), logx.Err(err))
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		p.log.Warn("news fetch failed", logx.String("keyword", keyword), logx.Int("status", resp.StatusCode))
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		p.log.Warn("news read failed", logx.String("keyword", keyword), logx.Err(err))
		return nil
	}

	return extractNews(string(b), limit)
}

func extractNews(html string, limit int) []newsItem {
	matches := reAnchor.FindAllStringSubmatch(html, limit*5)
	items := make([]newsItem, 0, limit)
	for _, m := range matches {
		href := strings.TrimSpace(m[1])
		if !strings.Contains(href, "eastmoney.com") && !strings.HasPrefix(href, "http") {
			continue
		}
		if !strings.HasPrefix(href, "http") {
			if strings.HasPrefix(href, "/") {
				href = "https://so.eastmoney.com" + href
			} else {
				href = "https://" + href
			}
		}
		title := strings.TrimSpace(reTag.ReplaceAllString(m[2], ""))
		if title == "" || utf8.RuneCountInString(title) <= 4 {
			continue
		}
		// Filter obvious ads / promo links.
		lower := strings.ToLower(title)
		if strings.Contains(title, "东方财富") || strings.Contains(lower, "level-2") || strings.Contains(title, "免费版") {
			continue
		}
		if strings.Contains(href, "acttg.eastmoney.com") {
			continue
		}
		// Require at least one CJK character, looks more like a headline.
		if !reHan.MatchString(title) {
			continue
		}
		items = append(items, newsItem{title: truncateRunes(title, 80), url: href})
		if len(items) >= limit {
			break
		}
	}
	return items
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
