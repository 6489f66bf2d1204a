package gold

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	logx "pushbrief/pkg/logx"
)

func TestFetchQuotesTanshuBankgold2(t *testing.T) {
	t.Setenv("TANSHUAPI_KEY", "test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		_, _ = w.Write([]byte(`{
			"code": 1,
			"data": {
				"list": {
					"au9999": {
						"price": "486.23",
						"buyprice": "486.10",
						"sellprice": "486.40",
						"lastclosingprice": "485.00",
						"openingprice": "485.50",
						"changequantity": "1.23",
						"changepercent": "0.25%",
						"unit": "元/克",
						"updatetime": "2026-03-02 09:30:00"
					}
				}
			}
		}`))
	}))
	defer srv.Close()

	p := New(logx.Nop(), srv.Client())
	prov := ProviderConfig{Type: "tanshuapi_bankgold2", Endpoint: srv.URL}
	quotes, raw := p.fetchQuotes(context.Background(), []string{"AU9999"}, map[string]string{"AU9999": "黄金9999"}, prov, time.Now())

	if len(quotes) != 1 {
		t.Fatalf("quotes = %+v", quotes)
	}
	q := quotes[0]
	if q.failed {
		t.Fatalf("failed: %s", q.errMsg)
	}
	if q.name != "黄金9999" || q.current != 486.23 {
		t.Fatalf("quote = %+v", q)
	}
	if q.prevClose == nil || *q.prevClose != 485.00 {
		t.Fatalf("prevClose = %v", q.prevClose)
	}
	if q.changePct == nil || *q.changePct != 0.25 {
		t.Fatalf("changePct = %v", q.changePct)
	}
	// Raw feed keys are normalized to upper case for the renderer.
	if raw["AU9999"] == nil {
		t.Fatalf("raw = %v", raw)
	}
}

func TestFetchQuotesTanshuMissingSymbol(t *testing.T) {
	t.Setenv("TANSHUAPI_KEY", "test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":1,"data":{"list":{"AU9999":{"price":"486.23"}}}}`))
	}))
	defer srv.Close()

	p := New(logx.Nop(), srv.Client())
	prov := ProviderConfig{Type: "tanshuapi_bankgold2", Endpoint: srv.URL}
	quotes, _ := p.fetchQuotes(context.Background(), []string{"AG9999"}, nil, prov, time.Now())

	if len(quotes) != 1 || !quotes[0].failed {
		t.Fatalf("quotes = %+v, want one failed quote", quotes)
	}
	if quotes[0].errMsg != "接口未返回该品种" {
		t.Fatalf("errMsg = %q", quotes[0].errMsg)
	}
}

func TestFetchQuotesUnknownProvider(t *testing.T) {
	t.Parallel()
	p := New(logx.Nop(), nil)
	quotes, raw := p.fetchQuotes(context.Background(), []string{"XAUUSD"}, nil, ProviderConfig{Type: "carrier-pigeon"}, time.Now())
	if raw != nil {
		t.Fatal("raw should be nil for non-bank providers")
	}
	if len(quotes) != 1 || !quotes[0].failed || !strings.Contains(quotes[0].errMsg, "carrier-pigeon") {
		t.Fatalf("quotes = %+v", quotes)
	}
}

func TestFetchQuotesNoUsableSymbols(t *testing.T) {
	t.Parallel()
	p := New(logx.Nop(), nil)
	quotes, _ := p.fetchQuotes(context.Background(), []string{"AU9999"}, nil, ProviderConfig{Type: "metalpriceapi"}, time.Now())
	if len(quotes) != 1 || !quotes[0].failed {
		t.Fatalf("quotes = %+v, want one failed quote", quotes)
	}
	if !strings.Contains(quotes[0].errMsg, "XAUUSD/XAUCNY") {
		t.Fatalf("errMsg = %q", quotes[0].errMsg)
	}
}

func TestRenderBankCardLayout(t *testing.T) {
	t.Parallel()
	p := New(logx.Nop(), nil)
	prev, open := 485.0, 485.5
	pct, abs := 0.25, 1.23
	in := renderInput{
		dateStr: "2026-03-02",
		quotes: []goldQuote{{
			symbol: "AU9999", name: "黄金9999", current: 486.23,
			prevClose: &prev, openToday: &open, changePct: &pct, changeAbs: &abs,
		}},
		bankRaw: map[string]map[string]any{"AU9999": {
			"buyprice": "486.10", "sellprice": "486.40",
			"unit": "元/克", "updatetime": "2026-03-02 09:30:00",
		}},
		precision:   2,
		historyDays: 1,
		now:         time.Date(2026, 3, 2, 0, 30, 0, 0, time.UTC),
		provider:    ProviderConfig{Type: "tanshuapi_bankgold2"},
	}

	body := p.render(context.Background(), in)
	for _, want := range []string{
		"今日金价简报（2026-03-02）",
		"黄金9999",
		"486.23",
		"买入 486.10 / 卖出 486.40",
		"昨收 485.00 / 今开 485.50",
		"+0.25%",
		"元/克",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRenderTableLayoutBaselineDate(t *testing.T) {
	t.Parallel()
	p := New(logx.Nop(), nil)
	prev := 550.0
	pct, abs := -0.5, -2.75
	in := renderInput{
		dateStr: "2026-03-02",
		quotes: []goldQuote{
			{symbol: "XAUCNY", name: "黄金/人民币", current: 547.25, prevClose: &prev, changePct: &pct, changeAbs: &abs},
			{symbol: "XAUUSD", failed: true, errMsg: "缺少 USD 报价"},
		},
		precision:   2,
		historyDays: 7,
		now:         time.Date(2026, 3, 9, 0, 30, 0, 0, time.UTC),
		provider:    ProviderConfig{Type: "metalpriceapi"},
	}

	body := p.render(context.Background(), in)
	// history_days=7 back from 03-09 labels the baseline column 03-02.
	if !strings.Contains(body, "03-02") {
		t.Fatalf("baseline date label missing:\n%s", body)
	}
	if !strings.Contains(body, "-0.50%") {
		t.Fatalf("negative change missing:\n%s", body)
	}
	if !strings.Contains(body, "获取失败") || !strings.Contains(body, "缺少 USD 报价") {
		t.Fatalf("failed list missing:\n%s", body)
	}
}
