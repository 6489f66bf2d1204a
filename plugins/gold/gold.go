// Package gold implements the gold.daily-brief plugin: a daily gold price
// overview via a configurable provider (metalpriceapi, freegoldprice, or the
// Tanshu bank paper-gold feed) with an optional FX reference table.
package gold

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pushbrief/internal/plugin"
	"pushbrief/internal/push"
	logx "pushbrief/pkg/logx"
)

// Config is the plugin's slice of plugin_configs.
type Config struct {
	Symbols     []string          `json:"symbols"`
	SymbolNames map[string]string `json:"symbol_names,omitempty"`
	Provider    ProviderConfig    `json:"provider,omitempty"`
	Display     DisplayConfig     `json:"display,omitempty"`
	FX          *FXConfig         `json:"fx,omitempty"`
}

// ProviderConfig selects and parameterizes the upstream price source.
// API keys are never stored in config; ApiKeyEnv names the environment
// variable carrying the key.
type ProviderConfig struct {
	Type         string `json:"type,omitempty"` // metalpriceapi | freegoldprice | tanshuapi_bankgold2
	APIKeyEnv    string `json:"api_key_env,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`
	Action       string `json:"action,omitempty"`        // freegoldprice action, default GSJ
	BaseCurrency string `json:"base_currency,omitempty"` // metalpriceapi base, only XAU supported
	Unit         string `json:"unit,omitempty"`          // ounce (default) | gram
	HistoryDays  int    `json:"history_days,omitempty"`  // baseline distance for change calc, default 1
}

type DisplayConfig struct {
	PricePrecision *int `json:"price_precision,omitempty"`
}

// FXConfig adds an exchange-rate reference table (metalpriceapi only).
type FXConfig struct {
	Base       string            `json:"base,omitempty"` // default CNY
	Currencies []string          `json:"currencies"`
	Labels     map[string]string `json:"labels,omitempty"`
}

type goldQuote struct {
	symbol    string
	name      string
	current   float64
	prevClose *float64
	openToday *float64
	changePct *float64
	changeAbs *float64
	failed    bool
	errMsg    string
}

type Plugin struct {
	log    logx.Logger
	client *http.Client
}

func New(log logx.Logger, client *http.Client) *Plugin {
	return &Plugin{log: log.With(logx.String("plugin", "gold.daily-brief")), client: client}
}

func (p *Plugin) ID() string { return "gold.daily-brief" }

func (p *Plugin) Run(ctx context.Context, pc push.Context) ([]push.Message, error) {
	var cfg Config
	if err := plugin.Decode(pc.PluginConfig, &cfg); err != nil {
		return nil, fmt.Errorf("gold config: %w", err)
	}

	symbols := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("gold config: 'symbols' must be a non-empty list")
	}

	names := make(map[string]string, len(cfg.SymbolNames))
	for k, v := range cfg.SymbolNames {
		names[strings.ToUpper(strings.TrimSpace(k))] = v
	}

	precision := 2
	if cfg.Display.PricePrecision != nil && *cfg.Display.PricePrecision >= 0 {
		precision = *cfg.Display.PricePrecision
	}
	historyDays := cfg.Provider.HistoryDays
	if historyDays < 1 {
		historyDays = 1
	}

	dateStr := pc.Now.Format("2006-01-02")
	quotes, bankRaw := p.fetchQuotes(ctx, symbols, names, cfg.Provider, pc.Now)

	body := p.render(ctx, renderInput{
		dateStr:     dateStr,
		quotes:      quotes,
		bankRaw:     bankRaw,
		precision:   precision,
		historyDays: historyDays,
		now:         pc.Now,
		provider:    cfg.Provider,
		fx:          cfg.FX,
	})

	return []push.Message{{
		Title:  "金价简报 " + dateStr,
		Body:   body,
		Format: push.FormatHTML,
	}}, nil
}

// symbolToCurrency maps a rate-provider symbol to its quote currency.
func symbolToCurrency(symbol string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(symbol)) {
	case "XAUUSD":
		return "USD", true
	case "XAUCNY", "XAUUSD_CNY":
		return "CNY", true
	}
	return "", false
}

// fetchQuotes resolves the provider and returns one quote per symbol.
// bankRaw is non-nil only for the tanshuapi_bankgold2 provider; the renderer
// uses the raw feed for the buy/sell card layout.
func (p *Plugin) fetchQuotes(ctx context.Context, symbols []string, names map[string]string, prov ProviderConfig, now time.Time) ([]goldQuote, map[string]map[string]any) {
	providerType := strings.ToLower(strings.TrimSpace(prov.Type))
	if providerType == "" {
		providerType = "metalpriceapi"
	}

	displayName := func(sym string) string {
		if n := names[sym]; n != "" {
			return n
		}
		return sym
	}
	allFailed := func(msg string) []goldQuote {
		out := make([]goldQuote, len(symbols))
		for i, s := range symbols {
			out[i] = goldQuote{symbol: s, name: displayName(s), failed: true, errMsg: msg}
		}
		return out
	}

	if providerType == "tanshuapi_bankgold2" {
		rawList, err := p.fetchTanshuBankgold2(ctx, prov)
		if err != nil {
			return allFailed(err.Error()), nil
		}
		out := make([]goldQuote, 0, len(symbols))
		for _, sym := range symbols {
			item, ok := rawList[sym]
			if !ok {
				out = append(out, goldQuote{symbol: sym, name: displayName(sym), failed: true, errMsg: "接口未返回该品种"})
				continue
			}
			price, ok := toFloat(item["price"])
			if !ok {
				out = append(out, goldQuote{symbol: sym, name: displayName(sym), failed: true, errMsg: "缺少价格"})
				continue
			}
			q := goldQuote{symbol: sym, name: displayName(sym), current: price}
			q.prevClose = optFloat(item["lastclosingprice"])
			q.openToday = optFloat(item["openingprice"])
			q.changeAbs = optFloat(item["changequantity"])
			q.changePct = parseChangePercent(item["changepercent"])
			out = append(out, q)
		}
		return out, rawList
	}

	var currencies []string
	for _, sym := range symbols {
		if cur, ok := symbolToCurrency(sym); ok && !contains(currencies, cur) {
			currencies = append(currencies, cur)
		}
	}
	if len(currencies) == 0 {
		return allFailed("无可用 symbol，请使用 XAUUSD/XAUCNY"), nil
	}

	var (
		currentRates map[string]float64
		prevRates    map[string]float64
		rates        map[string]float64
		err          error
	)
	switch providerType {
	case "metalpriceapi":
		currentRates, err = p.fetchMetalpriceRates(ctx, prov, currencies)
		if err == nil {
			historyDays := prov.HistoryDays
			if historyDays < 1 {
				historyDays = 1
			}
			targetDate := now.AddDate(0, 0, -historyDays).Format("2006-01-02")
			prevRates, err = p.fetchMetalpriceRatesOnDate(ctx, prov, currencies, targetDate)
		}
	case "freegoldprice":
		rates, err = p.fetchFreegoldpriceRates(ctx, prov, currencies)
	default:
		return allFailed(fmt.Sprintf("暂不支持 provider.type=%s", providerType)), nil
	}
	if err != nil {
		return allFailed(err.Error()), nil
	}

	out := make([]goldQuote, 0, len(symbols))
	for _, sym := range symbols {
		cur, ok := symbolToCurrency(sym)
		if !ok {
			out = append(out, goldQuote{symbol: sym, name: displayName(sym), failed: true, errMsg: "不支持的 symbol"})
			continue
		}
		if providerType == "metalpriceapi" {
			current, okCur := currentRates[cur]
			prev, okPrev := prevRates[cur]
			if !okCur || !okPrev {
				out = append(out, goldQuote{symbol: sym, name: displayName(sym), failed: true, errMsg: "缺少 " + cur + " 报价"})
				continue
			}
			changeAbs := current - prev
			var changePct float64
			if prev != 0 {
				changePct = changeAbs / prev * 100
			}
			out = append(out, goldQuote{
				symbol:    sym,
				name:      displayName(sym),
				current:   current,
				prevClose: &prev,
				changeAbs: &changeAbs,
				changePct: &changePct,
			})
			continue
		}
		price, ok := rates[cur]
		if !ok {
			out = append(out, goldQuote{symbol: sym, name: displayName(sym), failed: true, errMsg: "缺少 " + cur + " 报价"})
			continue
		}
		out = append(out, goldQuote{symbol: sym, name: displayName(sym), current: price})
	}
	return out, nil
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
