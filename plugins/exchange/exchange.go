// Package exchange implements the exchange.daily-brief plugin: bank
// exchange-rate tables sourced from the tanshuapi bank_exchange API,
// one table per configured bank.
package exchange

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"pushbrief/internal/plugin"
	"pushbrief/internal/push"
	logx "pushbrief/pkg/logx"
)

const defaultPrecision = 4

// bankNames maps the API's bank codes to display names. Unknown codes
// fall back to the code itself.
var bankNames = map[string]string{
	"ICBC":     "工商银行",
	"BOC":      "中国银行",
	"ABCHINA":  "农业银行",
	"BANKCOMM": "交通银行",
	"CCB":      "建设银行",
	"CMBCHINA": "招商银行",
	"CEBBANK":  "光大银行",
	"SPDB":     "浦发银行",
	"CIB":      "兴业银行",
	"ECITIC":   "中信银行",
}

// Config is the plugin's slice of plugin_configs.
type Config struct {
	Banks         []string          `json:"banks"`
	Currencies    []string          `json:"currencies"`
	CurrencyNames map[string]string `json:"currency_names,omitempty"`
	Provider      ProviderConfig    `json:"provider,omitempty"`
	Display       DisplayConfig     `json:"display,omitempty"`
}

type ProviderConfig struct {
	APIKeyEnv string `json:"api_key_env,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
}

type DisplayConfig struct {
	PricePrecision *int `json:"price_precision,omitempty"`
}

type Plugin struct {
	log    logx.Logger
	client *http.Client
}

func New(log logx.Logger, client *http.Client) *Plugin {
	return &Plugin{log: log.With(logx.String("plugin", "exchange.daily-brief")), client: client}
}

func (p *Plugin) ID() string { return "exchange.daily-brief" }

func (p *Plugin) Run(ctx context.Context, pc push.Context) ([]push.Message, error) {
	var cfg Config
	if err := plugin.Decode(pc.PluginConfig, &cfg); err != nil {
		return nil, fmt.Errorf("exchange config: %w", err)
	}

	banks := upperTrimmed(cfg.Banks)
	if len(banks) == 0 {
		return nil, fmt.Errorf("exchange config: 'banks' must be a non-empty list")
	}
	currencies := upperTrimmed(cfg.Currencies)
	if len(currencies) == 0 {
		return nil, fmt.Errorf("exchange config: 'currencies' must be a non-empty list")
	}
	names := make(map[string]string, len(cfg.CurrencyNames))
	for k, v := range cfg.CurrencyNames {
		names[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	precision := defaultPrecision
	if cfg.Display.PricePrecision != nil && *cfg.Display.PricePrecision >= 0 {
		precision = *cfg.Display.PricePrecision
	}

	dateStr := pc.Now.Format("2006-01-02")
	results := make([]bankResult, 0, len(banks))
	for _, code := range banks {
		res := p.fetchBankExchange(ctx, code, cfg.Provider)
		if res.failed {
			p.log.Warn("bank exchange fetch failed",
				logx.String("bank", code), logx.String("reason", res.errMsg))
		}
		results = append(results, res)
	}

	body := render(dateStr, results, currencies, names, precision)
	return []push.Message{{
		Title:  "银行汇率简报 " + dateStr,
		Body:   body,
		Format: push.FormatHTML,
	}}, nil
}

func upperTrimmed(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
