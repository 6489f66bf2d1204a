// Package stocks implements the stocks.daily-brief plugin: Sina quotes for
// A-share and Hong Kong symbols plus an optional Eastmoney news section,
// rendered as one compact HTML brief.
package stocks

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"pushbrief/internal/plugin"
	"pushbrief/internal/push"
	logx "pushbrief/pkg/logx"
)

const defaultNewsPerSymbol = 3

// Config is the plugin's slice of plugin_configs.
type Config struct {
	Symbols       []string          `json:"symbols"`
	SymbolNames   map[string]string `json:"symbol_names,omitempty"`
	WithNews      bool              `json:"with_news,omitempty"`
	NewsPerSymbol *int              `json:"news_per_symbol,omitempty"`
}

type Plugin struct {
	log    logx.Logger
	client *http.Client
}

func New(log logx.Logger, client *http.Client) *Plugin {
	return &Plugin{log: log.With(logx.String("plugin", "stocks.daily-brief")), client: client}
}

func (p *Plugin) ID() string { return "stocks.daily-brief" }

func (p *Plugin) Run(ctx context.Context, pc push.Context) ([]push.Message, error) {
	var cfg Config
	if err := plugin.Decode(pc.PluginConfig, &cfg); err != nil {
		return nil, fmt.Errorf("stocks config: %w", err)
	}
	symbols := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("stocks config: 'symbols' must be a non-empty list")
	}
	newsPerSymbol := defaultNewsPerSymbol
	if cfg.NewsPerSymbol != nil {
		newsPerSymbol = *cfg.NewsPerSymbol
	}
	if newsPerSymbol < 0 {
		newsPerSymbol = 0
	}

	dateStr := pc.Now.Format("2006-01-02")
	quotes := p.fetchQuotes(ctx, symbols)

	body := p.render(ctx, dateStr, quotes, cfg.SymbolNames, cfg.WithNews, newsPerSymbol)
	return []push.Message{{
		Title:  "股票简报 " + dateStr,
		Body:   body,
		Format: push.FormatHTML,
	}}, nil
}
