package channel

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"pushbrief/internal/plugin"
	"pushbrief/internal/push"
	logx "pushbrief/pkg/logx"
)

// telegramConfig is the per-recipient channel config slice.
type telegramConfig struct {
	Type   string `json:"type,omitempty"`
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

// Telegram delivers messages through a Telegram bot.
//
// Bots are cached per token so several recipients sharing one bot do not
// recreate it every send.
type Telegram struct {
	log    logx.Logger
	client *http.Client

	mu   sync.Mutex
	bots map[string]*tele.Bot
}

func NewTelegram(log logx.Logger, client *http.Client) *Telegram {
	return &Telegram{
		log:    log.With(logx.String("channel", "telegram")),
		client: client,
		bots:   map[string]*tele.Bot{},
	}
}

func (c *Telegram) bot(token string) (*tele.Bot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.bots[token]; ok {
		return b, nil
	}
	// Offline: skip the getMe round-trip; we only ever call sendMessage.
	b, err := tele.NewBot(tele.Settings{
		Token:   token,
		Client:  c.client,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	c.bots[token] = b
	return b, nil
}

func (c *Telegram) Send(ctx context.Context, msg push.Message, cfg map[string]any) error {
	var cc telegramConfig
	if err := plugin.Decode(cfg, &cc); err != nil {
		return fmt.Errorf("telegram channel config: %w", err)
	}
	if strings.TrimSpace(cc.Token) == "" {
		return fmt.Errorf("telegram channel config missing 'token'")
	}
	if cc.ChatID == 0 {
		return fmt.Errorf("telegram channel config missing 'chat_id'")
	}
	token := expandEnv(cc.Token)
	if strings.Contains(token, "${") {
		return fmt.Errorf("telegram token is unresolved (env var not set?)")
	}

	b, err := c.bot(token)
	if err != nil {
		return err
	}

	text := msg.Body
	if msg.Title != "" {
		switch msg.Format {
		case push.FormatHTML:
			text = "<b>" + msg.Title + "</b>\n" + text
		case push.FormatMarkdown:
			text = "*" + msg.Title + "*\n" + text
		default:
			text = msg.Title + "\n" + text
		}
	}

	opt := &tele.SendOptions{DisableWebPagePreview: true}
	switch msg.Format {
	case push.FormatHTML:
		opt.ParseMode = tele.ModeHTML
	case push.FormatMarkdown:
		opt.ParseMode = tele.ModeMarkdown
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.Send(&tele.Chat{ID: cc.ChatID}, text, opt); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
