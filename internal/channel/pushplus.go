package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"pushbrief/internal/plugin"
	"pushbrief/internal/push"
	logx "pushbrief/pkg/logx"
)

const pushplusURL = "https://www.pushplus.plus/send"

// pushplusConfig is the per-recipient channel config slice.
type pushplusConfig struct {
	Type  string `json:"type,omitempty"`
	Token string `json:"token"`
	Topic string `json:"topic,omitempty"`
}

// PushPlus delivers messages via the PushPlus HTTP API.
//
// Outbound posts are gated by a small token-bucket limiter: the free tier
// throttles per-token sends and a burst of briefs in one run would otherwise
// get provider-side rejections.
type PushPlus struct {
	log     logx.Logger
	client  *http.Client
	limiter *rate.Limiter
	url     string
}

// NewPushPlus creates the pushplus channel. client should carry the outbound
// request timeout (10s per request).
func NewPushPlus(log logx.Logger, client *http.Client) *PushPlus {
	if client == nil {
		client = http.DefaultClient
	}
	return &PushPlus{
		log:     log.With(logx.String("channel", "pushplus")),
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		url:     pushplusURL,
	}
}

type pushplusPayload struct {
	Token    string `json:"token"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Template string `json:"template"`
	Topic    string `json:"topic,omitempty"`
}

type pushplusResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (c *PushPlus) Send(ctx context.Context, msg push.Message, cfg map[string]any) error {
	var cc pushplusConfig
	if err := plugin.Decode(cfg, &cc); err != nil {
		return fmt.Errorf("pushplus channel config: %w", err)
	}
	if strings.TrimSpace(cc.Token) == "" {
		return fmt.Errorf("pushplus channel config missing 'token'")
	}
	token := expandEnv(cc.Token)
	if strings.TrimSpace(token) == "" || (token == cc.Token && strings.Contains(cc.Token, "${")) {
		return fmt.Errorf("pushplus token is empty or unresolved (env var not set?)")
	}
	c.log.Debug("resolved token", logx.Int("length", len(token)), logx.String("prefix", maskToken(token)))

	payload := pushplusPayload{
		Token:    token,
		Title:    msg.Title,
		Content:  msg.Body,
		Template: pushplusTemplate(msg.Format),
		Topic:    cc.Topic,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pushplus marshal: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("pushplus request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushplus send failed: status=%d body=%s", resp.StatusCode, previewBody(raw))
	}
	var pr pushplusResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return fmt.Errorf("pushplus response decode: %w", err)
	}
	if pr.Code != 200 {
		return fmt.Errorf("pushplus api error: code=%d msg=%s", pr.Code, pr.Msg)
	}
	return nil
}

// pushplusTemplate maps a message format to the PushPlus template name.
func pushplusTemplate(f push.Format) string {
	switch f {
	case push.FormatMarkdown:
		return "markdown"
	case push.FormatHTML:
		return "html"
	default:
		return "txt"
	}
}

func previewBody(b []byte) string {
	s := strings.ReplaceAll(string(b), "\n", " ")
	if len(s) > 500 {
		s = s[:500]
	}
	return s
}
