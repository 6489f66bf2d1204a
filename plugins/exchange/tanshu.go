package exchange

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"pushbrief/internal/fetch"
)

const bankExchangeURL = "https://api.tanshuapi.com/api/bank_exchange/v1/index"

// bankResult carries one bank's quote list, or the reason it failed.
// Failures stay local to the bank so one broken feed does not blank
// the whole brief.
type bankResult struct {
	bankCode   string
	updateTime string
	rates      []map[string]any
	failed     bool
	errMsg     string
}

type bankExchangeResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Time     string           `json:"time"`
		CodeList []map[string]any `json:"code_list"`
	} `json:"data"`
}

func (p *Plugin) fetchBankExchange(ctx context.Context, bankCode string, prov ProviderConfig) bankResult {
	fail := func(msg string) bankResult {
		return bankResult{bankCode: bankCode, failed: true, errMsg: msg}
	}

	envName := strings.TrimSpace(prov.APIKeyEnv)
	if envName == "" {
		envName = "TANSHUAPI_KEY"
	}
	apiKey := strings.TrimSpace(os.Getenv(envName))
	if apiKey == "" {
		return fail("缺少 API key 环境变量: " + envName)
	}

	endpoint := strings.TrimSpace(prov.Endpoint)
	if endpoint == "" {
		endpoint = bankExchangeURL
	}
	params := url.Values{"key": {apiKey}, "bank_code": {bankCode}}

	var resp bankExchangeResponse
	if err := fetch.GetJSON(ctx, p.client, endpoint, params, &resp); err != nil {
		return fail(err.Error())
	}
	if resp.Code != 1 {
		msg := strings.TrimSpace(resp.Msg)
		if msg == "" {
			msg = "未知错误"
		}
		return fail(fmt.Sprintf("%s (code=%d)", msg, resp.Code))
	}
	if resp.Data.CodeList == nil {
		return fail("接口未返回 code_list")
	}

	return bankResult{
		bankCode:   bankCode,
		updateTime: strings.TrimSpace(resp.Data.Time),
		rates:      resp.Data.CodeList,
	}
}
