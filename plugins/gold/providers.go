package gold

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"pushbrief/internal/fetch"
)

const (
	metalpriceLatestURL = "https://api.metalpriceapi.com/v1/latest"
	metalpriceBaseURL   = "https://api.metalpriceapi.com/v1"
	freegoldpriceURL    = "https://freegoldprice.org/api/v2"
	tanshuBankgold2URL  = "https://api.tanshuapi.com/api/gold/v1/bankgold2"

	ounceToGram = 31.1034768
)

func apiKeyFromEnv(prov ProviderConfig, defaultEnv string) (string, error) {
	envName := strings.TrimSpace(prov.APIKeyEnv)
	if envName == "" {
		envName = defaultEnv
	}
	key := strings.TrimSpace(os.Getenv(envName))
	if key == "" {
		return "", fmt.Errorf("missing API key env var: %s", envName)
	}
	return key, nil
}

// toFloat converts a JSON value (number or numeric string) to float64.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func optFloat(v any) *float64 {
	if f, ok := toFloat(v); ok {
		return &f
	}
	return nil
}

// parseChangePercent parses strings like "0.09%" / "-0.36%".
func parseChangePercent(v any) *float64 {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(strings.ReplaceAll(fmt.Sprint(v), "%", ""))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// extractRates pulls a currency→rate mapping out of the common response
// shapes: rates at the top level, under "data", or under "result".
func extractRates(payload map[string]any) map[string]float64 {
	candidates := []any{payload["rates"]}
	if data, ok := payload["data"].(map[string]any); ok {
		candidates = append(candidates, data["rates"])
	}
	if result, ok := payload["result"].(map[string]any); ok {
		candidates = append(candidates, result["rates"])
	}
	for _, raw := range candidates {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		rates := make(map[string]float64, len(m))
		for k, v := range m {
			if f, ok := toFloat(v); ok {
				rates[strings.ToUpper(k)] = f
			}
		}
		if len(rates) > 0 {
			return rates
		}
	}
	return nil
}

func apiErrorMessage(data map[string]any) string {
	switch e := data["error"].(type) {
	case map[string]any:
		for _, k := range []string{"info", "message", "detail"} {
			if s, ok := e[k].(string); ok && s != "" {
				return s
			}
		}
	case string:
		return e
	}
	return ""
}

func (p *Plugin) metalpriceQuery(ctx context.Context, prov ProviderConfig, endpoint string, params url.Values) (map[string]float64, error) {
	var data map[string]any
	if err := fetch.GetJSON(ctx, p.client, endpoint, params, &data); err != nil {
		return nil, err
	}
	if ok, present := data["success"].(bool); present && !ok {
		if msg := apiErrorMessage(data); msg != "" {
			return nil, fmt.Errorf("metalpriceapi: %s", msg)
		}
		return nil, fmt.Errorf("metalpriceapi: request unsuccessful")
	}
	rates := extractRates(data)
	if rates == nil {
		return nil, fmt.Errorf("metalpriceapi: no usable rates in response")
	}
	// The feed quotes per troy ounce by default; provider.unit=gram converts.
	if strings.ToLower(strings.TrimSpace(prov.Unit)) == "gram" {
		for k, v := range rates {
			rates[k] = v / ounceToGram
		}
	}
	return rates, nil
}

func metalpriceBase(prov ProviderConfig) (string, error) {
	base := strings.ToUpper(strings.TrimSpace(prov.BaseCurrency))
	if base == "" {
		base = "XAU"
	}
	if base != "XAU" {
		return "", fmt.Errorf("provider.base_currency only supports XAU")
	}
	return base, nil
}

func (p *Plugin) fetchMetalpriceRates(ctx context.Context, prov ProviderConfig, currencies []string) (map[string]float64, error) {
	key, err := apiKeyFromEnv(prov, "METALPRICE_API_KEY")
	if err != nil {
		return nil, err
	}
	base, err := metalpriceBase(prov)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimSpace(prov.Endpoint)
	if endpoint == "" {
		endpoint = metalpriceLatestURL
	}
	params := url.Values{}
	params.Set("api_key", key)
	params.Set("base", base)
	params.Set("currencies", strings.Join(currencies, ","))
	return p.metalpriceQuery(ctx, prov, endpoint, params)
}

func (p *Plugin) fetchMetalpriceRatesOnDate(ctx context.Context, prov ProviderConfig, currencies []string, date string) (map[string]float64, error) {
	key, err := apiKeyFromEnv(prov, "METALPRICE_API_KEY")
	if err != nil {
		return nil, err
	}
	base, err := metalpriceBase(prov)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("api_key", key)
	params.Set("base", base)
	params.Set("currencies", strings.Join(currencies, ","))
	return p.metalpriceQuery(ctx, prov, metalpriceBaseURL+"/"+date, params)
}

// fetchMetalpriceFXRates fetches plain FX rates (base → currencies); no unit
// conversion applies here.
func (p *Plugin) fetchMetalpriceFXRates(ctx context.Context, prov ProviderConfig, base string, currencies []string) (map[string]float64, error) {
	key, err := apiKeyFromEnv(prov, "METALPRICE_API_KEY")
	if err != nil {
		return nil, err
	}
	baseCur := strings.ToUpper(strings.TrimSpace(base))
	if baseCur == "" {
		baseCur = "CNY"
	}
	endpoint := strings.TrimSpace(prov.Endpoint)
	if endpoint == "" {
		endpoint = metalpriceLatestURL
	}
	params := url.Values{}
	params.Set("api_key", key)
	params.Set("base", baseCur)
	params.Set("currencies", strings.Join(currencies, ","))

	var data map[string]any
	if err := fetch.GetJSON(ctx, p.client, endpoint, params, &data); err != nil {
		return nil, err
	}
	if ok, present := data["success"].(bool); present && !ok {
		if msg := apiErrorMessage(data); msg != "" {
			return nil, fmt.Errorf("metalpriceapi fx: %s", msg)
		}
		return nil, fmt.Errorf("metalpriceapi fx: request unsuccessful")
	}
	rates := extractRates(data)
	if rates == nil {
		return nil, fmt.Errorf("metalpriceapi fx: no usable rates in response")
	}
	return rates, nil
}

func (p *Plugin) fetchFreegoldpriceRates(ctx context.Context, prov ProviderConfig, currencies []string) (map[string]float64, error) {
	key, err := apiKeyFromEnv(prov, "FREEGOLDPRICE_API_KEY")
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimSpace(prov.Endpoint)
	if endpoint == "" {
		endpoint = freegoldpriceURL
	}
	action := strings.TrimSpace(prov.Action)
	if action == "" {
		action = "GSJ"
	}
	params := url.Values{}
	params.Set("key", key)
	params.Set("action", action)

	var data map[string]any
	if err := fetch.GetJSON(ctx, p.client, endpoint, params, &data); err != nil {
		return nil, err
	}

	payload := data
	if block, ok := data[action].(map[string]any); ok {
		payload = block
	}
	gold, ok := payload["gold"].(map[string]any)
	if !ok {
		gold, ok = payload["Gold"].(map[string]any)
	}
	if !ok {
		if msg := apiErrorMessage(data); msg != "" {
			return nil, fmt.Errorf("freegoldprice: no gold data (%s)", msg)
		}
		return nil, fmt.Errorf("freegoldprice: no gold data in response")
	}

	rates := make(map[string]float64, len(currencies))
	for _, cur := range currencies {
		entry, ok := gold[strings.ToUpper(cur)].(map[string]any)
		if !ok {
			continue
		}
		price, ok := toFloat(entry["ask"])
		if !ok {
			price, ok = toFloat(entry["bid"])
		}
		if ok {
			rates[strings.ToUpper(cur)] = price
		}
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("freegoldprice: no rates for requested currencies")
	}
	return rates, nil
}

type tanshuGoldResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		List map[string]map[string]any `json:"list"`
	} `json:"data"`
}

// fetchTanshuBankgold2 queries the Tanshu "bank paper gold" feed and returns
// quotes keyed by upper-cased variety code.
func (p *Plugin) fetchTanshuBankgold2(ctx context.Context, prov ProviderConfig) (map[string]map[string]any, error) {
	key, err := apiKeyFromEnv(prov, "TANSHUAPI_KEY")
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimSpace(prov.Endpoint)
	if endpoint == "" {
		endpoint = tanshuBankgold2URL
	}
	params := url.Values{}
	params.Set("key", key)

	var data tanshuGoldResponse
	if err := fetch.GetJSON(ctx, p.client, endpoint, params, &data); err != nil {
		return nil, err
	}
	if data.Code != 1 {
		msg := data.Msg
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("tanshuapi: %s", msg)
	}
	if len(data.Data.List) == 0 {
		return nil, fmt.Errorf("tanshuapi: no data.list in response")
	}
	out := make(map[string]map[string]any, len(data.Data.List))
	for k, v := range data.Data.List {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out, nil
}
