package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"myfunds/internal/domain"
	"myfunds/internal/utils"
)

// Public eastmoney endpoints
const (
	defaultEstimateURL = "http://fundgz.1234567.com.cn"
	defaultHoldingsURL = "https://fundmobapi.eastmoney.com"
	defaultQuoteURL    = "http://push2.eastmoney.com"
)

// EastmoneyClient implements domain.MarketDataProvider against the eastmoney fund APIs
type EastmoneyClient struct {
	estimateURL string
	holdingsURL string
	quoteURL    string
	httpClient  *http.Client
	now         utils.Clock
}

// NewEastmoneyClient creates a new client. A non-empty baseURL replaces all three
// upstream hosts, which is how tests and proxies point it elsewhere.
func NewEastmoneyClient(baseURL string, timeout time.Duration, now utils.Clock) *EastmoneyClient {
	c := &EastmoneyClient{
		estimateURL: defaultEstimateURL,
		holdingsURL: defaultHoldingsURL,
		quoteURL:    defaultQuoteURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: now,
	}
	if baseURL = strings.TrimRight(baseURL, "/"); baseURL != "" {
		c.estimateURL, c.holdingsURL, c.quoteURL = baseURL, baseURL, baseURL
	}
	return c
}

// estimatePayload is the body of the fundgz JSONP callback
type estimatePayload struct {
	FundCode string `json:"fundcode"`
	Name     string `json:"name"`
	NavDate  string `json:"jzrq"`
	Nav      string `json:"dwjz"`
	EstNav   string `json:"gsz"`
	EstRate  string `json:"gszzl"`
	EstTime  string `json:"gztime"`
}

// FetchFundMetadata fetches name and latest published NAV
func (c *EastmoneyClient) FetchFundMetadata(ctx context.Context, fundCode string) (*domain.Fund, error) {
	endpoint := fmt.Sprintf("%s/js/%s.js?rt=%d", c.estimateURL, url.PathEscape(fundCode), c.now().Unix())
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	raw := parseJSONP(body)
	if raw == "" {
		return nil, fmt.Errorf("%w: no estimate data for fund %s", domain.ErrNotFound, fundCode)
	}

	var p estimatePayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: failed to decode estimate for %s: %v", domain.ErrUnavailable, fundCode, err)
	}

	nav, err := strconv.ParseFloat(p.Nav, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad nav %q for %s", domain.ErrUnavailable, p.Nav, fundCode)
	}

	// gsz/gszzl are the upstream's own estimate; ours is derived from holdings.
	return &domain.Fund{
		FundCode:  fundCode,
		FundName:  p.Name,
		LatestNav: nav,
	}, nil
}

type holdingsPayload struct {
	Datas struct {
		InverstPositionList []struct {
			Code  string `json:"GPDM"`
			Name  string `json:"GPNM"`
			Ratio string `json:"JZBL"`
		} `json:"InverstPositionList"`
	} `json:"Datas"`
}

type quotePayload struct {
	Data struct {
		Diff []struct {
			Code   string      `json:"f12"`
			Price  quoteNumber `json:"f2"`
			Change quoteNumber `json:"f3"`
		} `json:"diff"`
	} `json:"data"`
}

// quoteNumber accepts numbers and the "-" placeholder sent for suspended stocks
type quoteNumber float64

// UnmarshalJSON implements json.Unmarshaler
func (q *quoteNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "-" || s == "null" {
		*q = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("unable to parse quote value: %s", s)
	}
	*q = quoteNumber(f)
	return nil
}

// FetchHoldings fetches the disclosed top stock positions and prices them with live quotes
func (c *EastmoneyClient) FetchHoldings(ctx context.Context, fundCode string) ([]*domain.FundStock, error) {
	q := url.Values{}
	q.Set("FCODE", fundCode)
	q.Set("deviceid", "myfunds")
	q.Set("plat", "Iphone")
	q.Set("product", "EFund")
	q.Set("version", "6.0.0")

	body, err := c.get(ctx, c.holdingsURL+"/FundMNewApi/FundMNBasicInformation?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var hp holdingsPayload
	if err := json.Unmarshal(body, &hp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode holdings for %s: %v", domain.ErrUnavailable, fundCode, err)
	}

	positions := hp.Datas.InverstPositionList
	if len(positions) == 0 {
		return []*domain.FundStock{}, nil
	}

	reportDate := utils.GetStartOfDay(c.now())
	holdings := make([]*domain.FundStock, 0, len(positions))
	secids := make([]string, 0, len(positions))
	for _, p := range positions {
		ratio, _ := strconv.ParseFloat(p.Ratio, 64)
		holdings = append(holdings, &domain.FundStock{
			StockCode:    p.Code,
			StockName:    p.Name,
			HoldingRatio: ratio,
			ReportDate:   reportDate,
		})
		secids = append(secids, secID(p.Code))
	}

	quotes, err := c.fetchQuotes(ctx, secids)
	if err != nil {
		return nil, err
	}
	for _, h := range holdings {
		if qt, ok := quotes[h.StockCode]; ok {
			h.StockPrice = qt[0]
			h.DayGrowth = qt[1]
		}
	}

	return holdings, nil
}

// fetchQuotes returns code -> [price, change percent]
func (c *EastmoneyClient) fetchQuotes(ctx context.Context, secids []string) (map[string][2]float64, error) {
	endpoint := fmt.Sprintf("%s/api/qt/ulist.np/get?fields=f12,f14,f2,f3&secids=%s",
		c.quoteURL, url.QueryEscape(strings.Join(secids, ",")))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var qp quotePayload
	if err := json.Unmarshal(body, &qp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode quotes: %v", domain.ErrUnavailable, err)
	}

	quotes := make(map[string][2]float64, len(qp.Data.Diff))
	for _, d := range qp.Data.Diff {
		quotes[d.Code] = [2]float64{float64(d.Price), float64(d.Change)}
	}
	return quotes, nil
}

func (c *EastmoneyClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0 Safari/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: market data request failed: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: market data returned 404", domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: market data error: status=%d, body=%s", domain.ErrUnavailable, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", domain.ErrUnavailable, err)
	}
	return body, nil
}

// parseJSONP strips a JSONP callback wrapper, returning "" when there is no object
func parseJSONP(body []byte) string {
	raw := string(body)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || start >= end {
		return ""
	}
	return raw[start : end+1]
}

// secID prefixes the exchange: 1 for Shanghai (6xxxxx), 0 for Shenzhen and Beijing
func secID(code string) string {
	if strings.HasPrefix(code, "6") {
		return "1." + code
	}
	return "0." + code
}
