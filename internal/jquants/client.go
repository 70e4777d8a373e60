// Package jquants is a thin client for the J-Quants REST API, the
// upstream source of daily quotes and listed-company information.
package jquants

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/hika3390/jquants-backtest/internal/core"
)

const defaultBaseURL = "https://api.jquants.com/v1"

// Stock codes are 4-5 digits, optionally with a market suffix digit.
var validCode = regexp.MustCompile(`^[0-9]{4,5}$`)

// validateCode checks if a stock code has valid format
func validateCode(code string) error {
	if code == "" {
		return fmt.Errorf("stock code cannot be empty")
	}
	if !validCode.MatchString(code) {
		return fmt.Errorf("invalid stock code format: %s", code)
	}
	return nil
}

// Client calls the J-Quants API with a bearer ID token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	idToken    string
}

// New creates a client authenticated with the given ID token.
func New(idToken string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
		idToken: idToken,
	}
}

// WithBaseURL overrides the API endpoint, mainly for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// DailyQuotes fetches daily quotes for a stock code over a date range,
// ordered ascending by date.
func (c *Client) DailyQuotes(ctx context.Context, code string, from, to time.Time) ([]core.Quote, error) {
	if err := validateCode(code); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	query := url.Values{}
	query.Set("code", code)
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))

	var result dailyQuotesResponse
	if err := c.get(ctx, "/prices/daily_quotes", query, &result); err != nil {
		return nil, err
	}
	if len(result.DailyQuotes) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("code %s", code))
	}

	quotes := make([]core.Quote, 0, len(result.DailyQuotes))
	for _, q := range result.DailyQuotes {
		date, err := time.Parse("2006-01-02", q.Date)
		if err != nil {
			continue // skip malformed rows
		}
		quotes = append(quotes, core.Quote{
			Date:                 date,
			Open:                 q.Open,
			High:                 q.High,
			Low:                  q.Low,
			Close:                q.Close,
			Volume:               q.Volume,
			AdjustmentClose:      q.AdjustmentClose,
			TurnoverValue:        q.TurnoverValue,
			SharesOutstanding:    q.SharesOutstanding,
			MarketCapitalization: q.MarketCapitalization,
			Code:                 code,
		})
	}
	return quotes, nil
}

// ValidateStockCode checks whether the code is listed.
func (c *Client) ValidateStockCode(ctx context.Context, code string) (bool, error) {
	if err := validateCode(code); err != nil {
		return false, nil
	}

	query := url.Values{}
	query.Set("code", code)

	var result listedInfoResponse
	if err := c.get(ctx, "/listed/info", query, &result); err != nil {
		return false, err
	}
	return len(result.Info) > 0, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return core.WrapError(core.ErrProviderFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.idToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return core.WrapError(core.ErrProviderTimeout, err)
		}
		return core.WrapError(core.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.WrapError(core.ErrProviderFailed, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// J-Quants API response types
type dailyQuotesResponse struct {
	DailyQuotes []dailyQuote `json:"daily_quotes"`
}

type dailyQuote struct {
	Date                 string  `json:"Date"`
	Open                 float64 `json:"Open"`
	High                 float64 `json:"High"`
	Low                  float64 `json:"Low"`
	Close                float64 `json:"Close"`
	Volume               float64 `json:"Volume"`
	AdjustmentClose      float64 `json:"AdjustmentClose"`
	TurnoverValue        float64 `json:"TurnoverValue"`
	SharesOutstanding    float64 `json:"SharesOutstanding"`
	MarketCapitalization float64 `json:"MarketCapitalization"`
}

type listedInfoResponse struct {
	Info []struct {
		Code        string `json:"Code"`
		CompanyName string `json:"CompanyName"`
		MarketCode  string `json:"MarketCode"`
	} `json:"info"`
}
