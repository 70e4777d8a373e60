package jquants

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hika3390/jquants-backtest/internal/core"
)

func TestValidateCode(t *testing.T) {
	tests := []struct {
		code    string
		wantErr bool
	}{
		{"7203", false},
		{"72030", false},
		{"", true},
		{"abc", true},
		{"720", true},
		{"720300", true},
	}

	for _, tc := range tests {
		err := validateCode(tc.code)
		if (err != nil) != tc.wantErr {
			t.Errorf("validateCode(%q) error = %v, wantErr %v", tc.code, err, tc.wantErr)
		}
	}
}

func TestClient_DailyQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization header = %q", got)
		}
		if got := r.URL.Path; got != "/prices/daily_quotes" {
			t.Errorf("path = %q", got)
		}
		q := r.URL.Query()
		if q.Get("code") != "7203" || q.Get("from") != "2024-01-04" || q.Get("to") != "2024-01-05" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"daily_quotes":[
			{"Date":"2024-01-04","Open":2500,"High":2550,"Low":2480,"Close":2530,"Volume":1000000,"AdjustmentClose":2530,"TurnoverValue":2530000000},
			{"Date":"2024-01-05","Open":2530,"High":2600,"Low":2520,"Close":2590,"Volume":1200000,"AdjustmentClose":2590,"TurnoverValue":3108000000}
		]}`))
	}))
	defer srv.Close()

	c := New("test-token").WithBaseURL(srv.URL)
	from := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	quotes, err := c.DailyQuotes(context.Background(), "7203", from, to)
	if err != nil {
		t.Fatalf("DailyQuotes: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}
	if quotes[0].Close != 2530 {
		t.Errorf("quotes[0].Close = %f, want 2530", quotes[0].Close)
	}
	if quotes[0].Code != "7203" {
		t.Errorf("quotes[0].Code = %q, want 7203", quotes[0].Code)
	}
	if !quotes[1].Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("quotes[1].Date = %v", quotes[1].Date)
	}
}

func TestClient_DailyQuotes_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily_quotes":[]}`))
	}))
	defer srv.Close()

	c := New("tok").WithBaseURL(srv.URL)
	_, err := c.DailyQuotes(context.Background(), "7203", time.Now(), time.Now())
	if !errors.Is(err, core.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestClient_DailyQuotes_BadCode(t *testing.T) {
	c := New("tok")
	_, err := c.DailyQuotes(context.Background(), "bad", time.Now(), time.Now())
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestClient_DailyQuotes_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("tok").WithBaseURL(srv.URL)
	_, err := c.DailyQuotes(context.Background(), "7203", time.Now(), time.Now())
	if !errors.Is(err, core.ErrProviderFailed) {
		t.Errorf("expected ErrProviderFailed, got %v", err)
	}
}

func TestClient_DailyQuotes_SkipsMalformedDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily_quotes":[
			{"Date":"not-a-date","Close":100},
			{"Date":"2024-01-05","Close":2590}
		]}`))
	}))
	defer srv.Close()

	c := New("tok").WithBaseURL(srv.URL)
	quotes, err := c.DailyQuotes(context.Background(), "7203", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("DailyQuotes: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}
}

func TestClient_ValidateStockCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/listed/info" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("code") == "7203" {
			w.Write([]byte(`{"info":[{"Code":"72030","CompanyName":"Toyota Motor","MarketCode":"0111"}]}`))
			return
		}
		w.Write([]byte(`{"info":[]}`))
	}))
	defer srv.Close()

	c := New("tok").WithBaseURL(srv.URL)

	ok, err := c.ValidateStockCode(context.Background(), "7203")
	if err != nil {
		t.Fatalf("ValidateStockCode: %v", err)
	}
	if !ok {
		t.Error("expected 7203 to be listed")
	}

	ok, err = c.ValidateStockCode(context.Background(), "9999")
	if err != nil {
		t.Fatalf("ValidateStockCode: %v", err)
	}
	if ok {
		t.Error("expected 9999 to be unlisted")
	}

	ok, err = c.ValidateStockCode(context.Background(), "bad")
	if err != nil {
		t.Fatalf("ValidateStockCode: %v", err)
	}
	if ok {
		t.Error("malformed code should not validate")
	}
}
