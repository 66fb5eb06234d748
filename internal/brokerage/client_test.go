package brokerage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const holdingsJSON = `{"status":"success","data":[
	{"tradingsymbol":"INFY","exchange":"NSE","quantity":10,"average_price":1400,"last_price":1500,"close_price":1480,"pnl":1000,"day_change":20,"day_change_percentage":1.35},
	{"tradingsymbol":"TCS","exchange":"NSE","quantity":2,"average_price":4000,"last_price":3900,"close_price":3950,"pnl":-200,"day_change":-50,"day_change_percentage":-1.27}
]}`

func TestClient_Holdings(t *testing.T) {
	var gotAuth, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("X-Kite-Version")
		if r.URL.Path != "/portfolio/holdings" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(holdingsJSON))
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL+"/", 5*time.Second)
	holdings, err := c.Holdings(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Holdings: %v", err)
	}
	if gotAuth != "token key:tok" || gotVersion != "3" {
		t.Errorf("headers = %q, %q", gotAuth, gotVersion)
	}
	if len(holdings) != 2 || holdings[0].Symbol != "INFY" || !holdings[0].LastPrice.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("holdings = %+v", holdings)
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"token exception", http.StatusForbidden, `{"status":"error","message":"Incorrect api_key or access_token.","error_type":"TokenException"}`, ErrUnauthorized},
		{"unauthorized", http.StatusUnauthorized, `nope`, ErrUnauthorized},
		{"server error", http.StatusInternalServerError, `{"status":"error","message":"boom","error_type":"GeneralException"}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient("key", srv.URL, time.Second).Holdings(context.Background(), "tok")
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && errors.Is(err, ErrUnauthorized) {
				t.Errorf("server error reported as unauthorized")
			}
		})
	}
}

func TestClient_OversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":[],"pad":"`))
		w.Write([]byte(strings.Repeat("x", maxResponseBytes)))
		w.Write([]byte(`"}`))
	}))
	defer srv.Close()

	_, err := NewClient("key", srv.URL, 5*time.Second).Holdings(context.Background(), "tok")
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Errorf("err = %v, want ErrResponseTooLarge", err)
	}
}

func TestClient_NotConfigured(t *testing.T) {
	if _, err := NewClient("", "http://example.invalid", time.Second).Holdings(context.Background(), "tok"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
	if _, err := NewClient("key", "http://example.invalid", time.Second).Holdings(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestChecksum(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("keyrequest"))
	want := hex.EncodeToString(mac.Sum(nil))

	if got := Checksum("key", "request", "secret"); got != want {
		t.Errorf("Checksum = %s, want %s", got, want)
	}
	if Checksum("key", "request", "other") == want {
		t.Error("checksum must depend on the secret")
	}
	if len(want) != 64 {
		t.Errorf("checksum length = %d", len(want))
	}
}

func TestSummarize(t *testing.T) {
	holdings := []Holding{
		{Symbol: "A", Quantity: decimal.NewFromInt(10), AveragePrice: decimal.NewFromInt(100), LastPrice: decimal.NewFromInt(120), ClosePrice: decimal.NewFromInt(110), DayChange: decimal.NewFromInt(10), DayChangePercent: decimal.RequireFromString("9.09")},
		{Symbol: "B", Quantity: decimal.NewFromInt(5), AveragePrice: decimal.NewFromInt(200), LastPrice: decimal.NewFromInt(180), ClosePrice: decimal.NewFromInt(190), DayChange: decimal.NewFromInt(-10), DayChangePercent: decimal.RequireFromString("-5.26")},
	}
	p := Summarize(holdings)
	if !p.Connected || p.Holdings != 2 {
		t.Fatalf("portfolio = %+v", p)
	}
	if !p.Invested.Equal(decimal.NewFromInt(2000)) || !p.CurrentValue.Equal(decimal.NewFromInt(2100)) {
		t.Errorf("invested/current = %s/%s", p.Invested, p.CurrentValue)
	}
	if p.PnLPercent != 5 {
		t.Errorf("PnLPercent = %v, want 5", p.PnLPercent)
	}
	if !p.DayChange.Equal(decimal.NewFromInt(50)) {
		t.Errorf("DayChange = %s, want 50", p.DayChange)
	}
	if len(p.TopGainers) != 1 || p.TopGainers[0].Symbol != "A" || len(p.TopLosers) != 1 || p.TopLosers[0].Symbol != "B" {
		t.Errorf("movers = %+v / %+v", p.TopGainers, p.TopLosers)
	}
	if Disconnected().Connected {
		t.Error("Disconnected should not be connected")
	}
}
