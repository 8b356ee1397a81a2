package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// DefaultFinnhubURL is the base URL of the Finnhub REST API.
const DefaultFinnhubURL = "https://finnhub.io/api/v1"

// Finnhub is a Provider backed by the Finnhub REST API.
type Finnhub struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewFinnhub creates a Finnhub client. A zero timeout means no timeout.
func NewFinnhub(baseURL, apiKey string, timeout time.Duration) *Finnhub {
	if baseURL == "" {
		baseURL = DefaultFinnhubURL
	}
	return &Finnhub{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Quote fetches /quote for symbol.
func (f *Finnhub) Quote(ctx context.Context, symbol string) (Quote, error) {
	var q Quote
	if err := f.get(ctx, "/quote", symbol, &q); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// Profile fetches /stock/profile2 for symbol.
func (f *Finnhub) Profile(ctx context.Context, symbol string) (Profile, error) {
	var p Profile
	if err := f.get(ctx, "/stock/profile2", symbol, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// get performs an HTTP GET on a Finnhub resource and unmarshals the JSON body into data.
func (f *Finnhub) get(ctx context.Context, path, symbol string, data interface{}) error {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("token", f.apiKey)
	addr := f.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// the url holds the token, keep it out of the message
		if uerr, ok := err.(*url.Error); ok {
			err = uerr.Err
		}
		return fmt.Errorf("GET %s %s: %w", path, symbol, err)
	}
	defer resp.Body.Close()
	log.Printf("%v %v%v?symbol=%v %v", req.Method, req.URL.Host, req.URL.Path, symbol, resp.Status)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: GET %s %s", ErrRateLimited, path, symbol)
	case resp.StatusCode != http.StatusOK:
		return &StatusError{Path: path, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, data); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", path, symbol, err)
	}
	return nil
}
