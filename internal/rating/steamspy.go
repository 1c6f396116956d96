package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// Votes holds the community vote counts for one Steam app.
type Votes struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// Client fetches vote counts from SteamSpy. Lookups are paced to respect the
// service's one-request-per-second limit. Every failure mode degrades to
// zero votes; the ranker must never see a hard error from here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pause      time.Duration
	nextCall   time.Time
}

func NewClient(baseURL string, pause time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		pause:      pause,
	}
}

// AppVotes returns the vote counts for one app id. An empty id, a transport
// failure or a malformed body all yield zero votes.
func (c *Client) AppVotes(ctx context.Context, appID string) Votes {
	if appID == "" {
		return Votes{}
	}
	if err := c.waitTurn(ctx); err != nil {
		return Votes{}
	}

	endpoint := fmt.Sprintf("%s?request=appdetails&appid=%s", c.baseURL, url.QueryEscape(appID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Votes{}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Str("app_id", appID).Err(err).Msg("failed to fetch SteamSpy data")
		return Votes{}
	}
	defer resp.Body.Close()

	var votes Votes
	if err := json.NewDecoder(resp.Body).Decode(&votes); err != nil {
		log.Warn().Str("app_id", appID).Err(err).Msg("wrong SteamSpy data")
		return Votes{}
	}
	return votes
}

func (c *Client) waitTurn(ctx context.Context) error {
	if c.pause <= 0 {
		return ctx.Err()
	}
	now := time.Now()
	sleep := c.nextCall.Sub(now)
	c.nextCall = now.Add(c.pause)
	if sleep <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
