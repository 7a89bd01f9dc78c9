// Package fpl is a read-only client for the Fantasy Premier League API.
package fpl

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Client for the Fantasy Premier League API
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new FPL API client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "fpl").Logger(),
	}
}

// get makes a GET request and decodes the JSON body into out
func (c *Client) get(endpoint string, out interface{}) error {
	url := c.baseURL + endpoint

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// The API rejects requests without a browser-like User-Agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("FPL API returned status %d for %s: %s", resp.StatusCode, endpoint, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", endpoint, err)
	}

	return nil
}

// GetBootstrap fetches the game-wide feed: gameweeks, clubs, and all players
func (c *Client) GetBootstrap() (*Bootstrap, error) {
	var bootstrap Bootstrap
	if err := c.get("/bootstrap-static/", &bootstrap); err != nil {
		return nil, err
	}

	c.log.Debug().
		Int("players", len(bootstrap.Elements)).
		Int("gameweeks", len(bootstrap.Events)).
		Msg("Fetched bootstrap feed")

	return &bootstrap, nil
}

// GetEntry fetches a manager summary
func (c *Client) GetEntry(entryID int) (*Entry, error) {
	var entry Entry
	if err := c.get(fmt.Sprintf("/entry/%d/", entryID), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetPicks fetches the squad selection and bank for one gameweek
func (c *Client) GetPicks(entryID, event int) (*PicksResponse, error) {
	var picks PicksResponse
	if err := c.get(fmt.Sprintf("/entry/%d/event/%d/picks/", entryID, event), &picks); err != nil {
		return nil, err
	}
	return &picks, nil
}

// GetTransfers fetches the manager's full transfer ledger.
// The API returns newest-first; callers need chronological order for
// purchase-price replay, so the slice is sorted ascending by time before
// returning.
func (c *Client) GetTransfers(entryID int) ([]Transfer, error) {
	var transfers []Transfer
	if err := c.get(fmt.Sprintf("/entry/%d/transfers/", entryID), &transfers); err != nil {
		return nil, err
	}

	sort.SliceStable(transfers, func(i, j int) bool {
		if transfers[i].Event != transfers[j].Event {
			return transfers[i].Event < transfers[j].Event
		}
		return transfers[i].Time.Before(transfers[j].Time)
	})

	return transfers, nil
}

// GetHistory fetches the manager's per-gameweek season history
func (c *Client) GetHistory(entryID int) (*History, error) {
	var history History
	if err := c.get(fmt.Sprintf("/entry/%d/history/", entryID), &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// CurrentGameweek returns the id of the gameweek marked current in the
// bootstrap feed, or the next one if the season has not started. Returns
// an error when the events array carries neither marker.
func CurrentGameweek(bootstrap *Bootstrap) (int, error) {
	for _, gw := range bootstrap.Events {
		if gw.IsCurrent {
			return gw.ID, nil
		}
	}
	for _, gw := range bootstrap.Events {
		if gw.IsNext {
			return gw.ID, nil
		}
	}
	return 0, fmt.Errorf("bootstrap feed has no current or next gameweek")
}
