package geoguessr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/geoliga/geoliga/internal/logger"
	"github.com/geoliga/geoliga/internal/models"
)

const defaultBaseURL = "https://www.geoguessr.com"

// Client talks to the GeoGuessr web API. Challenge highscores require the
// _ncfa session cookie; the client sends it on every request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	ncfa       string
	pageSize   int
	maxPlayers int
	log        *logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithPageSize sets the highscores page size.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxPlayers caps how many rows are paged in per challenge.
func WithMaxPlayers(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxPlayers = n
		}
	}
}

func New(ncfa string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		ncfa:       ncfa,
		pageSize:   200,
		maxPlayers: 5000,
		log:        logger.Default().WithPrefix("geoguessr"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type highscoresPayload struct {
	Items []highscoreItem `json:"items"`
}

type highscoreItem struct {
	Game gamePayload `json:"game"`
}

type gamePayload struct {
	Token          string        `json:"token"`
	MapName        string        `json:"mapName"`
	ForbidMoving   bool          `json:"forbidMoving"`
	ForbidZooming  bool          `json:"forbidZooming"`
	ForbidRotating bool          `json:"forbidRotating"`
	TimeLimit      int           `json:"timeLimit"`
	Player         playerPayload `json:"player"`
}

type playerPayload struct {
	Nick               string      `json:"nick"`
	TotalScore         scoreAmount `json:"totalScore"`
	TotalScoreInPoints *float64    `json:"totalScoreInPoints"`
	TotalTime          *int        `json:"totalTime"`
}

type scoreAmount struct {
	Amount string `json:"amount"`
}

// MapInfo is the display metadata derived from a challenge's first item.
type MapInfo struct {
	Name     string
	RuleText string
}

// FetchHighscores pages through a challenge's highscores until a short page
// or the max-players cap, and returns one ResultRow per entry. Duplicate
// submissions are assumed to be resolved by the API (one row per player).
func (c *Client) FetchHighscores(ctx context.Context, challengeToken string) ([]models.ResultRow, MapInfo, error) {
	log := logger.FromContext(ctx).WithPrefix("geoguessr").WithField("challenge", challengeToken)

	var rows []models.ResultRow
	var info MapInfo
	offset := 0

	for {
		url := fmt.Sprintf("%s/api/v3/results/highscores/%s?friends=false&limit=%d&offset=%d",
			c.baseURL, challengeToken, c.pageSize, offset)

		var payload highscoresPayload
		if err := c.getJSON(ctx, url, &payload); err != nil {
			log.Error("highscores fetch failed at offset %d: %v", offset, err)
			return nil, MapInfo{}, err
		}
		if len(payload.Items) == 0 {
			break
		}

		if offset == 0 {
			first := payload.Items[0].Game
			info = MapInfo{Name: first.MapName, RuleText: RuleTextFromGame(first)}
		}

		for _, item := range payload.Items {
			row, ok := rowFromItem(item)
			if !ok {
				continue
			}
			rows = append(rows, row)
		}

		if len(payload.Items) < c.pageSize {
			break
		}
		offset += c.pageSize
		if offset >= c.maxPlayers {
			log.Warn("hit max players cap (%d), truncating", c.maxPlayers)
			break
		}
	}

	log.Info("fetched %d highscore rows", len(rows))
	return rows, info, nil
}

func rowFromItem(item highscoreItem) (models.ResultRow, bool) {
	nick := trimmedOrEmpty(item.Game.Player.Nick)
	if nick == "" {
		return models.ResultRow{}, false
	}

	pts := 0
	if v, ok := parseIntAmount(item.Game.Player.TotalScore.Amount); ok {
		pts = v
	} else if item.Game.Player.TotalScoreInPoints != nil {
		pts = int(*item.Game.Player.TotalScoreInPoints)
	}

	totalTime := models.MissingTimePenalty
	if item.Game.Player.TotalTime != nil {
		totalTime = *item.Game.Player.TotalTime
	}

	return models.ResultRow{
		Player:    nick,
		TotalPts:  pts,
		TotalTime: totalTime,
		GameToken: item.Game.Token,
	}, true
}

// playedAtEndpoints are tried in order; the API has changed schemas before,
// so played-at resolution stays tolerant of individual endpoint failures.
var playedAtEndpoints = []string{
	"%s/api/v3/games/%s",
	"%s/api/v3/results/%s",
}

// FetchPlayedAt resolves the instant a game was played, best effort. Returns
// nil without error when no endpoint yields a usable timestamp.
func (c *Client) FetchPlayedAt(ctx context.Context, gameToken string) (*time.Time, error) {
	log := logger.FromContext(ctx).WithPrefix("geoguessr").WithField("game", gameToken)

	for _, pattern := range playedAtEndpoints {
		url := fmt.Sprintf(pattern, c.baseURL, gameToken)
		var payload any
		if err := c.getJSON(ctx, url, &payload); err != nil {
			log.Debug("played-at endpoint failed: %s: %v", url, err)
			continue
		}
		if ts := scanPlayedAt(payload, log); ts != nil {
			return ts, nil
		}
	}
	log.Debug("no usable played-at timestamp found")
	return nil, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Referer", defaultBaseURL+"/")
	req.AddCookie(&http.Cookie{Name: "_ncfa", Value: c.ncfa})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return fmt.Errorf("status %d for %s: %s", resp.StatusCode, url, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
