// Package trumedia talks to the TruMedia college-baseball feed. The feed
// exposes two surfaces: a site-admin endpoint that mints short-lived tokens
// from the master credential, and per-table CSV exports under DirectedQuery.
// Temp tokens are single-use in practice, so every table fetch mints a fresh
// one.
package trumedia

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/justin-graham/AFBaseball/internal/platform/logging"
	"github.com/justin-graham/AFBaseball/internal/platform/resilience"
	"github.com/justin-graham/AFBaseball/internal/usecase"
)

const (
	defaultBaseURL = "https://api.trumedianetworks.com"

	tempTokenPath = "/v1/siteadmin/api/createTempPBToken"
	tableBasePath = "/v1/mlbapi/custom/baseball/DirectedQuery"

	// Division 1 filter applied to the teams table; the feed carries lower
	// divisions and softball under the same export.
	divisionOneFilter = "(((season.seasonLevel IN ('BBC','SFT') AND team.game.gameLeague = 'D1')))"

	tableAllTeams     = "AllTeams"
	tablePlayerTotals = "PlayerTotals"

	maxResponseBytes = 6 << 20
)

// DefaultPlayerColumns is the stat column list requested from the player
// totals table.
var DefaultPlayerColumns = []string{
	"[PA]", "[AB]", "[H]", "[HR]", "[RBI]", "[BB]", "[K]",
	"[AVG]", "[OBP]", "[SLG]", "[OPS]",
}

var tokenParamRegex = regexp.MustCompile(`token=[^&\s"']+`)
var errTruMediaTransient = crerr.New("trumedia transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Username       string
	SiteName       string
	MasterToken    string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	username       string
	siteName       string
	masterToken    string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		username:       strings.TrimSpace(cfg.Username),
		siteName:       strings.TrimSpace(cfg.SiteName),
		masterToken:    strings.TrimSpace(cfg.MasterToken),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type tempTokenRequest struct {
	Username string `json:"username"`
	SiteName string `json:"sitename"`
	Token    string `json:"token"`
}

type tempTokenResponse struct {
	PBTempToken string `json:"pbTempToken"`
}

// CreateTempToken exchanges the master credential for a short-lived token.
// Every failure mode maps to usecase.ErrFeedAuth: without a temp token no
// table fetch can proceed.
func (c *Client) CreateTempToken(ctx context.Context) (string, error) {
	if c.username == "" || c.siteName == "" || c.masterToken == "" {
		return "", fmt.Errorf("%w: feed credentials are not configured", usecase.ErrFeedAuth)
	}

	body, err := sonic.Marshal(tempTokenRequest{
		Username: c.username,
		SiteName: c.siteName,
		Token:    c.masterToken,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode token request: %v", usecase.ErrFeedAuth, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tempTokenPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build token request: %v", usecase.ErrFeedAuth, err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.send(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", usecase.ErrFeedAuth, c.sanitize(err.Error()))
	}

	var decoded tempTokenResponse
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", usecase.ErrFeedAuth, err)
	}
	if strings.TrimSpace(decoded.PBTempToken) == "" {
		return "", fmt.Errorf("%w: token response carried no pbTempToken", usecase.ErrFeedAuth)
	}

	return decoded.PBTempToken, nil
}

// FetchTable downloads one DirectedQuery CSV export. A fresh temp token is
// minted per call; tokens are never cached or reused.
func (c *Client) FetchTable(ctx context.Context, table string, query url.Values) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", fmt.Errorf("table name must not be empty")
	}

	token, err := c.CreateTempToken(ctx)
	if err != nil {
		return "", err
	}

	values := url.Values{}
	for key, items := range query {
		for _, item := range items {
			values.Add(key, item)
		}
	}
	values.Set("token", token)

	fullURL := fmt.Sprintf("%s%s/%s.csv?%s", c.baseURL, tableBasePath, table, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("build table request %s: %w", table, err)
	}
	req.Header.Set("accept", "text/csv")

	raw, err := c.send(req)
	if err != nil {
		return "", fmt.Errorf("%w: table %s: %s", usecase.ErrFeedUpstream, table, c.sanitize(err.Error()))
	}

	return string(raw), nil
}

// FetchAllTeams downloads the Division 1 teams table for a season.
func (c *Client) FetchAllTeams(ctx context.Context, seasonYear int) (string, error) {
	if seasonYear <= 0 {
		return "", fmt.Errorf("season year must be greater than zero")
	}

	query := url.Values{}
	query.Set("seasonYear", strconv.Itoa(seasonYear))
	query.Set("filters", divisionOneFilter)
	return c.FetchTable(ctx, tableAllTeams, query)
}

// FetchPlayerTotals downloads season totals for every player, optionally
// restricted to those with at least minPA plate appearances. A nil columns
// slice requests DefaultPlayerColumns.
func (c *Client) FetchPlayerTotals(ctx context.Context, seasonYear int, seasonType string, columns []string, minPA int) (string, error) {
	if seasonYear <= 0 {
		return "", fmt.Errorf("season year must be greater than zero")
	}
	seasonType = strings.TrimSpace(seasonType)
	if seasonType == "" {
		seasonType = "REG"
	}
	if len(columns) == 0 {
		columns = DefaultPlayerColumns
	}

	query := url.Values{}
	query.Set("seasonYear", strconv.Itoa(seasonYear))
	query.Set("seasonType", seasonType)
	query.Set("columns", strings.Join(columns, ","))
	if minPA > 0 {
		query.Set("qualification", fmt.Sprintf("[PA] >= %d", minPA))
	}
	return c.FetchTable(ctx, tablePlayerTotals, query)
}

// send runs one request through the circuit breaker. The feed is not safe to
// retry (temp tokens burn on use), so a failure surfaces immediately.
func (c *Client) send(req *http.Request) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(req.Context(), "trumedia circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: analytics feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.execute(req)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errTruMediaTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return raw, err
}

func (c *Client) execute(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		reqErr := fmt.Errorf("%w: send request: %s", errTruMediaTransient, c.sanitize(err.Error()))
		c.logger.WarnContext(req.Context(), "trumedia request failed", "url", redactFeedURL(req.URL.String()), "error", reqErr)
		return nil, reqErr
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errTruMediaTransient, readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
		if isTransientStatus(resp.StatusCode) {
			statusErr = fmt.Errorf("%w: %v", errTruMediaTransient, statusErr)
		}
		c.logger.WarnContext(req.Context(), "trumedia request failed", "url", redactFeedURL(req.URL.String()), "status", resp.StatusCode)
		return nil, statusErr
	}

	return raw, nil
}

func isTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func (c *Client) sanitize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if c.masterToken != "" {
		value = strings.ReplaceAll(value, c.masterToken, "REDACTED")
	}
	value = tokenParamRegex.ReplaceAllString(value, "token=REDACTED")
	return value
}

func redactFeedURL(fullURL string) string {
	return tokenParamRegex.ReplaceAllString(fullURL, "token=REDACTED")
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return body
}
