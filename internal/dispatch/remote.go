package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/justin-graham/AFBaseball/internal/platform/logging"
	"github.com/justin-graham/AFBaseball/internal/usecase"
)

const remoteMaxResponseBytes = 1 << 20

type RemoteBackendConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Logger     *logging.Logger
}

// RemoteBackend forwards report jobs to a generation service over HTTP. The
// service owns script execution; this side only ships parameters and waits
// for the uniform result payload.
type RemoteBackend struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

func NewRemoteBackend(cfg RemoteBackendConfig) *RemoteBackend {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No client timeout: the dispatcher context bounds the call, and a
		// shorter transport timeout would race it.
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &RemoteBackend{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		logger:     logger,
	}
}

type remoteJobPayload struct {
	JobID      string `json:"jobId"`
	Kind       string `json:"kind"`
	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	TeamID     string `json:"teamId,omitempty"`
	TeamName   string `json:"teamName,omitempty"`
	HomeTeamID string `json:"homeTeamId,omitempty"`
	HomeTeam   string `json:"homeTeam,omitempty"`
	AwayTeamID string `json:"awayTeamId,omitempty"`
	AwayTeam   string `json:"awayTeam,omitempty"`
	Season     int    `json:"season,omitempty"`
	StartDate  string `json:"startDate,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
	OutputDir  string `json:"outputDir,omitempty"`
}

func (b *RemoteBackend) Run(ctx context.Context, job usecase.ReportJob) (usecase.ReportOutcome, error) {
	if b.baseURL == "" {
		return usecase.ReportOutcome{}, fmt.Errorf("%w: remote report backend URL is not configured", usecase.ErrDependencyUnavailable)
	}

	body, err := sonic.Marshal(remoteJobPayload{
		JobID:      job.ID,
		Kind:       string(job.Kind),
		PlayerID:   job.PlayerID,
		PlayerName: job.PlayerName,
		TeamID:     job.TeamID,
		TeamName:   job.TeamName,
		HomeTeamID: job.HomeTeamID,
		HomeTeam:   job.HomeTeam,
		AwayTeamID: job.AwayTeamID,
		AwayTeam:   job.AwayTeam,
		Season:     job.Season,
		StartDate:  job.StartDate,
		EndDate:    job.EndDate,
		OutputDir:  job.OutputDir,
	})
	if err != nil {
		return usecase.ReportOutcome{}, fmt.Errorf("encode report job %s: %w", job.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return usecase.ReportOutcome{}, fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := b.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return usecase.ReportOutcome{}, ctx.Err()
		}
		return usecase.ReportOutcome{}, fmt.Errorf("%w: report service unreachable: %v", usecase.ErrDependencyUnavailable, err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, remoteMaxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return usecase.ReportOutcome{}, fmt.Errorf("read report response: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := remoteErrorMessage(raw)
		b.logger.WarnContext(ctx, "remote report request failed",
			"job_id", job.ID, "status", resp.StatusCode, "elapsed", time.Since(started).String())
		return usecase.ReportOutcome{}, fmt.Errorf("%w: report service status=%d: %s", usecase.ErrFeedUpstream, resp.StatusCode, message)
	}

	var payload resultPayload
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return usecase.ReportOutcome{}, fmt.Errorf("%w: job %s response is not a valid result: %v", usecase.ErrProtocol, job.ID, err)
	}

	if !payload.Success {
		message := strings.TrimSpace(payload.Error)
		if message == "" {
			message = "report service reported failure"
		}
		return usecase.ReportOutcome{}, fmt.Errorf("%w: job %s: %s", usecase.ErrExecution, job.ID, message)
	}

	return usecase.ReportOutcome{
		Success:      true,
		ArtifactPath: payload.PDFPath,
		Count:        payload.PitcherCount,
	}, nil
}

func remoteErrorMessage(raw []byte) string {
	var decoded struct {
		Error string `json:"error"`
	}
	if err := sonic.Unmarshal(raw, &decoded); err == nil && strings.TrimSpace(decoded.Error) != "" {
		return strings.TrimSpace(decoded.Error)
	}
	body := strings.TrimSpace(string(raw))
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	if body == "" {
		return "no error detail"
	}
	return body
}
