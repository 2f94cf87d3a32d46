package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/justin-graham/AFBaseball/internal/domain/player"
	"github.com/justin-graham/AFBaseball/internal/domain/team"
	"github.com/justin-graham/AFBaseball/internal/platform/logging"
	"github.com/justin-graham/AFBaseball/internal/usecase"
)

type stubTeamRepo struct {
	teams []team.Team
	err   error
}

func (s *stubTeamRepo) UpsertBatch(_ context.Context, items []team.Team) error { return s.err }

func (s *stubTeamRepo) List(_ context.Context) ([]team.Team, error) { return s.teams, s.err }

func (s *stubTeamRepo) GetByExternalID(_ context.Context, externalID string) (team.Team, bool, error) {
	for _, t := range s.teams {
		if t.ExternalID == externalID {
			return t, true, nil
		}
	}
	return team.Team{}, false, s.err
}

type stubPlayerRepo struct {
	players []player.Player
}

func (s *stubPlayerRepo) UpsertBatch(_ context.Context, items []player.Player) error { return nil }

func (s *stubPlayerRepo) List(_ context.Context) ([]player.Player, error) { return s.players, nil }

func (s *stubPlayerRepo) ListByTeam(_ context.Context, teamExternalID string) ([]player.Player, error) {
	roster := make([]player.Player, 0, len(s.players))
	for _, p := range s.players {
		if p.TeamExternalID == teamExternalID {
			roster = append(roster, p)
		}
	}
	return roster, nil
}

func (s *stubPlayerRepo) GetByExternalID(_ context.Context, externalID string) (player.Player, bool, error) {
	for _, p := range s.players {
		if p.ExternalID == externalID {
			return p, true, nil
		}
	}
	return player.Player{}, false, nil
}

type stubFeed struct {
	teamsCSV   string
	playersCSV string
	err        error
}

func (s *stubFeed) FetchAllTeams(_ context.Context, _ int) (string, error) {
	return s.teamsCSV, s.err
}

func (s *stubFeed) FetchPlayerTotals(_ context.Context, _ int, _ string, _ []string, _ int) (string, error) {
	return s.playersCSV, s.err
}

type stubDispatcher struct {
	outcome usecase.ReportOutcome
	err     error
	lastJob usecase.ReportJob
}

func (s *stubDispatcher) Dispatch(_ context.Context, job usecase.ReportJob) (usecase.ReportOutcome, error) {
	s.lastJob = job
	return s.outcome, s.err
}

type testEnv struct {
	router     http.Handler
	dispatcher *stubDispatcher
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	teamRepo := &stubTeamRepo{teams: []team.Team{
		{ExternalID: "4806", Name: "Air Force", Abbrev: "AF", SyncedAt: time.Now().UTC()},
	}}
	playerRepo := &stubPlayerRepo{players: []player.Player{
		{ExternalID: "p-1", Name: "Sam Doe", TeamExternalID: "4806", SeasonYear: 2025},
		{ExternalID: "p-2", Name: "Lee Roe", TeamExternalID: "4807", SeasonYear: 2025},
	}}
	feed := &stubFeed{
		teamsCSV:   "teamId,fullName,abbrevName\n4806,Air Force,AF\n",
		playersCSV: "playerId,playerFullName,teamId\np-1,Sam Doe,4806\n",
	}
	dispatcher := &stubDispatcher{outcome: usecase.ReportOutcome{
		JobID:        "job-1",
		Status:       usecase.ReportStatusSucceeded,
		Success:      true,
		ArtifactPath: "/reports/out.pdf",
		Count:        3,
	}}

	logger := logging.NewNop()
	handler := NewHandler(
		usecase.NewTeamService(teamRepo, logger),
		usecase.NewPlayerService(playerRepo, logger),
		usecase.NewRosterSyncService(usecase.RosterSyncConfig{Enabled: true, SeasonYear: 2025}, feed, teamRepo, playerRepo, logger),
		usecase.NewReportService(dispatcher, 2025, logger),
		logger,
	)

	return testEnv{
		router:     NewRouter(handler, logger, []string{"*"}, "sync-secret"),
		dispatcher: dispatcher,
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestRouter_Healthz(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRouter_ListTeams(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/teams", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	items, ok := body["data"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one team in data, got %v", body["data"])
	}
	first := items[0].(map[string]any)
	if got, _ := first["teamId"].(string); got != "4806" {
		t.Fatalf("expected teamId 4806, got %v", first["teamId"])
	}
}

func TestRouter_GetTeam_NotFound(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/teams/9999", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestRouter_ListTeamRoster(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/teams/4806/players", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	items, _ := body["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one rostered player, got %d", len(items))
	}
}

func TestRouter_CreateReport(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"kind":"pitching","playerId":"p-1","playerName":"Sam Doe","startDate":"2025-02-01","endDate":"2025-05-01"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["job_id"].(string); got != "job-1" {
		t.Fatalf("expected job_id job-1, got %v", data["job_id"])
	}
	if env.dispatcher.lastJob.PlayerID != "p-1" {
		t.Fatalf("expected dispatched player p-1, got %q", env.dispatcher.lastJob.PlayerID)
	}
}

func TestRouter_CreateReport_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty body", payload: ""},
		{name: "malformed json", payload: "{not json"},
		{name: "missing player fields", payload: `{"kind":"pitching","startDate":"2025-02-01","endDate":"2025-05-01"}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(tc.payload))
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_CreateReport_Timeout(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.outcome = usecase.ReportOutcome{JobID: "job-9", Status: usecase.ReportStatusTimedOut}
	env.dispatcher.err = fmt.Errorf("%w: report job job-9 exceeded deadline", usecase.ErrReportTimeout)

	payload := `{"kind":"scouting","teamId":"4806","teamName":"Air Force"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected status 504, got %d", rec.Code)
	}
}

func TestRouter_SyncTeams_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/sync/teams", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRouter_SyncTeams_WithToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/sync/teams", nil)
	req.Header.Set("X-Internal-Job-Token", "sync-secret")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["fetched"].(float64); got != 1 {
		t.Fatalf("expected fetched=1, got %v", data["fetched"])
	}
}

func TestRouter_SyncAll_WithToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/sync/all", nil)
	req.Header.Set("X-Internal-Job-Token", "sync-secret")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["task_count"].(float64); got != 2 {
		t.Fatalf("expected task_count=2, got %v", data["task_count"])
	}
}

func TestRouter_SyncPlayers_FeedFailureMapsToBadGateway(t *testing.T) {
	teamRepo := &stubTeamRepo{}
	playerRepo := &stubPlayerRepo{}
	feed := &stubFeed{err: fmt.Errorf("%w: status=502", usecase.ErrFeedUpstream)}
	logger := logging.NewNop()
	handler := NewHandler(
		usecase.NewTeamService(teamRepo, logger),
		usecase.NewPlayerService(playerRepo, logger),
		usecase.NewRosterSyncService(usecase.RosterSyncConfig{Enabled: true, SeasonYear: 2025}, feed, teamRepo, playerRepo, logger),
		usecase.NewReportService(&stubDispatcher{}, 2025, logger),
		logger,
	)
	router := NewRouter(handler, logger, nil, "sync-secret")

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/sync/players", nil)
	req.Header.Set("X-Internal-Job-Token", "sync-secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
}
