package dispatch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/justin-graham/AFBaseball/internal/usecase"
)

func TestRemoteBackendSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/generate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}

		body, _ := io.ReadAll(r.Body)
		var payload remoteJobPayload
		if err := sonic.Unmarshal(body, &payload); err != nil {
			t.Errorf("decode job payload: %v", err)
		}
		if payload.Kind != "scouting" || payload.TeamID != "4807" {
			t.Errorf("unexpected payload: %+v", payload)
		}

		_, _ = w.Write([]byte(`{"success":true,"pdfPath":"/reports/navy.pdf","pitcherCount":5}`))
	}))
	t.Cleanup(server.Close)

	backend := NewRemoteBackend(RemoteBackendConfig{HTTPClient: server.Client(), BaseURL: server.URL})
	outcome, err := backend.Run(context.Background(), usecase.ReportJob{
		ID:       "job-1",
		Kind:     usecase.ReportKindScouting,
		TeamID:   "4807",
		TeamName: "Navy",
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !outcome.Success || outcome.ArtifactPath != "/reports/navy.pdf" || outcome.Count != 5 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestRemoteBackendUpstreamStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"generator crashed"}`))
	}))
	t.Cleanup(server.Close)

	backend := NewRemoteBackend(RemoteBackendConfig{HTTPClient: server.Client(), BaseURL: server.URL})
	_, err := backend.Run(context.Background(), usecase.ReportJob{ID: "job-2", Kind: usecase.ReportKindPitching})
	if !errors.Is(err, usecase.ErrFeedUpstream) {
		t.Fatalf("expected ErrFeedUpstream, got %v", err)
	}
	if !strings.Contains(err.Error(), "generator crashed") {
		t.Fatalf("error missing service detail: %v", err)
	}
}

func TestRemoteBackendFailureResult(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"player not found"}`))
	}))
	t.Cleanup(server.Close)

	backend := NewRemoteBackend(RemoteBackendConfig{HTTPClient: server.Client(), BaseURL: server.URL})
	_, err := backend.Run(context.Background(), usecase.ReportJob{ID: "job-3", Kind: usecase.ReportKindPitching})
	if !errors.Is(err, usecase.ErrExecution) {
		t.Fatalf("expected ErrExecution, got %v", err)
	}
}

func TestRemoteBackendUndecodableResult(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway page</html>`))
	}))
	t.Cleanup(server.Close)

	backend := NewRemoteBackend(RemoteBackendConfig{HTTPClient: server.Client(), BaseURL: server.URL})
	_, err := backend.Run(context.Background(), usecase.ReportJob{ID: "job-4", Kind: usecase.ReportKindUmpire})
	if !errors.Is(err, usecase.ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestRemoteBackendUnreachable(t *testing.T) {
	t.Parallel()

	backend := NewRemoteBackend(RemoteBackendConfig{BaseURL: "http://127.0.0.1:0"})
	_, err := backend.Run(context.Background(), usecase.ReportJob{ID: "job-5", Kind: usecase.ReportKindPitching})
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestRemoteBackendMissingBaseURL(t *testing.T) {
	t.Parallel()

	backend := NewRemoteBackend(RemoteBackendConfig{})
	_, err := backend.Run(context.Background(), usecase.ReportJob{ID: "job-6", Kind: usecase.ReportKindPitching})
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
