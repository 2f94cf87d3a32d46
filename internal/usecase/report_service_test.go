package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type stubDispatcher struct {
	outcome ReportOutcome
	err     error
	calls   int
	lastJob ReportJob
}

func (d *stubDispatcher) Dispatch(ctx context.Context, job ReportJob) (ReportOutcome, error) {
	d.calls++
	d.lastJob = job
	return d.outcome, d.err
}

func validPitchingRequest() ReportRequest {
	return ReportRequest{
		Kind:       "pitching",
		PlayerID:   "99",
		PlayerName: "Casey Jones",
		Season:     2025,
		StartDate:  "2025-02-01",
		EndDate:    "2025-05-01",
	}
}

func TestRequestReport(t *testing.T) {
	t.Parallel()

	dispatcher := &stubDispatcher{outcome: ReportOutcome{
		JobID:        "job-1",
		Status:       ReportStatusSucceeded,
		Success:      true,
		ArtifactPath: "/reports/jones.pdf",
	}}
	service := NewReportService(dispatcher, 2025, nil)

	result, err := service.RequestReport(context.Background(), validPitchingRequest())
	if err != nil {
		t.Fatalf("RequestReport returned error: %v", err)
	}
	if result.JobID != "job-1" || result.Status != string(ReportStatusSucceeded) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.ArtifactPath != "/reports/jones.pdf" {
		t.Fatalf("ArtifactPath = %q", result.ArtifactPath)
	}

	job := dispatcher.lastJob
	if job.Kind != ReportKindPitching || job.PlayerID != "99" || job.StartDate != "2025-02-01" {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestRequestReportDefaultsSeason(t *testing.T) {
	t.Parallel()

	dispatcher := &stubDispatcher{outcome: ReportOutcome{Success: true}}
	service := NewReportService(dispatcher, 2025, nil)

	request := ReportRequest{Kind: "scouting", TeamID: "4807", TeamName: "Navy"}
	if _, err := service.RequestReport(context.Background(), request); err != nil {
		t.Fatalf("RequestReport returned error: %v", err)
	}
	if dispatcher.lastJob.Season != 2025 {
		t.Fatalf("Season = %d, want configured 2025", dispatcher.lastJob.Season)
	}
}

func TestRequestReportValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*ReportRequest)
		request *ReportRequest
	}{
		{name: "unknown kind", mutate: func(r *ReportRequest) { r.Kind = "lineup" }},
		{name: "pitching without player id", mutate: func(r *ReportRequest) { r.PlayerID = "" }},
		{name: "pitching without player name", mutate: func(r *ReportRequest) { r.PlayerName = "" }},
		{name: "malformed start date", mutate: func(r *ReportRequest) { r.StartDate = "02/01/2025" }},
		{name: "missing end date", mutate: func(r *ReportRequest) { r.EndDate = "" }},
		{name: "start after end", mutate: func(r *ReportRequest) {
			r.StartDate = "2025-06-01"
			r.EndDate = "2025-05-01"
		}},
		{
			name:    "umpire without away team",
			request: &ReportRequest{Kind: "umpire", HomeTeamID: "4806", HomeTeam: "Air Force", StartDate: "2025-03-01", EndDate: "2025-03-03"},
		},
		{
			name:    "scouting without team",
			request: &ReportRequest{Kind: "scouting"},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dispatcher := &stubDispatcher{}
			service := NewReportService(dispatcher, 2025, nil)

			request := validPitchingRequest()
			if tc.request != nil {
				request = *tc.request
			}
			if tc.mutate != nil {
				tc.mutate(&request)
			}

			_, err := service.RequestReport(context.Background(), request)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if dispatcher.calls != 0 {
				t.Fatal("dispatcher invoked for invalid request")
			}
		})
	}
}

func TestRequestReportScoutingNeedsNoDates(t *testing.T) {
	t.Parallel()

	dispatcher := &stubDispatcher{outcome: ReportOutcome{Success: true}}
	service := NewReportService(dispatcher, 2025, nil)

	request := ReportRequest{Kind: "scouting", TeamID: "4807", TeamName: "Navy"}
	if _, err := service.RequestReport(context.Background(), request); err != nil {
		t.Fatalf("RequestReport returned error: %v", err)
	}
}

func TestRequestReportDispatcherFailurePropagates(t *testing.T) {
	t.Parallel()

	dispatcher := &stubDispatcher{
		outcome: ReportOutcome{JobID: "job-9", Status: ReportStatusTimedOut},
		err:     fmt.Errorf("%w: job job-9 exceeded 300s", ErrReportTimeout),
	}
	service := NewReportService(dispatcher, 2025, nil)

	result, err := service.RequestReport(context.Background(), validPitchingRequest())
	if !errors.Is(err, ErrReportTimeout) {
		t.Fatalf("expected ErrReportTimeout, got %v", err)
	}
	if result.JobID != "job-9" || result.Status != string(ReportStatusTimedOut) {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRequestReportWithoutDispatcher(t *testing.T) {
	t.Parallel()

	service := NewReportService(nil, 2025, nil)
	_, err := service.RequestReport(context.Background(), validPitchingRequest())
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
