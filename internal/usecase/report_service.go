package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/justin-graham/AFBaseball/internal/platform/logging"
)

const reportDateLayout = "2006-01-02"

// ReportRequest is the caller-facing report order. Which fields are
// required depends on the kind; the validator tags encode the per-kind
// rules and the date-order check runs after structural validation.
type ReportRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=pitching scouting umpire"`
	PlayerID   string `json:"playerId" validate:"required_if=Kind pitching"`
	PlayerName string `json:"playerName" validate:"required_if=Kind pitching"`
	TeamID     string `json:"teamId" validate:"required_if=Kind scouting"`
	TeamName   string `json:"teamName" validate:"required_if=Kind scouting"`
	HomeTeamID string `json:"homeTeamId" validate:"required_if=Kind umpire"`
	HomeTeam   string `json:"homeTeam" validate:"required_if=Kind umpire"`
	AwayTeamID string `json:"awayTeamId" validate:"required_if=Kind umpire"`
	AwayTeam   string `json:"awayTeam" validate:"required_if=Kind umpire"`
	Season     int    `json:"season" validate:"omitempty,gte=2000,lte=2100"`
	StartDate  string `json:"startDate" validate:"required_unless=Kind scouting,omitempty,datetime=2006-01-02"`
	EndDate    string `json:"endDate" validate:"required_unless=Kind scouting,omitempty,datetime=2006-01-02"`
	OutputDir  string `json:"outputDir" validate:"omitempty"`
}

// ReportResult is what the facade returns to callers on success.
type ReportResult struct {
	JobID        string `json:"job_id"`
	Status       string `json:"status"`
	ArtifactPath string `json:"artifact_path,omitempty"`
	Count        int    `json:"count,omitempty"`
}

type ReportService struct {
	dispatcher ReportDispatcher
	validator  *validator.Validate
	seasonYear int
	logger     *logging.Logger
}

func NewReportService(dispatcher ReportDispatcher, seasonYear int, logger *logging.Logger) *ReportService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReportService{
		dispatcher: dispatcher,
		validator:  validator.New(),
		seasonYear: seasonYear,
		logger:     logger,
	}
}

// RequestReport validates the order and hands it to the dispatcher. Invalid
// input never reaches a backend.
func (s *ReportService) RequestReport(ctx context.Context, request ReportRequest) (ReportResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportService.RequestReport")
	defer span.End()

	if s.dispatcher == nil {
		return ReportResult{}, fmt.Errorf("%w: report dispatch is not configured", ErrDependencyUnavailable)
	}
	if err := s.validate(ctx, request); err != nil {
		return ReportResult{}, err
	}

	season := request.Season
	if season == 0 {
		season = s.seasonYear
	}

	outcome, err := s.dispatcher.Dispatch(ctx, ReportJob{
		Kind:       ReportKind(request.Kind),
		PlayerID:   request.PlayerID,
		PlayerName: request.PlayerName,
		TeamID:     request.TeamID,
		TeamName:   request.TeamName,
		HomeTeamID: request.HomeTeamID,
		HomeTeam:   request.HomeTeam,
		AwayTeamID: request.AwayTeamID,
		AwayTeam:   request.AwayTeam,
		Season:     season,
		StartDate:  request.StartDate,
		EndDate:    request.EndDate,
		OutputDir:  request.OutputDir,
	})
	if err != nil {
		return ReportResult{JobID: outcome.JobID, Status: string(outcome.Status)}, err
	}

	return ReportResult{
		JobID:        outcome.JobID,
		Status:       string(outcome.Status),
		ArtifactPath: outcome.ArtifactPath,
		Count:        outcome.Count,
	}, nil
}

func (s *ReportService) validate(ctx context.Context, request ReportRequest) error {
	if err := s.validator.StructCtx(ctx, request); err != nil {
		return fmt.Errorf("%w: validation failed: %v", ErrInvalidInput, err)
	}

	if request.StartDate != "" && request.EndDate != "" {
		start, err := time.Parse(reportDateLayout, request.StartDate)
		if err != nil {
			return fmt.Errorf("%w: start date: %v", ErrInvalidInput, err)
		}
		end, err := time.Parse(reportDateLayout, request.EndDate)
		if err != nil {
			return fmt.Errorf("%w: end date: %v", ErrInvalidInput, err)
		}
		if start.After(end) {
			return fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidInput, request.StartDate, request.EndDate)
		}
	}

	return nil
}
