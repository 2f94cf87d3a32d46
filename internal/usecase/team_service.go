package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/justin-graham/AFBaseball/internal/domain/team"
	"github.com/justin-graham/AFBaseball/internal/platform/logging"
)

// TeamService serves dashboard reads over the synced teams table.
type TeamService struct {
	repo   team.Repository
	logger *logging.Logger
}

func NewTeamService(repo team.Repository, logger *logging.Logger) *TeamService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamService{repo: repo, logger: logger}
}

func (s *TeamService) ListTeams(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.ListTeams")
	defer span.End()

	if s.repo == nil {
		return nil, fmt.Errorf("%w: team storage is not configured", ErrDependencyUnavailable)
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list teams: %v", ErrPersistence, err)
	}
	return items, nil
}

func (s *TeamService) GetTeam(ctx context.Context, externalID string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.GetTeam")
	defer span.End()

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return team.Team{}, fmt.Errorf("%w: team id must not be empty", ErrInvalidInput)
	}
	if s.repo == nil {
		return team.Team{}, fmt.Errorf("%w: team storage is not configured", ErrDependencyUnavailable)
	}

	item, found, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return team.Team{}, fmt.Errorf("%w: get team %s: %v", ErrPersistence, externalID, err)
	}
	if !found {
		return team.Team{}, fmt.Errorf("%w: team %s", ErrNotFound, externalID)
	}
	return item, nil
}
