package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/justin-graham/AFBaseball/internal/domain/player"
	"github.com/justin-graham/AFBaseball/internal/platform/logging"
)

// PlayerService serves dashboard reads over the synced players table.
type PlayerService struct {
	repo   player.Repository
	logger *logging.Logger
}

func NewPlayerService(repo player.Repository, logger *logging.Logger) *PlayerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerService{repo: repo, logger: logger}
}

func (s *PlayerService) ListPlayers(ctx context.Context) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.ListPlayers")
	defer span.End()

	if s.repo == nil {
		return nil, fmt.Errorf("%w: player storage is not configured", ErrDependencyUnavailable)
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list players: %v", ErrPersistence, err)
	}
	return items, nil
}

func (s *PlayerService) ListTeamRoster(ctx context.Context, teamExternalID string) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.ListTeamRoster")
	defer span.End()

	teamExternalID = strings.TrimSpace(teamExternalID)
	if teamExternalID == "" {
		return nil, fmt.Errorf("%w: team id must not be empty", ErrInvalidInput)
	}
	if s.repo == nil {
		return nil, fmt.Errorf("%w: player storage is not configured", ErrDependencyUnavailable)
	}

	items, err := s.repo.ListByTeam(ctx, teamExternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: list roster team_id=%s: %v", ErrPersistence, teamExternalID, err)
	}
	return items, nil
}

func (s *PlayerService) GetPlayer(ctx context.Context, externalID string) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.GetPlayer")
	defer span.End()

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return player.Player{}, fmt.Errorf("%w: player id must not be empty", ErrInvalidInput)
	}
	if s.repo == nil {
		return player.Player{}, fmt.Errorf("%w: player storage is not configured", ErrDependencyUnavailable)
	}

	item, found, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return player.Player{}, fmt.Errorf("%w: get player %s: %v", ErrPersistence, externalID, err)
	}
	if !found {
		return player.Player{}, fmt.Errorf("%w: player %s", ErrNotFound, externalID)
	}
	return item, nil
}
