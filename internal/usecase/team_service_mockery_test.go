package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/justin-graham/AFBaseball/internal/domain/team"
	teammock "github.com/justin-graham/AFBaseball/internal/mocks/domain/team"
	"github.com/justin-graham/AFBaseball/internal/platform/logging"
)

func TestTeamService_ListTeams_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := teammock.NewRepository(t)
	service := NewTeamService(repo, logging.NewNop())

	expected := []team.Team{
		{ExternalID: "4806", Name: "Air Force", Abbrev: "AF"},
		{ExternalID: "4807", Name: "Army", Abbrev: "ARMY"},
	}

	repo.
		On("List", mock.Anything).
		Return(expected, nil).
		Once()

	got, err := service.ListTeams(ctx)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(got) != len(expected) {
		t.Fatalf("unexpected team count: got=%d want=%d", len(got), len(expected))
	}
	if got[0].ExternalID != expected[0].ExternalID {
		t.Fatalf("unexpected team id: got=%s want=%s", got[0].ExternalID, expected[0].ExternalID)
	}
}

func TestTeamService_ListTeams_RepoFailureUsingMockery(t *testing.T) {
	t.Parallel()

	repo := teammock.NewRepository(t)
	service := NewTeamService(repo, logging.NewNop())

	repo.
		On("List", mock.Anything).
		Return(nil, errors.New("connection refused")).
		Once()

	_, err := service.ListTeams(context.Background())
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestTeamService_GetTeam_NotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	repo := teammock.NewRepository(t)
	service := NewTeamService(repo, logging.NewNop())

	repo.
		On("GetByExternalID", mock.Anything, "9999").
		Return(team.Team{}, false, nil).
		Once()

	_, err := service.GetTeam(context.Background(), "9999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
