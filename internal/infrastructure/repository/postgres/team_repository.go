package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/justin-graham/AFBaseball/internal/domain/team"
	qb "github.com/justin-graham/AFBaseball/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// UpsertBatch writes one batch in a single transaction: either every row in
// the batch lands or none does.
func (r *TeamRepository) UpsertBatch(ctx context.Context, items []team.Team) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert teams: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		insertModel := teamInsertModel{
			TeamID:   item.ExternalID,
			Name:     item.Name,
			Abbrev:   item.Abbrev,
			SyncedAt: item.SyncedAt,
		}

		query, args, err := qb.InsertModel("teams", insertModel, `ON CONFLICT (team_id)
DO UPDATE SET
    name = EXCLUDED.name,
    abbrev = EXCLUDED.abbrev,
    synced_at = EXCLUDED.synced_at,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert team query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert team team_id=%s: %w", item.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert teams tx: %w", err)
	}

	return nil
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		OrderBy("name", "team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapTeamRow(row))
	}

	return out, nil
}

func (r *TeamRepository) GetByExternalID(ctx context.Context, externalID string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("team_id", externalID)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team team_id=%s: %w", externalID, err)
	}

	return mapTeamRow(row), true, nil
}

func mapTeamRow(row teamTableModel) team.Team {
	return team.Team{
		ExternalID: row.TeamID,
		Name:       row.Name,
		Abbrev:     row.Abbrev,
		SyncedAt:   row.SyncedAt,
	}
}
