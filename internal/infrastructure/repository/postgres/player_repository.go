package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/justin-graham/AFBaseball/internal/domain/player"
	qb "github.com/justin-graham/AFBaseball/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) UpsertBatch(ctx context.Context, items []player.Player) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert players: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		stats, err := marshalPlayerStats(item.Stats)
		if err != nil {
			return fmt.Errorf("encode player stats player_id=%s: %w", item.ExternalID, err)
		}

		insertModel := playerInsertModel{
			PlayerID:   item.ExternalID,
			Name:       item.Name,
			TeamID:     nullableString(item.TeamExternalID),
			SeasonYear: item.SeasonYear,
			Stats:      stats,
			SyncedAt:   item.SyncedAt,
		}

		query, args, err := qb.InsertModel("players", insertModel, `ON CONFLICT (player_id)
DO UPDATE SET
    name = EXCLUDED.name,
    team_id = EXCLUDED.team_id,
    season_year = EXCLUDED.season_year,
    stats = EXCLUDED.stats,
    synced_at = EXCLUDED.synced_at,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert player query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert player player_id=%s: %w", item.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert players tx: %w", err)
	}

	return nil
}

func (r *PlayerRepository) List(ctx context.Context) ([]player.Player, error) {
	query, args, err := qb.Select("*").From("players").
		OrderBy("name", "player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players query: %w", err)
	}

	return r.selectPlayers(ctx, query, args)
}

func (r *PlayerRepository) ListByTeam(ctx context.Context, teamExternalID string) ([]player.Player, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("team_id", teamExternalID)).
		OrderBy("name", "player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players by team query: %w", err)
	}

	return r.selectPlayers(ctx, query, args)
}

func (r *PlayerRepository) GetByExternalID(ctx context.Context, externalID string) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("player_id", externalID)).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player player_id=%s: %w", externalID, err)
	}

	mapped, err := mapPlayerRow(row)
	if err != nil {
		return player.Player{}, false, err
	}
	return mapped, true, nil
}

func (r *PlayerRepository) selectPlayers(ctx context.Context, query string, args []any) ([]player.Player, error) {
	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		mapped, err := mapPlayerRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}

	return out, nil
}

func mapPlayerRow(row playerTableModel) (player.Player, error) {
	stats, err := unmarshalPlayerStats(row.Stats)
	if err != nil {
		return player.Player{}, fmt.Errorf("decode player stats player_id=%s: %w", row.PlayerID, err)
	}

	teamID := ""
	if row.TeamID.Valid {
		teamID = row.TeamID.String
	}

	return player.Player{
		ExternalID:     row.PlayerID,
		Name:           row.Name,
		TeamExternalID: teamID,
		SeasonYear:     row.SeasonYear,
		Stats:          stats,
		SyncedAt:       row.SyncedAt,
	}, nil
}

func marshalPlayerStats(stats map[string]float64) ([]byte, error) {
	if len(stats) == 0 {
		return []byte("{}"), nil
	}
	return sonic.Marshal(stats)
}

func unmarshalPlayerStats(raw []byte) (map[string]float64, error) {
	if len(raw) == 0 {
		return map[string]float64{}, nil
	}
	out := make(map[string]float64)
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
