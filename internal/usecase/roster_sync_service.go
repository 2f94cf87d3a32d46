package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/justin-graham/AFBaseball/internal/domain/player"
	"github.com/justin-graham/AFBaseball/internal/domain/team"
	"github.com/justin-graham/AFBaseball/internal/platform/logging"
	"github.com/justin-graham/AFBaseball/internal/tabular"
)

// defaultUpsertBatchSize bounds one repository transaction. Batches run
// sequentially so a failure leaves a clean prefix of durable rows.
const defaultUpsertBatchSize = 1000

const (
	tableNameTeams   = "AllTeams"
	tableNamePlayers = "PlayerTotals"
)

// RosterFeed is the slice of the analytics feed the sync service consumes.
type RosterFeed interface {
	FetchAllTeams(ctx context.Context, seasonYear int) (string, error)
	FetchPlayerTotals(ctx context.Context, seasonYear int, seasonType string, columns []string, minPA int) (string, error)
}

type RosterSyncConfig struct {
	Enabled     bool
	SeasonYear  int
	SeasonType  string
	PlayerMinPA int
	BatchSize   int
	MaxWorkers  int
}

type RosterSyncService struct {
	cfg        RosterSyncConfig
	feed       RosterFeed
	teamRepo   team.Repository
	playerRepo player.Repository
	logger     *logging.Logger
	now        func() time.Time
}

func NewRosterSyncService(
	cfg RosterSyncConfig,
	feed RosterFeed,
	teamRepo team.Repository,
	playerRepo player.Repository,
	logger *logging.Logger,
) *RosterSyncService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultUpsertBatchSize
	}
	if cfg.SeasonType == "" {
		cfg.SeasonType = "REG"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RosterSyncService{
		cfg:        cfg,
		feed:       feed,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// SyncResult summarizes one table sync. Upserted is the number of rows
// durably written even when the sync as a whole failed partway.
type SyncResult struct {
	Table      string `json:"table"`
	Fetched    int    `json:"fetched"`
	Dropped    int    `json:"dropped"`
	Upserted   int    `json:"upserted"`
	DurationMs int64  `json:"duration_ms"`
}

func (s *RosterSyncService) SyncTeams(ctx context.Context) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterSyncService.SyncTeams")
	defer span.End()

	result := SyncResult{Table: tableNameTeams}
	if err := s.ready(); err != nil {
		return result, err
	}
	start := s.now()

	raw, err := s.feed.FetchAllTeams(ctx, s.cfg.SeasonYear)
	if err != nil {
		return result, fmt.Errorf("fetch teams table: %w", err)
	}

	table, err := decodeTable(raw, teamFeedFields())
	if err != nil {
		return result, fmt.Errorf("decode teams table: %w", err)
	}
	result.Fetched = len(table.Records)
	result.Dropped = table.Dropped

	syncedAt := s.now().UTC()
	entities := make([]team.Team, 0, len(table.Records))
	for _, record := range table.Records {
		entities = append(entities, team.Team{
			ExternalID: record.Value("teamID"),
			Name:       record.Value("fullName"),
			Abbrev:     record.Value("abbrev"),
			SyncedAt:   syncedAt,
		})
	}

	upserted, err := reconcileBatches(len(entities), s.cfg.BatchSize, func(lo, hi int) error {
		return s.teamRepo.UpsertBatch(ctx, entities[lo:hi])
	})
	result.Upserted = upserted
	result.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		return result, fmt.Errorf("sync teams: %w", err)
	}

	s.logger.InfoContext(ctx, "teams synced",
		"fetched", result.Fetched,
		"dropped", result.Dropped,
		"upserted", result.Upserted,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

func (s *RosterSyncService) SyncPlayers(ctx context.Context) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterSyncService.SyncPlayers")
	defer span.End()

	result := SyncResult{Table: tableNamePlayers}
	if err := s.ready(); err != nil {
		return result, err
	}
	start := s.now()

	raw, err := s.feed.FetchPlayerTotals(ctx, s.cfg.SeasonYear, s.cfg.SeasonType, nil, s.cfg.PlayerMinPA)
	if err != nil {
		return result, fmt.Errorf("fetch players table: %w", err)
	}

	table, err := decodeTable(raw, playerFeedFields())
	if err != nil {
		return result, fmt.Errorf("decode players table: %w", err)
	}
	result.Fetched = len(table.Records)
	result.Dropped = table.Dropped

	syncedAt := s.now().UTC()
	entities := make([]player.Player, 0, len(table.Records))
	for _, record := range table.Records {
		entities = append(entities, player.Player{
			ExternalID:     record.Value("playerID"),
			Name:           record.Value("playerName"),
			TeamExternalID: record.Value("teamID"),
			SeasonYear:     s.cfg.SeasonYear,
			Stats:          extractPlayerStats(record),
			SyncedAt:       syncedAt,
		})
	}

	upserted, err := reconcileBatches(len(entities), s.cfg.BatchSize, func(lo, hi int) error {
		return s.playerRepo.UpsertBatch(ctx, entities[lo:hi])
	})
	result.Upserted = upserted
	result.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		return result, fmt.Errorf("sync players: %w", err)
	}

	s.logger.InfoContext(ctx, "players synced",
		"fetched", result.Fetched,
		"dropped", result.Dropped,
		"upserted", result.Upserted,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

func (s *RosterSyncService) ready() error {
	if !s.cfg.Enabled {
		return fmt.Errorf("%w: roster sync is disabled (TRUMEDIA_ENABLED=false)", ErrDependencyUnavailable)
	}
	if s.feed == nil || s.teamRepo == nil || s.playerRepo == nil {
		return fmt.Errorf("%w: roster sync is not fully configured", ErrDependencyUnavailable)
	}
	return nil
}

// reconcileBatches submits [0,total) in sequential slices of batchSize.
// On a batch failure it reports how many rows earlier batches durably
// wrote, wrapped with the failing batch index.
func reconcileBatches(total, batchSize int, upsert func(lo, hi int) error) (int, error) {
	upserted := 0
	batch := 0
	for lo := 0; lo < total; lo += batchSize {
		hi := lo + batchSize
		if hi > total {
			hi = total
		}
		batch++
		if err := upsert(lo, hi); err != nil {
			return upserted, fmt.Errorf("%w: upsert batch %d: %v", ErrPersistence, batch, err)
		}
		upserted += hi - lo
	}
	return upserted, nil
}

func decodeTable(raw string, fields []tabular.Field) (*tabular.Table, error) {
	table, err := tabular.Decode(raw, fields)
	if err != nil {
		var schemaErr *tabular.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, fmt.Errorf("%w: %v", ErrFeedSchema, schemaErr)
		}
		return nil, err
	}
	return table, nil
}

// playerStatColumns are the numeric totals requested from the feed; values
// that fail to parse are simply absent from the stats document.
var playerStatColumns = []string{"PA", "AB", "H", "HR", "RBI", "BB", "K", "AVG", "OBP", "SLG", "OPS"}

func teamFeedFields() []tabular.Field {
	return []tabular.Field{
		{Name: "teamID", Required: true, Predicates: []tabular.Predicate{
			tabular.Exact("teamId"),
			tabular.ContainsExcept("id", "name", "game", "season"),
		}},
		{Name: "fullName", Required: true, Predicates: []tabular.Predicate{
			tabular.Exact("fullName"),
			tabular.ContainsExcept("name", "abbrev", "short"),
		}},
		{Name: "abbrev", Predicates: []tabular.Predicate{
			tabular.Exact("abbrevName"),
			tabular.Contains("abbrev"),
		}},
	}
}

func playerFeedFields() []tabular.Field {
	fields := []tabular.Field{
		{Name: "playerID", Required: true, Predicates: []tabular.Predicate{
			tabular.Exact("playerId"),
			tabular.ContainsExcept("id", "team", "name", "game", "season"),
		}},
		{Name: "playerName", Required: true, Predicates: []tabular.Predicate{
			tabular.Exact("playerFullName"),
			tabular.ContainsExcept("name", "team", "abbrev"),
		}},
		{Name: "teamID", Predicates: []tabular.Predicate{
			tabular.Exact("teamId"),
			tabular.ContainsExcept("team", "name", "abbrev"),
		}},
	}
	for _, column := range playerStatColumns {
		fields = append(fields, tabular.Field{
			Name:       column,
			Predicates: []tabular.Predicate{tabular.Exact(column)},
		})
	}
	return fields
}

func extractPlayerStats(record tabular.Record) map[string]float64 {
	stats := make(map[string]float64, len(playerStatColumns))
	for _, column := range playerStatColumns {
		value := record.Value(column)
		if value == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		stats[column] = parsed
	}
	return stats
}
