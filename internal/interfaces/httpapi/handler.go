package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/justin-graham/AFBaseball/internal/domain/player"
	"github.com/justin-graham/AFBaseball/internal/domain/team"
	"github.com/justin-graham/AFBaseball/internal/platform/logging"
	"github.com/justin-graham/AFBaseball/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

type Handler struct {
	teamService   *usecase.TeamService
	playerService *usecase.PlayerService
	syncService   *usecase.RosterSyncService
	reportService *usecase.ReportService
	logger        *logging.Logger
}

func NewHandler(
	teamService *usecase.TeamService,
	playerService *usecase.PlayerService,
	syncService *usecase.RosterSyncService,
	reportService *usecase.ReportService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		teamService:   teamService,
		playerService: playerService,
		syncService:   syncService,
		reportService: reportService,
		logger:        logger,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) SyncTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncTeams")
	defer span.End()

	result, err := h.syncService.SyncTeams(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "team sync failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) SyncPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncPlayers")
	defer span.End()

	result, err := h.syncService.SyncPlayers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "player sync failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncAll")
	defer span.End()

	result, err := h.syncService.SyncAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "full sync failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateReport")
	defer span.End()

	var request usecase.ReportRequest
	if err := decodeJSONBody(r, &request); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.reportService.RequestReport(ctx, request)
	if err != nil {
		h.logger.WarnContext(ctx, "report request failed", "kind", request.Kind, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.teamService.ListTeams(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	teamID := r.PathValue("teamID")
	found, err := h.teamService.GetTeam(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(found))
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	players, err := h.playerService.ListPlayers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list players failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playersToDTOs(players))
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	playerID := r.PathValue("playerID")
	found, err := h.playerService.GetPlayer(ctx, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get player failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerToDTO(found))
}

func (h *Handler) ListTeamRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamRoster")
	defer span.End()

	teamID := r.PathValue("teamID")
	players, err := h.playerService.ListTeamRoster(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "list team roster failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playersToDTOs(players))
}

func decodeJSONBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty request body", usecase.ErrInvalidInput)
	}
	if err := sonic.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type teamDTO struct {
	TeamID   string    `json:"teamId"`
	Name     string    `json:"name"`
	Abbrev   string    `json:"abbrev,omitempty"`
	SyncedAt time.Time `json:"syncedAt"`
}

func teamToDTO(t team.Team) teamDTO {
	return teamDTO{
		TeamID:   t.ExternalID,
		Name:     t.Name,
		Abbrev:   t.Abbrev,
		SyncedAt: t.SyncedAt,
	}
}

type playerDTO struct {
	PlayerID   string             `json:"playerId"`
	Name       string             `json:"name"`
	TeamID     string             `json:"teamId,omitempty"`
	SeasonYear int                `json:"seasonYear"`
	Stats      map[string]float64 `json:"stats,omitempty"`
	SyncedAt   time.Time          `json:"syncedAt"`
}

func playerToDTO(p player.Player) playerDTO {
	return playerDTO{
		PlayerID:   p.ExternalID,
		Name:       p.Name,
		TeamID:     p.TeamExternalID,
		SeasonYear: p.SeasonYear,
		Stats:      p.Stats,
		SyncedAt:   p.SyncedAt,
	}
}

func playersToDTOs(players []player.Player) []playerDTO {
	items := make([]playerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerToDTO(p))
	}

	return items
}
