package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("GET /v1/teams/{teamID}/players", handler.ListTeamRoster)
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/players/{playerID}", handler.GetPlayer)
	mux.HandleFunc("POST /v1/reports", handler.CreateReport)
}

func registerInternalSyncRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/sync/teams", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SyncTeams)))
	mux.Handle("POST /v1/internal/sync/players", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SyncPlayers)))
	mux.Handle("POST /v1/internal/sync/all", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SyncAll)))
}
