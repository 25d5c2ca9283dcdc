package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/wildkids/internal/achievement"
	"github.com/playperu/wildkids/internal/auth"
	"github.com/playperu/wildkids/internal/content"
	"github.com/playperu/wildkids/internal/games"
	"github.com/playperu/wildkids/internal/handler/health"
	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/tracker"
)

// ErrorResponse is returned for all error responses. Field is set for
// inline form errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type gamePath struct {
	Game string `path:"game" description:"Game id or slug, e.g. findMe or find-me"`
}

type playPath struct {
	PlayID string `path:"playID"`
}

type idPath struct {
	ID string `path:"id"`
}

type startPlayRequest struct {
	gamePath
	StartPlayRequest
}

type moveRequest struct {
	playPath
	games.Move
}

type searchQuery struct {
	Q        string `query:"q"`
	Category string `query:"category" description:"animals, plants or all"`
	Type     string `query:"type" description:"mammal, bird, reptile, amphibian, insect, tree, flower, mushroom or all"`
	Habitat  string `query:"habitat" description:"forest, meadow, water or all"`
}

type suggestQuery struct {
	Q string `query:"q"`
}

type markerQuery struct {
	Type string `query:"type" description:"animal, plant, mushroom or all"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "WildKids API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Progress, achievements and mini-games of the WildKids site. " +
		"Send Authorization: Bearer <token> to act as a signed-in user; without it requests act for the guest.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies. Redis being down degrades the service.")
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/live
	getLive, _ := r.NewOperationContext(http.MethodGet, "/api/live")
	getLive.SetSummary("Live stats feed")
	getLive.SetDescription("Upgrades to a WebSocket that pushes snapshot, stats and signed_out messages. Pass token as query parameter.")
	getLive.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	getLive.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getLive)

	// POST /api/auth/register
	postRegister, _ := r.NewOperationContext(http.MethodPost, "/api/auth/register")
	postRegister.SetSummary("Register")
	postRegister.SetDescription("Creates an account and its profile with a random animal avatar. Returns a session token.")
	postRegister.AddReqStructure(auth.RegisterInput{})
	postRegister.AddRespStructure(AuthResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postRegister)

	// POST /api/auth/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/auth/login")
	postLogin.SetSummary("Log in")
	postLogin.SetDescription("Checks email and password. Returns a session token.")
	postLogin.AddReqStructure(auth.LoginInput{})
	postLogin.AddRespStructure(AuthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postLogin)

	// POST /api/auth/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/auth/logout")
	postLogout.SetSummary("Log out")
	postLogout.SetDescription("Revokes the token and ends every live stream of the user. Requires Bearer token.")
	postLogout.AddRespStructure(LogoutResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogout.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogout)

	// GET /api/auth/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/auth/me")
	getMe.SetSummary("Current user")
	getMe.SetDescription("Returns the signed-in user and profile. Requires Bearer token.")
	getMe.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/profile
	getProfile, _ := r.NewOperationContext(http.MethodGet, "/api/profile")
	getProfile.SetSummary("Profile page")
	getProfile.SetDescription("Returns profile, stats, per-game cards and achievements. Guests get no profile.")
	getProfile.AddRespStructure(tracker.ProfileView{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getProfile)

	// PATCH /api/profile
	patchProfile, _ := r.NewOperationContext(http.MethodPatch, "/api/profile")
	patchProfile.SetSummary("Edit profile")
	patchProfile.SetDescription("Changes display name or avatar. Requires Bearer token.")
	patchProfile.AddReqStructure(auth.ProfileInput{})
	patchProfile.AddRespStructure(progress.Profile{}, openapi.WithHTTPStatus(http.StatusOK))
	patchProfile.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	patchProfile.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	patchProfile.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	patchProfile.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(patchProfile)

	// GET /api/progress
	getStats, _ := r.NewOperationContext(http.MethodGet, "/api/progress")
	getStats.SetSummary("Aggregate stats")
	getStats.SetDescription("Returns total score, levels completed, games played and per-game progress. Never fails.")
	getStats.AddRespStructure(progress.Stats{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getStats)

	// GET /api/progress/{game}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/api/progress/{game}")
	getGame.SetSummary("Game progress")
	getGame.SetDescription("Returns completed levels, high scores and last played time of one game.")
	getGame.AddReqStructure(gamePath{})
	getGame.AddRespStructure(progress.GameProgress{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGame)

	// POST /api/progress
	postProgress, _ := r.NewOperationContext(http.MethodPost, "/api/progress")
	postProgress.SetSummary("Record completion")
	postProgress.SetDescription("Records a finished level and checks achievements. synced is false when only the on-device store was written.")
	postProgress.AddReqStructure(progress.Completion{})
	postProgress.AddRespStructure(tracker.Outcome{}, openapi.WithHTTPStatus(http.StatusOK))
	postProgress.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postProgress)

	// GET /api/achievements
	getAchievements, _ := r.NewOperationContext(http.MethodGet, "/api/achievements")
	getAchievements.SetSummary("Achievements")
	getAchievements.SetDescription("Returns the achievement catalog with unlocked flags.")
	getAchievements.AddRespStructure([]achievement.Status{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getAchievements)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events with stats, achievement and signed_out events. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getEvents)

	// GET /api/games
	getMenu, _ := r.NewOperationContext(http.MethodGet, "/api/games")
	getMenu.SetSummary("Game menu")
	getMenu.SetDescription("Lists the five games with per-level completion and high scores.")
	getMenu.AddRespStructure([]games.MenuEntry{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getMenu)

	// POST /api/games/{game}/plays
	postPlay, _ := r.NewOperationContext(http.MethodPost, "/api/games/{game}/plays")
	postPlay.SetSummary("Start play")
	postPlay.SetDescription("Starts a level of a game. Level defaults to 1.")
	postPlay.AddReqStructure(startPlayRequest{})
	postPlay.AddRespStructure(games.View{}, openapi.WithHTTPStatus(http.StatusCreated))
	postPlay.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postPlay.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postPlay)

	// GET /api/plays/{playID}
	getPlay, _ := r.NewOperationContext(http.MethodGet, "/api/plays/{playID}")
	getPlay.SetSummary("Get play")
	getPlay.AddReqStructure(playPath{})
	getPlay.AddRespStructure(games.View{}, openapi.WithHTTPStatus(http.StatusOK))
	getPlay.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getPlay)

	// POST /api/plays/{playID}/moves
	postMove, _ := r.NewOperationContext(http.MethodPost, "/api/plays/{playID}/moves")
	postMove.SetSummary("Make move")
	postMove.SetDescription("Applies one answer. Winning the level records the completion and attaches the result.")
	postMove.AddReqStructure(moveRequest{})
	postMove.AddRespStructure(games.MoveResult{}, openapi.WithHTTPStatus(http.StatusOK))
	postMove.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postMove.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postMove.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postMove)

	// POST /api/plays/{playID}/restart
	postRestart, _ := r.NewOperationContext(http.MethodPost, "/api/plays/{playID}/restart")
	postRestart.SetSummary("Restart level")
	postRestart.AddReqStructure(playPath{})
	postRestart.AddRespStructure(games.View{}, openapi.WithHTTPStatus(http.StatusOK))
	postRestart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postRestart)

	// POST /api/plays/{playID}/next
	postNext, _ := r.NewOperationContext(http.MethodPost, "/api/plays/{playID}/next")
	postNext.SetSummary("Next level")
	postNext.SetDescription("Ends the play and starts the next level, or returns menu=true after the last level.")
	postNext.AddReqStructure(playPath{})
	postNext.AddRespStructure(games.NextResult{}, openapi.WithHTTPStatus(http.StatusCreated))
	postNext.AddRespStructure(games.NextResult{}, openapi.WithHTTPStatus(http.StatusOK))
	postNext.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postNext)

	// DELETE /api/plays/{playID}
	deletePlay, _ := r.NewOperationContext(http.MethodDelete, "/api/plays/{playID}")
	deletePlay.SetSummary("Quit play")
	deletePlay.AddReqStructure(playPath{})
	deletePlay.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deletePlay.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deletePlay)

	// GET /api/encyclopedia
	getEncyclopedia, _ := r.NewOperationContext(http.MethodGet, "/api/encyclopedia")
	getEncyclopedia.SetSummary("Search encyclopedia")
	getEncyclopedia.AddReqStructure(searchQuery{})
	getEncyclopedia.AddRespStructure([]content.Entry{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getEncyclopedia)

	// GET /api/encyclopedia/suggest
	getSuggest, _ := r.NewOperationContext(http.MethodGet, "/api/encyclopedia/suggest")
	getSuggest.SetSummary("Search suggestions")
	getSuggest.SetDescription("Returns at most five entries whose names contain q.")
	getSuggest.AddReqStructure(suggestQuery{})
	getSuggest.AddRespStructure([]content.Entry{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getSuggest)

	// GET /api/encyclopedia/{id}
	getEntry, _ := r.NewOperationContext(http.MethodGet, "/api/encyclopedia/{id}")
	getEntry.SetSummary("Encyclopedia entry")
	getEntry.AddReqStructure(idPath{})
	getEntry.AddRespStructure(content.Entry{}, openapi.WithHTTPStatus(http.StatusOK))
	getEntry.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getEntry)

	// GET /api/map/markers
	getMarkers, _ := r.NewOperationContext(http.MethodGet, "/api/map/markers")
	getMarkers.SetSummary("Map markers")
	getMarkers.AddReqStructure(markerQuery{})
	getMarkers.AddRespStructure([]content.Marker{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getMarkers)

	// GET /api/map/markers/{id}
	getMarker, _ := r.NewOperationContext(http.MethodGet, "/api/map/markers/{id}")
	getMarker.SetSummary("Map marker")
	getMarker.AddReqStructure(idPath{})
	getMarker.AddRespStructure(content.Marker{}, openapi.WithHTTPStatus(http.StatusOK))
	getMarker.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getMarker)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
