package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/sports", handler.ListSports)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedUserRoutes(mux, handler, verifier)
	registerAuthorizedWorkoutRoutes(mux, handler, verifier)
	registerAuthorizedCompetitionRoutes(mux, handler, verifier)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/recalc", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRecalcJob)))
}

func registerAuthorizedUserRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMe)))
	mux.Handle("PUT /v1/me/scaling", RequireAuth(verifier, http.HandlerFunc(handler.UpdateMyScaling)))
}

func registerAuthorizedWorkoutRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/workouts", RequireAuth(verifier, http.HandlerFunc(handler.CreateWorkout)))
	mux.Handle("GET /v1/workouts", RequireAuth(verifier, http.HandlerFunc(handler.ListMyWorkouts)))
	mux.Handle("GET /v1/workouts/{workoutID}", RequireAuth(verifier, http.HandlerFunc(handler.GetWorkout)))
	mux.Handle("PUT /v1/workouts/{workoutID}", RequireAuth(verifier, http.HandlerFunc(handler.UpdateWorkout)))
	mux.Handle("DELETE /v1/workouts/{workoutID}", RequireAuth(verifier, http.HandlerFunc(handler.DeleteWorkout)))
	mux.Handle("PUT /v1/steps/daily", RequireAuth(verifier, http.HandlerFunc(handler.LogDailySteps)))
}

func registerAuthorizedCompetitionRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/competitions", RequireAuth(verifier, http.HandlerFunc(handler.CreateCompetition)))
	mux.Handle("GET /v1/competitions", RequireAuth(verifier, http.HandlerFunc(handler.ListMyCompetitions)))
	mux.Handle("GET /v1/competitions/{competitionID}", RequireAuth(verifier, http.HandlerFunc(handler.GetCompetition)))
	mux.Handle("PUT /v1/competitions/{competitionID}", RequireAuth(verifier, http.HandlerFunc(handler.UpdateCompetition)))
	mux.Handle("POST /v1/competitions/join", RequireAuth(verifier, http.HandlerFunc(handler.JoinCompetition)))
	mux.Handle("DELETE /v1/competitions/{competitionID}/membership", RequireAuth(verifier, http.HandlerFunc(handler.LeaveCompetition)))
	mux.Handle("POST /v1/competitions/{competitionID}/teams", RequireAuth(verifier, http.HandlerFunc(handler.CreateCompetitionTeam)))
	mux.Handle("GET /v1/competitions/{competitionID}/teams", RequireAuth(verifier, http.HandlerFunc(handler.ListCompetitionTeams)))
	mux.Handle("PUT /v1/competitions/{competitionID}/teams/assignment", RequireAuth(verifier, http.HandlerFunc(handler.AssignCompetitionTeam)))
	mux.Handle("POST /v1/competitions/{competitionID}/goals", RequireAuth(verifier, http.HandlerFunc(handler.CreateGoal)))
	mux.Handle("GET /v1/competitions/{competitionID}/goals", RequireAuth(verifier, http.HandlerFunc(handler.ListGoals)))
	mux.Handle("PUT /v1/goals/{goalID}", RequireAuth(verifier, http.HandlerFunc(handler.UpdateGoal)))
	mux.Handle("POST /v1/competitions/{competitionID}/awards", RequireAuth(verifier, http.HandlerFunc(handler.CreateAward)))
	mux.Handle("GET /v1/competitions/{competitionID}/awards", RequireAuth(verifier, http.HandlerFunc(handler.ListAwards)))
	mux.Handle("GET /v1/competitions/{competitionID}/standings", RequireAuth(verifier, http.HandlerFunc(handler.GetStandings)))
}
