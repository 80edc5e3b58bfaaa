package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/stanstork/tickr-api/internal/authz"
	"github.com/stanstork/tickr-api/internal/handlers"
	"github.com/stanstork/tickr-api/internal/middleware"
)

// Handlers bundles everything the router dispatches to.
type Handlers struct {
	Health   http.HandlerFunc
	Auth     *handlers.AuthHandler
	Timer    *handlers.TimerHandler
	Teams    *handlers.TeamHandler
	Invites  *handlers.InviteHandler
	Projects *handlers.ProjectHandler
	Reports  *handlers.ReportHandler
	Admin    *handlers.AdminHandler
}

// NewRouter sets up the API routes. throttle wraps the public credential endpoints and may be nil.
func NewRouter(h Handlers, throttle func(http.Handler) http.Handler) *mux.Router {
	if throttle == nil {
		throttle = func(next http.Handler) http.Handler { return next }
	}
	if h.Health == nil {
		h.Health = handlers.HealthCheck(nil)
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"not found"}`))
	})

	// Health check route
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Public endpoints. The "my" listing is registered first so it is not read as a token.
	api.Handle("/signup", throttle(http.HandlerFunc(h.Auth.SignUp))).Methods(http.MethodPost)
	api.Handle("/login", throttle(http.HandlerFunc(h.Auth.Login))).Methods(http.MethodPost)
	api.Handle("/invitations/my", h.Auth.JWTMiddleware(http.HandlerFunc(h.Invites.MyInvitations))).Methods(http.MethodGet)
	api.HandleFunc("/invitations/{token}", h.Invites.GetInvitation).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(h.Auth.JWTMiddleware)

	protected.HandleFunc("/user", h.Auth.CurrentUser).Methods(http.MethodGet)

	protected.HandleFunc("/projects", h.Projects.ListProjects).Methods(http.MethodGet)
	protected.HandleFunc("/projects", h.Projects.CreateProject).Methods(http.MethodPost)
	protected.HandleFunc("/projects/{projectID}", h.Projects.GetProject).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{projectID}", h.Projects.UpdateProject).Methods(http.MethodPut)
	protected.HandleFunc("/projects/{projectID}", h.Projects.DeleteProject).Methods(http.MethodDelete)

	protected.HandleFunc("/teams", h.Teams.ListTeams).Methods(http.MethodGet)
	protected.HandleFunc("/teams", h.Teams.CreateTeam).Methods(http.MethodPost)
	protected.HandleFunc("/teams/{teamID}", h.Teams.GetTeam).Methods(http.MethodGet)
	protected.HandleFunc("/teams/{teamID}", h.Teams.UpdateTeam).Methods(http.MethodPut)
	protected.HandleFunc("/teams/{teamID}", h.Teams.DeleteTeam).Methods(http.MethodDelete)
	protected.HandleFunc("/teams/{teamID}/invite", h.Invites.CreateInvite).Methods(http.MethodPost)
	protected.HandleFunc("/teams/{teamID}/members", h.Teams.ListMembers).Methods(http.MethodGet)
	protected.HandleFunc("/teams/{teamID}/members/{userID}", h.Teams.RemoveMember).Methods(http.MethodDelete)
	protected.HandleFunc("/teams/{teamID}/projects/{projectID}", h.Teams.AssignProject).Methods(http.MethodPost)
	protected.HandleFunc("/teams/{teamID}/projects/{projectID}", h.Teams.UnassignProject).Methods(http.MethodDelete)

	// Fixed entry paths come before the {entryID} matcher.
	protected.HandleFunc("/entries", h.Timer.ListEntries).Methods(http.MethodGet)
	protected.HandleFunc("/entries", h.Timer.CreateEntry).Methods(http.MethodPost)
	protected.HandleFunc("/entries/start", h.Timer.Start).Methods(http.MethodPost)
	protected.HandleFunc("/entries/stop", h.Timer.Stop).Methods(http.MethodPost)
	protected.HandleFunc("/entries/active", h.Timer.Active).Methods(http.MethodGet)
	protected.HandleFunc("/entries/{entryID}", h.Timer.GetEntry).Methods(http.MethodGet)
	protected.HandleFunc("/entries/{entryID}", h.Timer.UpdateEntry).Methods(http.MethodPut)
	protected.HandleFunc("/entries/{entryID}", h.Timer.DeleteEntry).Methods(http.MethodDelete)

	protected.HandleFunc("/reports", h.Reports.GetReport).Methods(http.MethodGet)

	protected.HandleFunc("/invitations/{token}/accept", h.Invites.AcceptInvitation).Methods(http.MethodPost)
	protected.HandleFunc("/invitations/{token}/decline", h.Invites.DeclineInvitation).Methods(http.MethodPost)

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(authz.RequireStaff, middleware.RequestMetadata)

	admin.HandleFunc("/users", h.Admin.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{userID}", h.Admin.GetUser).Methods(http.MethodGet)
	admin.HandleFunc("/users/{userID}", h.Admin.UpdateUser).Methods(http.MethodPut)
	admin.HandleFunc("/users/{userID}", h.Admin.DeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/users/{userID}/suspend", h.Admin.SuspendUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{userID}/activate", h.Admin.ActivateUser).Methods(http.MethodPost)
	admin.HandleFunc("/teams", h.Admin.ListTeams).Methods(http.MethodGet)
	admin.HandleFunc("/teams/{teamID}", h.Admin.GetTeam).Methods(http.MethodGet)
	admin.HandleFunc("/projects", h.Admin.ListProjects).Methods(http.MethodGet)
	admin.HandleFunc("/projects/{projectID}", h.Admin.GetProject).Methods(http.MethodGet)
	admin.HandleFunc("/analytics/overview", h.Admin.Overview).Methods(http.MethodGet)
	admin.HandleFunc("/analytics/users/growth", h.Admin.UserGrowth).Methods(http.MethodGet)
	admin.HandleFunc("/analytics/activity", h.Admin.Activity).Methods(http.MethodGet)
	admin.HandleFunc("/activity-logs", h.Admin.ListActivity).Methods(http.MethodGet)
	admin.Handle("/settings", authz.RequireSuperuser(http.HandlerFunc(h.Admin.GetSettings))).Methods(http.MethodGet)
	admin.Handle("/settings", authz.RequireSuperuser(http.HandlerFunc(h.Admin.UpdateSettings))).Methods(http.MethodPut)

	return router
}
