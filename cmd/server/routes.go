package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-dreamer/internal/middleware"
)

// newRouter registers every route. CORS and request ids wrap the mux itself so
// preflights and unmatched paths get them too.
func newRouter(app *Application) http.Handler {
	r := mux.NewRouter()
	logger := app.Logger

	requireAuth := middleware.RequireAuth(app.AuthService, logger)
	optionalAuth := middleware.OptionalAuth(app.AuthService)
	requireAdmin := middleware.RequireAdmin(app.UserRepo, logger)

	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.LimitRequests(app.APILimiter, logger))

	// --- Public Routes ---
	r.HandleFunc("/health", app.HealthHandler.Health).Methods("GET")
	r.Handle("/api/log", optionalAuth(http.HandlerFunc(app.LogHandler.LogFrontendEvent))).Methods("POST")

	// --- Auth ---
	authRoutes := r.PathPrefix("/auth").Subrouter()
	attempts := func(name string, h http.HandlerFunc) http.Handler {
		return middleware.RateLimitMiddleware(app.AuthLimiter, name, logger)(
			middleware.AuthSuccessMiddleware(app.AuthLimiter, name)(h))
	}
	strict := func(name string, h http.HandlerFunc) http.Handler {
		return middleware.RateLimitMiddleware(app.StrictLimiter, name, logger)(
			middleware.AuthSuccessMiddleware(app.StrictLimiter, name)(h))
	}
	authRoutes.Handle("/register", attempts("register", app.AuthHandler.Register)).Methods("POST")
	authRoutes.Handle("/login", attempts("login", app.AuthHandler.Login)).Methods("POST")
	authRoutes.Handle("/refresh", strict("refresh", app.AuthHandler.Refresh)).Methods("POST")
	authRoutes.HandleFunc("/check-nickname", app.AuthHandler.CheckNickname).Methods("GET")
	authRoutes.HandleFunc("/generate-nickname", app.AuthHandler.GenerateNickname).Methods("GET")
	authRoutes.HandleFunc("/{provider:google|apple}", app.AuthHandler.OAuthStart).Methods("GET")
	authRoutes.Handle("/{provider:google|apple}/callback", strict("oauth", app.AuthHandler.OAuthCallback)).Methods("GET", "POST")

	authRoutes.Handle("/logout", requireAuth(http.HandlerFunc(app.AuthHandler.Logout))).Methods("POST")
	authRoutes.Handle("/profile", requireAuth(http.HandlerFunc(app.AuthHandler.Profile))).Methods("GET")
	authRoutes.Handle("/nickname", requireAuth(http.HandlerFunc(app.AuthHandler.UpdateNickname))).Methods("PUT")
	authRoutes.Handle("/account", requireAuth(http.HandlerFunc(app.AuthHandler.DeleteAccount))).Methods("DELETE")

	// --- Chat (protected) ---
	chatRoutes := r.PathPrefix("/chat").Subrouter()
	chatRoutes.Use(requireAuth)
	chatRoutes.HandleFunc("/bot-settings/options", app.ChatHandler.BotSettingsOptions).Methods("GET")
	chatRoutes.HandleFunc("/bot-personalities", app.ChatHandler.BotPersonalities).Methods("GET")
	// "today" routes come before {id} so the literal wins
	chatRoutes.HandleFunc("/rooms/today", app.ChatHandler.TodaysRoom).Methods("GET")
	chatRoutes.HandleFunc("/rooms/today/messages/generate-image", app.ChatHandler.GenerateImage).Methods("POST")
	chatRoutes.HandleFunc("/rooms/today/messages/generate-video", app.ChatHandler.GenerateVideo).Methods("POST")
	chatRoutes.HandleFunc("/rooms", app.ChatHandler.ListRooms).Methods("GET")
	chatRoutes.HandleFunc("/rooms", app.ChatHandler.CreateRoom).Methods("POST")
	chatRoutes.HandleFunc("/rooms/{id}", app.ChatHandler.GetRoom).Methods("GET")
	chatRoutes.HandleFunc("/rooms/{id}", app.ChatHandler.DeleteRoom).Methods("DELETE")
	chatRoutes.HandleFunc("/rooms/{id}/title", app.ChatHandler.UpdateTitle).Methods("PUT")
	chatRoutes.HandleFunc("/rooms/{id}/messages", app.ChatHandler.GetMessages).Methods("GET")
	chatRoutes.HandleFunc("/rooms/{id}/messages", app.ChatHandler.SendMessage).Methods("POST")
	chatRoutes.HandleFunc("/rooms/{id}/bot-settings", app.ChatHandler.UpdateBotSettings).Methods("PUT")

	// --- Community: reads are public, writes need a user ---
	communityRoutes := r.PathPrefix("/community").Subrouter()
	communityRoutes.Handle("/posts", optionalAuth(http.HandlerFunc(app.CommunityHandler.ListPosts))).Methods("GET")
	communityRoutes.Handle("/posts", requireAuth(http.HandlerFunc(app.CommunityHandler.CreatePost))).Methods("POST")
	communityRoutes.Handle("/posts/{postId}", optionalAuth(http.HandlerFunc(app.CommunityHandler.GetPost))).Methods("GET")
	communityRoutes.Handle("/posts/{postId}/like", requireAuth(http.HandlerFunc(app.CommunityHandler.TogglePostLike))).Methods("POST")
	communityRoutes.Handle("/posts/{postId}/bookmark", requireAuth(http.HandlerFunc(app.CommunityHandler.TogglePostBookmark))).Methods("POST")
	communityRoutes.Handle("/posts/{postId}/comments", optionalAuth(http.HandlerFunc(app.CommunityHandler.ListComments))).Methods("GET")
	communityRoutes.Handle("/posts/{postId}/comments", requireAuth(http.HandlerFunc(app.CommunityHandler.CreateComment))).Methods("POST")
	communityRoutes.Handle("/comments/{commentId}/like", requireAuth(http.HandlerFunc(app.CommunityHandler.ToggleCommentLike))).Methods("POST")
	communityRoutes.Handle("/comments/{commentId}", requireAuth(http.HandlerFunc(app.CommunityHandler.DeleteComment))).Methods("DELETE")

	// --- DEFINE AND PROTECT ADMIN ROUTES ---
	adminRoutes := r.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(requireAuth)
	adminRoutes.Use(requireAdmin)
	adminRoutes.HandleFunc("/users", app.AdminHandler.ListUsers).Methods("GET")
	adminRoutes.HandleFunc("/users/export", app.AdminHandler.ExportUsersCSV).Methods("GET")
	adminRoutes.HandleFunc("/users/{id}/subscription", app.AdminHandler.SetSubscription).Methods("PUT")

	// --- Custom Error Handlers ---
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusNotFound, "The requested resource does not exist.")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusMethodNotAllowed, "The method is not allowed for this resource.")
	})

	var h http.Handler = r
	h = middleware.RecoverPanic(logger)(h)
	h = middleware.CORS(app.Config.AllowedOrigins)(h)
	return middleware.RequestID(h)
}
