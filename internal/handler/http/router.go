package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/storage"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	Env            string
	AllowedOrigins []string
	// Artifacts is served read-only under /artifacts when set.
	Artifacts storage.FileStorage
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, importHandler AttendanceImportHandler, sessionHandler SessionHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-normalizer"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	// Artifact links are fetched by the bulk importer as well, which may pass the token as ?jwt=
	if cfg.Artifacts != nil {
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired(JWTService))
			r.Use(middleware.RequirePermission(auth.PermissionAttendanceView))

			r.Get("/artifacts/*", NewArtifactHandler(cfg.Artifacts))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService))

			r.Get("/session", sessionHandler.Current)
			r.Post("/session/logout", sessionHandler.Logout)

			r.With(middleware.RequirePermission(auth.PermissionFormatsView)).Get("/formats", importHandler.ListFormats)
		})

		r.Route("/attendance-imports", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
				r.Use(middleware.AuthRequired(JWTService))

				r.With(middleware.RequirePermission(auth.PermissionAttendanceImport)).Post("/", importHandler.Create)
				r.With(middleware.RequirePermission(auth.PermissionAttendanceView)).Get("/{correlationID}", importHandler.Get)
				r.With(middleware.RequirePermission(auth.PermissionAttendanceCancel)).Delete("/{correlationID}", importHandler.Cancel)
			})

			// EventSource cannot set headers, so the stream also accepts ?jwt=
			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
				r.Use(middleware.AuthRequired(JWTService))
				r.Use(middleware.RequirePermission(auth.PermissionAttendanceView))

				r.Get("/{correlationID}/events", importHandler.Events)
			})
		})
	})
	return r
}
