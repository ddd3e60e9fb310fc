// Package httpapi assembles the /v1 router.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"wellness/internal/http/handlers"
	"wellness/internal/infra"
	"wellness/internal/middleware"
)

// Options wires the router. App and Tokens are required.
type Options struct {
	App             *handlers.App
	Tokens          middleware.TokenVerifier
	Logger          infra.Logger
	Countries       middleware.CountryLookup
	DefaultLocale   string
	AllowedOrigins  []string
	RateLimitPerMin int
	// TrustedProxies may set X-Forwarded-For. Empty means none.
	TrustedProxies middleware.TrustedProxies
	// StaticDir is served under /static when images live on local disk.
	StaticDir string
}

func NewRouter(opts Options) http.Handler {
	app := opts.App
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(
		middleware.RequestID,
		middleware.RealIP(opts.TrustedProxies),
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Locale", "X-Request-ID", "Accept-Language"},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.I18N(opts.DefaultLocale, opts.Countries),
		middleware.RateLimit(opts.RateLimitPerMin, time.Minute),
	)

	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.AuthSignUp)
			r.Post("/signin", app.AuthSignIn)
			r.Post("/password/forgot", app.AuthForgotPassword)
			r.Post("/password/reset", app.AuthResetPassword)
			r.Post("/google", app.AuthGoogle)
			r.Post("/facebook", app.AuthFacebook)
		})

		r.Get("/onboarding/defaults", app.OnboardingDefaults)
		r.Get("/meals", app.Meals)
		r.Get("/meals/options", app.MealOptions)
		r.Get("/nutrition/percentage", app.NutritionPercentage)
		r.Get("/simulate/{metric}", app.Simulate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(opts.Tokens))

			r.Route("/me", func(r chi.Router) {
				r.Get("/", app.Me)
				r.Patch("/", app.MeEdit)
				r.Delete("/", app.MeDelete)
				r.Get("/subscribe", app.MeSubscribe)
				r.Get("/export", app.MeExport)
				r.Put("/reminder", app.MeReminder)
				r.Put("/fitness-plan", app.MeFitnessPlan)
				r.Get("/progress", app.MeProgress)
				r.Put("/progress", app.MeProgressUpdate)
			})

			r.Route("/onboarding", func(r chi.Router) {
				r.Post("/identity", app.OnboardingIdentity)
				r.Post("/metrics", app.OnboardingMetrics)
				r.Post("/goal", app.OnboardingGoal)
				r.Post("/plan", app.OnboardingPlan)
				r.Post("/mood", app.OnboardingMood)
				r.Post("/{step}/skip", app.OnboardingSkip)
			})

			r.Post("/uploads/image", app.UploadImage)

			r.Post("/nutrition/scan", app.NutritionScan)
			r.Post("/nutrition/search", app.NutritionSearch)

			r.Get("/scans", app.ScansList)
			r.Get("/scans/{id}", app.ScanGet)
			r.Delete("/scans/{id}", app.ScanDelete)

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", app.SettingsGet)
				r.Patch("/", app.SettingsUpdate)
				r.Post("/device/connect", app.DeviceConnect)
				r.Post("/device/disconnect", app.DeviceDisconnect)
				r.Post("/push-device", app.PushDevice)
			})
		})
	})

	return r
}
