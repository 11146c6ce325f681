package router

import (
	"database/sql"
	"net/http"

	mem "medicare-adherence/internal/adapters/storage/memory"
	pg "medicare-adherence/internal/adapters/storage/postgres"
	_ "medicare-adherence/internal/docs"
	"medicare-adherence/internal/domain/adherence"
	"medicare-adherence/internal/domain/doses"
	"medicare-adherence/internal/domain/elderly"
	"medicare-adherence/internal/domain/medications"
	"medicare-adherence/internal/domain/reports"
	"medicare-adherence/internal/middleware"
	"medicare-adherence/internal/platform/logger"
	"medicare-adherence/internal/platform/metrics"
	"medicare-adherence/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger  logger.Logger
	Metrics *metrics.Metrics

	// nil = adherence.DefaultPolicy()
	Policy          *adherence.Policy
	ConflictRetries int

	// nil = middleware.DefaultRateLimitConfig()
	RateLimit *middleware.RateLimitConfig
}

// App expone el handler y los servicios que usan los jobs.
type App struct {
	Handler     http.Handler
	Medications *medications.Service
	Metrics     *metrics.Metrics
}

func NewRouter(opts Options) http.Handler {
	return Build(opts).Handler
}

func Build(opts Options) App {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	policy := adherence.DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	rl := middleware.DefaultRateLimitConfig()
	if opts.RateLimit != nil {
		rl = *opts.RateLimit
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RateLimit(rl))

	r.Use(middleware.AuthContext(opts.AuthVerifier))
	r.Use(middleware.RequestLog(opts.Logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", opts.Metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		elderlyRepo elderly.Repository
		medRepo     medications.Repository
		doseRepo    doses.Repository
	)

	if opts.DB != nil {
		elderlyRepo = pg.NewElderlyRepo(opts.DB)
		medRepo = pg.NewMedicationsRepo(opts.DB)
		doseRepo = pg.NewDosesRepo(opts.DB)
	} else {
		ledger := mem.NewLedger()
		elderlyRepo = mem.NewElderlyRepo()
		medRepo = ledger.Medications()
		doseRepo = ledger.Doses()
	}

	// Services por módulo
	elderlySvc := elderly.NewService(elderlyRepo)
	medsSvc := medications.NewService(medRepo, elderlySvc, medications.Options{
		Policy:          policy,
		ConflictRetries: opts.ConflictRetries,
		Metrics:         opts.Metrics,
		Logger:          opts.Logger,
	})
	dosesSvc := doses.NewService(doseRepo)
	reportsSvc := reports.NewService(dosesSvc, elderlySvc, medsSvc)

	// Rutas por módulo
	elderly.RegisterRoutes(r, elderlySvc)
	medications.RegisterRoutes(r, medsSvc)
	doses.RegisterRoutes(r, dosesSvc, elderlySvc.CaregiverOf, medsSvc.CaregiverOf)
	reports.RegisterRoutes(r, reportsSvc)

	return App{Handler: r, Medications: medsSvc, Metrics: opts.Metrics}
}
