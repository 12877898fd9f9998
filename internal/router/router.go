package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "pet-health-scheduler/internal/adapters/storage/memory"
	pg "pet-health-scheduler/internal/adapters/storage/postgres"
	"pet-health-scheduler/internal/domain/lifecycle"
	"pet-health-scheduler/internal/domain/periodic"
	"pet-health-scheduler/internal/domain/pets"
	"pet-health-scheduler/internal/middleware"
	"pet-health-scheduler/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Reglas maestras ya cargadas y validadas (refdata).
	Rules lifecycle.RuleSet

	// Opcional: si viene, usa Postgres. Si no, intenta DB_DSN y cae a memoria.
	DB *sql.DB
}

// App expone el handler y los servicios construidos, para que main pueda
// colgar el job batch de los mismos repos que usa el HTTP.
type App struct {
	Handler http.Handler

	Pets      *pets.Service
	Lifecycle *lifecycle.Service
	Periodic  *periodic.Service
}

func New(opts Options) *App {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Mount("/swagger", httpSwagger.WrapHandler)

	var (
		petRepo         pets.Repository
		completionsRepo lifecycle.CompletionRepository
		schedulesRepo   lifecycle.ScheduleRepository
		periodicRepo    periodic.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		petRepo = pg.NewPetsRepo(db)
		completionsRepo = pg.NewCompletionsRepo(db)
		schedulesRepo = pg.NewSchedulesRepo(db)
		periodicRepo = pg.NewPeriodicRepo(db)
	} else {
		petRepo = mem.NewPetRepo()
		completionsRepo = mem.NewCompletionsRepo()
		schedulesRepo = mem.NewSchedulesRepo()
		periodicRepo = mem.NewPeriodicRepo()
	}

	// Services por módulo
	petsSvc := pets.NewService(petRepo)
	lifecycleSvc := lifecycle.NewService(opts.Rules, completionsRepo, schedulesRepo)
	periodicSvc := periodic.NewService(periodicRepo)

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc)
	lifecycle.RegisterRoutes(r, lifecycleSvc, petsSvc)
	periodic.RegisterRoutes(r, periodicSvc, petsSvc)

	return &App{
		Handler:   r,
		Pets:      petsSvc,
		Lifecycle: lifecycleSvc,
		Periodic:  periodicSvc,
	}
}
