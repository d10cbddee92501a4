package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/installerz-backend/api/controllers"
	"github.com/angelmondragon/installerz-backend/api/middleware"
	"github.com/angelmondragon/installerz-backend/internal/assignments"
	"github.com/angelmondragon/installerz-backend/internal/installers"
	"github.com/angelmondragon/installerz-backend/pkg/config"
	"github.com/angelmondragon/installerz-backend/pkg/db"
	"github.com/angelmondragon/installerz-backend/pkg/enums"
	"github.com/angelmondragon/installerz-backend/pkg/logger"
	"github.com/angelmondragon/installerz-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	assignmentsService assignments.Service,
	installersService installers.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// A nil *redis.Client inside a non-nil interface would defeat the
	// downstream nil checks.
	var idempotencyStore redis.IdempotencyStore
	var redisPinger redis.Pinger
	if redisClient != nil {
		idempotencyStore = redisClient
		redisPinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	scheduler := middleware.RequireRole(logg, string(enums.RoleAdmin), string(enums.RoleScheduler))
	anyActor := middleware.RequireRole(logg,
		string(enums.RoleAdmin), string(enums.RoleScheduler), string(enums.RoleInstaller))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/assignments", func(r chi.Router) {
			r.With(scheduler).Post("/", controllers.AssignmentCreate(assignmentsService, logg))
			r.With(anyActor).Get("/", controllers.AssignmentList(assignmentsService, logg))
			r.Route("/{assignmentId}", func(r chi.Router) {
				r.With(anyActor).Get("/", controllers.AssignmentDetail(assignmentsService, logg))
				r.With(scheduler).Put("/slots", controllers.AssignmentReschedule(assignmentsService, logg))
				r.With(scheduler).Post("/cancel", controllers.AssignmentCancel(assignmentsService, logg))
				r.With(scheduler).Post("/start", controllers.AssignmentStart(assignmentsService, logg))
				r.With(anyActor).Post("/complete-slot", controllers.AssignmentCompleteSlot(assignmentsService, logg))
			})
		})

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.With(anyActor).Get("/assignment", controllers.AssignmentByOrder(assignmentsService, logg))
		})

		r.Route("/installers", func(r chi.Router) {
			r.With(anyActor).Get("/", controllers.InstallerList(installersService, logg))
			r.Route("/{installerId}", func(r chi.Router) {
				r.With(anyActor).Get("/", controllers.InstallerDetail(installersService, logg))
				r.With(scheduler).Patch("/availability", controllers.InstallerSetAvailability(installersService, logg))
				r.With(anyActor).Get("/schedule", controllers.InstallerSchedule(assignmentsService, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, string(enums.RoleAdmin)))
		r.Get("/ping", controllers.AdminPing())
	})

	return r
}
