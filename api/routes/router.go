package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/fitcoach-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/fitcoach-backend/api/controllers/webhooks"
	"github.com/angelmondragon/fitcoach-backend/api/middleware"
	"github.com/angelmondragon/fitcoach-backend/api/responses"
	"github.com/angelmondragon/fitcoach-backend/internal/activity"
	"github.com/angelmondragon/fitcoach-backend/internal/admin"
	"github.com/angelmondragon/fitcoach-backend/internal/clients"
	"github.com/angelmondragon/fitcoach-backend/internal/payments"
	"github.com/angelmondragon/fitcoach-backend/internal/plans"
	"github.com/angelmondragon/fitcoach-backend/internal/prompts"
	"github.com/angelmondragon/fitcoach-backend/internal/questionnaires"
	stripewebhook "github.com/angelmondragon/fitcoach-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/metrics"
	"github.com/angelmondragon/fitcoach-backend/pkg/redis"
	"github.com/angelmondragon/fitcoach-backend/pkg/stripe"
)

// Dependencies are the services and infrastructure the HTTP surface needs.
type Dependencies struct {
	DB             controllers.Pinger
	Redis          *redis.Client
	MetricsHandler http.Handler

	Admin          admin.Service
	Clients        clients.Service
	Activities     activity.Service
	Questionnaires questionnaires.Service
	Plans          plans.Service
	Payments       payments.Service
	Prompts        prompts.Service

	StripeClient         *stripe.Client
	StripeWebhookService webhookcontrollers.StripeWebhookService
	StripeWebhookGuard   *stripewebhook.EventGuard
	WebhookMetrics       *metrics.WebhookMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	var redisPinger controllers.Pinger
	loginThrottle := func(next http.Handler) http.Handler { return next }
	if deps.Redis != nil {
		redisPinger = deps.Redis
		loginThrottle = middleware.LoginThrottle(middleware.LoginPolicy{
			Name:       "admin_login",
			Window:     cfg.AuthRateLimit.LoginWindow,
			IPLimit:    int64(cfg.AuthRateLimit.LoginIPLimit),
			EmailLimit: int64(cfg.AuthRateLimit.LoginEmailLimit),
		}, deps.Redis, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, redisPinger, logg))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.HandleFunc("/stripe", webhookcontrollers.StripeWebhook(
			deps.StripeWebhookService,
			deps.StripeClient,
			deps.StripeWebhookGuard,
			deps.WebhookMetrics,
			logg,
		))
	})

	// Client-facing reads and questionnaire answers; no admin session needed.
	r.Route("/api/v1/clients/{clientId}", func(r chi.Router) {
		r.Get("/plan", controllers.PlanGet(deps.Plans, logg))
		r.Get("/templates", controllers.TemplatesList(deps.Questionnaires, logg))
		r.Get("/templates/{templateId}/response", controllers.ResponseGet(deps.Questionnaires, logg))
		r.Put("/templates/{templateId}/response", controllers.ResponseSave(deps.Questionnaires, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(chimw.RealIP, loginThrottle).Post("/login", controllers.AdminLogin(deps.Admin, cfg.Cookies, logg))
			r.Post("/logout", controllers.AdminLogout(deps.Admin, cfg.Cookies, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminContext())

			r.Get("/clients", controllers.ClientsList(deps.Clients, logg))
			r.Post("/clients", controllers.ClientsCreate(deps.Clients, logg))
			r.Delete("/templates/{templateRowId}", controllers.TemplateDelete(deps.Questionnaires, logg))

			r.Route("/clients/{clientId}", func(r chi.Router) {
				r.Get("/", controllers.ClientsGet(deps.Clients, logg))
				r.Patch("/", controllers.ClientsUpdate(deps.Clients, logg))
				r.Delete("/", controllers.ClientsDelete(deps.Clients, logg))

				r.Post("/stripe/customer", controllers.StripeCustomerCreate(deps.Payments, logg))
				r.Post("/stripe/subscription", controllers.StripeSubscriptionCreate(deps.Payments, logg))
				r.Get("/stripe/status", controllers.StripeStatus(deps.Payments, logg))
				r.Get("/payments", controllers.ClientPayments(deps.Payments, logg))

				r.Get("/questionnaire", controllers.QuestionnaireGet(deps.Questionnaires, logg))
				r.Put("/questionnaire", controllers.QuestionnaireSave(deps.Questionnaires, logg))

				r.Get("/plan", controllers.PlanGet(deps.Plans, logg))
				r.Put("/plan", controllers.PlanSave(deps.Plans, logg))

				r.Get("/templates", controllers.TemplatesList(deps.Questionnaires, logg))
				r.Put("/templates", controllers.TemplateSave(deps.Questionnaires, logg))
				r.Get("/templates/{templateId}/response", controllers.ResponseGet(deps.Questionnaires, logg))
				r.Put("/templates/{templateId}/response", controllers.ResponseSave(deps.Questionnaires, logg))

				r.Get("/prompts/workout", controllers.Prompt(deps.Prompts, prompts.KindWorkout, logg))
				r.Get("/prompts/nutrition", controllers.Prompt(deps.Prompts, prompts.KindNutrition, logg))

				r.Get("/activities", controllers.ActivitiesList(deps.Activities, logg))
			})
		})
	})

	return r
}
