package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Acterion/forum-helper/internal/handlers"
	"github.com/Acterion/forum-helper/internal/services"
)

func Router(sm *services.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handlers.Health)
	r.Get("/qr/{code}.png", handlers.QR)

	r.Route("/api", func(api chi.Router) {
		// Participant intake + study flow
		api.Post("/submissions", handlers.CreateSubmission)
		api.Route("/submissions/{id}", func(sr chi.Router) {
			sr.Get("/", handlers.GetSubmission)
			sr.Post("/consent", handlers.RecordConsent)
			sr.Post("/presurvey", handlers.PreSurvey)
			sr.Post("/postsurvey", handlers.PostSurvey)

			// Per-case wizard
			sr.Get("/wizard", handlers.WizardView(sm))
			sr.Post("/wizard/events", handlers.WizardEvent(sm))
			sr.Post("/wizard/assist", handlers.WizardAssist(sm))
		})

		api.Get("/cases/{id}", handlers.GetCase)
	})

	return r
}
