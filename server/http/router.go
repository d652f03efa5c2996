package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"offerte-service/internal/config"
	"offerte-service/internal/middleware"
	offHnd "offerte-service/internal/offerte/handler"
	"offerte-service/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, h *offHnd.Handler) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/process/match", h.ProcessMatch)
		r.Get("/session/{sessionID}/status", h.SessionStatus)

		r.Post("/matches/update", h.UpdateMatch)
		r.Post("/matches/{matchID}/correct", h.CorrectMatch)
		r.Post("/matches/{matchID}/ai-suggest", h.AISuggest)
		r.Post("/matches/{matchID}/ai-feedback", h.AIFeedback)

		r.Get("/corrections/stats", h.CorrectionsStats)
		r.Get("/corrections/export", h.ExportCorrections)
		r.Post("/corrections/add", h.AddCorrection)
		r.Delete("/corrections", h.ClearCorrections)

		r.Get("/ai/config", h.AIConfig)
		r.Post("/ai/clear-cache", h.ClearAICache)

		r.Route("/admin/prijzenboek", func(r chi.Router) {
			r.Get("/", h.GetPrijzenboek)
			r.Post("/", h.SavePrijzenboek)
			r.Post("/item", h.AddPrijzenboekItem)
			r.Delete("/item/{code}", h.DeletePrijzenboekItem)
			r.Post("/upload", h.UploadPrijzenboek)
			r.Delete("/clear-all", h.ClearPrijzenboek)
		})
	})

	return r
}
