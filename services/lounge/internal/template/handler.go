package template

import (
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	repo   Repository
	logger apt.Logger
	tlm    *telemetry.HTTP
}

func NewHandler(repo Repository, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
		tlm:    telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/templates", func(r chi.Router) {
		r.Get("/", h.ListTemplates)
		r.Get("/{id}", h.GetTemplate)
		r.Delete("/{id}", h.DeleteTemplate)
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "TemplateHandler.ListTemplates")
	defer finish()
	log := h.log(r)

	templates, err := h.repo.List(r.Context())
	if err != nil {
		log.Errorf("cannot list templates: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list templates")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
	}, nil)
}

func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "TemplateHandler.GetTemplate")
	defer finish()
	log := h.log(r)

	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid template ID")
		return
	}

	tpl, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			apt.RespondError(w, http.StatusNotFound, "Template not found")
			return
		}
		log.Errorf("cannot get template: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve template")
		return
	}

	apt.Respond(w, http.StatusOK, tpl, nil)
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "TemplateHandler.DeleteTemplate")
	defer finish()
	log := h.log(r)

	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid template ID")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			apt.RespondError(w, http.StatusNotFound, "Template not found")
			return
		}
		log.Errorf("cannot delete template: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete template")
		return
	}

	log.Info("template deleted", "id", id.String())
	w.WriteHeader(http.StatusNoContent)
}
