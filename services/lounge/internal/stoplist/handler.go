package stoplist

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

const MaxBodyBytes = 1 << 16

type Handler struct {
	list   *List
	logger apt.Logger
	tlm    *telemetry.HTTP
}

func NewHandler(list *List, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		list:   list,
		logger: logger,
		tlm:    telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/stoplist", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Post("/", h.AddItem)
		r.Delete("/{item}", h.RemoveItem)
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

type itemRequest struct {
	Item string `json:"item"`
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "StopListHandler.ListItems")
	defer finish()

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"items": h.list.Items(),
	}, nil)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "StopListHandler.AddItem")
	defer finish()
	log := h.log(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	var req itemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.list.Add(r.Context(), req.Item); err != nil {
		if errors.Is(err, ErrEmptyItem) {
			apt.RespondError(w, http.StatusBadRequest, "Item is required")
			return
		}
		log.Errorf("cannot add stop list item: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not add item")
		return
	}

	log.Info("stop list item added", "item", req.Item)
	apt.Respond(w, http.StatusCreated, map[string]interface{}{
		"items": h.list.Items(),
	}, nil)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "StopListHandler.RemoveItem")
	defer finish()
	log := h.log(r)

	item := chi.URLParam(r, "item")
	if decoded, err := url.PathUnescape(item); err == nil {
		item = decoded
	}
	if err := h.list.Remove(r.Context(), item); err != nil {
		if errors.Is(err, ErrEmptyItem) {
			apt.RespondError(w, http.StatusBadRequest, "Item is required")
			return
		}
		log.Errorf("cannot remove stop list item: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not remove item")
		return
	}

	log.Info("stop list item removed", "item", item)
	w.WriteHeader(http.StatusNoContent)
}
