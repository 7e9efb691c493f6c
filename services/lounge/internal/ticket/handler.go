package ticket

import (
	"errors"
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	dispatcher *Dispatcher
	logger     apt.Logger
	tlm        *telemetry.HTTP
}

func NewHandler(dispatcher *Dispatcher, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		dispatcher: dispatcher,
		logger:     logger,
		tlm:        telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", h.ListTickets)
		r.Get("/{id}", h.GetTicket)
		r.Post("/{id}/ready", h.ReadyTicket)
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "TicketHandler.ListTickets")
	defer finish()

	pending := strings.EqualFold(r.URL.Query().Get("pending"), "true")
	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"tickets": h.dispatcher.Registry().List(pending),
	}, nil)
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "TicketHandler.GetTicket")
	defer finish()

	t, err := h.dispatcher.Registry().Get(ID(chi.URLParam(r, "id")))
	if err != nil {
		apt.RespondError(w, http.StatusNotFound, "Ticket not found")
		return
	}
	apt.Respond(w, http.StatusOK, t, nil)
}

func (h *Handler) ReadyTicket(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "TicketHandler.ReadyTicket")
	defer finish()
	log := h.log(r)

	id := ID(chi.URLParam(r, "id"))
	elapsed, err := h.dispatcher.MarkReady(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			apt.RespondError(w, http.StatusNotFound, "Ticket not found")
			return
		}
		log.Errorf("cannot mark ticket ready: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not mark ticket ready")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"ticket_id":       id,
		"elapsed":         FormatElapsed(elapsed),
		"elapsed_seconds": int64(elapsed.Seconds()),
	}, nil)
}
