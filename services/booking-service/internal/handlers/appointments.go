package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/salonbook/agenda/libs/auth"
	"github.com/salonbook/agenda/libs/httpx"
	"github.com/salonbook/agenda/services/booking-service/internal/booking"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
)

type AppointmentsHandler struct {
	allocator *booking.Allocator
	lifecycle *booking.Lifecycle
	store     booking.Store
	logger    *slog.Logger
}

func NewAppointmentsHandler(allocator *booking.Allocator, lifecycle *booking.Lifecycle, store booking.Store, logger *slog.Logger) *AppointmentsHandler {
	return &AppointmentsHandler{allocator: allocator, lifecycle: lifecycle, store: store, logger: logger}
}

type createAppointmentRequest struct {
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Note    string `json:"note"`
}

type slotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type confirmResponse struct {
	Success bool         `json:"success"`
	EventID string       `json:"event_id,omitempty"`
	Status  model.Status `json:"status,omitempty"`
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
}

func (h *AppointmentsHandler) Slots(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	slots, err := h.allocator.FreeSlots(r.Context(), date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{Date: date, Slots: slots})
}

func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.store.ListAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(appts))
}

func (h *AppointmentsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	appts, err := h.store.ListForClient(r.Context(), claims.Subject)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(appts))
}

func (h *AppointmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "invalid json body")
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())

	appt, err := h.allocator.Book(r.Context(), booking.Request{
		ClientID:   claims.Subject,
		ClientName: claims.Username,
		Service:    req.Service,
		Date:       req.Date,
		Time:       req.Time,
		Note:       req.Note,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, appt)
}

func (h *AppointmentsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	appt, err := h.lifecycle.Confirm(r.Context(), r.PathValue("id"))
	var syncErr *booking.CalendarSyncError
	if errors.As(err, &syncErr) {
		h.logger.Warn("appointment confirmed without calendar event", "appointment_id", appt.ID, "err", syncErr.Err)
		httpx.WriteJSON(w, http.StatusBadGateway, confirmResponse{
			Success: false,
			Status:  appt.Status,
			Error:   "calendar_sync_failed",
			Message: "appointment confirmed but calendar event could not be created",
		})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, confirmResponse{Success: true, EventID: appt.CalendarEventID})
}

func (h *AppointmentsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if _, err := h.lifecycle.Reject(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, confirmResponse{Success: true})
}

func (h *AppointmentsHandler) writeError(w http.ResponseWriter, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", verr.Error())
	case errors.Is(err, booking.ErrSlotConflict):
		httpx.WriteError(w, http.StatusConflict, "slot_conflict", "slot already taken")
	case errors.Is(err, booking.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "appointment not found")
	case errors.Is(err, booking.ErrInvalidTransition):
		httpx.WriteError(w, http.StatusConflict, "invalid_transition", "appointment is not pending")
	default:
		h.logger.Error("appointment request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "store_unavailable", "internal error")
	}
}

func nonNil(appts []model.Appointment) []model.Appointment {
	if appts == nil {
		return []model.Appointment{}
	}
	return appts
}
