package api

import (
	"net/http"

	"rentbook/internal/models"
	"rentbook/internal/service"

	"github.com/go-chi/chi/v5"
)

type statusRequest struct {
	Status  models.BookingStatus `json:"status"`
	Message string               `json:"message"`
}

type rateRequest struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

func (h *handler) listBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.bookings.List(r.Context(), principal(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// listCustomerBookings does not compare userId with the caller.
func (h *handler) listCustomerBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.bookings.ListByCustomer(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// listSellerBookings does not compare sellerId with the caller.
func (h *handler) listSellerBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.bookings.ListBySeller(r.Context(), chi.URLParam(r, "sellerId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.bookings.Get(r.Context(), chi.URLParam(r, "id"), principal(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) createBooking(w http.ResponseWriter, r *http.Request) {
	var in service.CreateBookingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.bookings.Create(r.Context(), principal(r), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *handler) updateBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	b, err := h.bookings.UpdateStatus(r.Context(), chi.URLParam(r, "id"), principal(r), req.Status, req.Message)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) cancelBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.bookings.Cancel(r.Context(), chi.URLParam(r, "id"), principal(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) rateBooking(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.bookings.Rate(r.Context(), chi.URLParam(r, "id"), principal(r), req.Rating, req.Comment)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) deleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.bookings.Delete(r.Context(), chi.URLParam(r, "id"), principal(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
