package api

import (
	"net/http"

	"rentbook/internal/service"

	"github.com/go-chi/chi/v5"
)

func (h *handler) createRating(w http.ResponseWriter, r *http.Request) {
	var in service.CreateRatingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	rating, err := h.ratings.Create(r.Context(), principal(r), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rating)
}

func (h *handler) listProductRatings(w http.ResponseWriter, r *http.Request) {
	list, err := h.ratings.ListByProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) productAverageRating(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	avg, err := h.ratings.AverageForProduct(r.Context(), productID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"productId": productID, "average": avg})
}

func (h *handler) listUserRatings(w http.ResponseWriter, r *http.Request) {
	list, err := h.ratings.ListByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getRating(w http.ResponseWriter, r *http.Request) {
	rating, err := h.ratings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}

func (h *handler) updateRating(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateRatingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	rating, err := h.ratings.Update(r.Context(), chi.URLParam(r, "id"), principal(r), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}

func (h *handler) deleteRating(w http.ResponseWriter, r *http.Request) {
	if err := h.ratings.Delete(r.Context(), chi.URLParam(r, "id"), principal(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
