package handlers

import (
	"net/http"

	"github.com/afras1234/futsal-booking-system/middleware"
	"github.com/afras1234/futsal-booking-system/services"
)

type BookingHandler struct {
	bookingService services.BookingService
}

func NewBookingHandler(bookingService services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateBookingInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	// Бронь всегда оформляется на владельца токена.
	input.UserID = userID

	if fields := validateInput(input); fields != nil {
		failedValidationResponse(w, r, fields)
		return
	}

	booking, err := h.bookingService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"booking": booking}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := readIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	booking, err := h.bookingService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"booking": booking}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	id, err := readIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	booking, err := h.bookingService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if booking.UserID != userID {
		// Чужая бронь выглядит как несуществующая.
		notFoundResponse(w, r)
		return
	}

	if err := h.bookingService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "booking deleted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
