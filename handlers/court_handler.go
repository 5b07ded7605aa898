package handlers

import (
	"errors"
	"net/http"

	"github.com/afras1234/futsal-booking-system/middleware"
	"github.com/afras1234/futsal-booking-system/services"
)

type CourtHandler struct {
	courtService   services.CourtService
	bookingService services.BookingService
}

func NewCourtHandler(courtService services.CourtService, bookingService services.BookingService) *CourtHandler {
	return &CourtHandler{
		courtService:   courtService,
		bookingService: bookingService,
	}
}

func (h *CourtHandler) Create(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateCourtInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if fields := validateInput(input); fields != nil {
		failedValidationResponse(w, r, fields)
		return
	}

	court, err := h.courtService.Create(r.Context(), adminID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CourtHandler) List(w http.ResponseWriter, r *http.Request) {
	var featured *bool
	switch r.URL.Query().Get("featured") {
	case "true":
		v := true
		featured = &v
	case "false":
		v := false
		featured = &v
	}

	courts, err := h.courtService.List(r.Context(), featured)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"courts": courts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CourtHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := readIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	court, err := h.courtService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// Брони площадки подтягиваются отдельным запросом.
	bookings, err := h.bookingService.ListForCourt(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	court.Bookings = bookings

	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CourtHandler) Update(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	id, err := readIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateCourtInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	court, err := h.courtService.Update(r.Context(), adminID, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CourtHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	id, err := readIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		badRequestResponse(w, r, errors.New("failed to parse multipart form"))
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequestResponse(w, r, errors.New("photo file is required"))
		return
	}
	defer file.Close()

	court, err := h.courtService.UploadPhoto(r.Context(), adminID, id, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CourtHandler) Delete(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	id, err := readIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.courtService.Delete(r.Context(), adminID, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "court deleted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
