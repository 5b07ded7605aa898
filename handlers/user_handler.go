package handlers

import (
	"errors"
	"net/http"

	"github.com/afras1234/futsal-booking-system/middleware"
	"github.com/afras1234/futsal-booking-system/services"
)

const maxPhotoSize = 5 << 20 // 5MB

type UserHandler struct {
	userService    services.UserService
	bookingService services.BookingService
}

func NewUserHandler(userService services.UserService, bookingService services.BookingService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		bookingService: bookingService,
	}
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := readIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Bookings отдаёт брони пользователя с заполненными площадками.
func (h *UserHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	id, err := readIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bookings, err := h.bookingService.ListForUser(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bookings": bookings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.UpdateProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
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

	user, err := h.userService.UploadPhoto(r.Context(), userID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete удаляет только собственный аккаунт.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	id, err := readIntParam(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if id != requesterID {
		forbiddenResponse(w, r, services.ErrForbiddenOperation.Error())
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "account deleted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
