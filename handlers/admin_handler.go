package handlers

import (
	"net/http"

	"github.com/afras1234/futsal-booking-system/middleware"
	"github.com/afras1234/futsal-booking-system/services"
)

type AdminHandler struct {
	adminService services.AdminService
	jwtSecret    []byte
}

func NewAdminHandler(adminService services.AdminService, jwtSecret string) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		jwtSecret:    []byte(jwtSecret),
	}
}

func (h *AdminHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input services.AdminSignUpInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if fields := validateInput(input); fields != nil {
		failedValidationResponse(w, r, fields)
		return
	}

	admin, err := h.adminService.SignUp(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, err := generateToken(h.jwtSecret, admin.ID, middleware.RoleAdmin)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"id":    admin.ID,
		"admin": admin,
		"token": token,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if fields := validateInput(input); fields != nil {
		failedValidationResponse(w, r, fields)
		return
	}

	admin, err := h.adminService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, err := generateToken(h.jwtSecret, admin.ID, middleware.RoleAdmin)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"id":    admin.ID,
		"token": token,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Profile возвращает администратора вместе с его площадками.
func (h *AdminHandler) Profile(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	admin, err := h.adminService.GetByID(r.Context(), adminID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"admin": admin}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
