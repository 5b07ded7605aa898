package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed    = errors.New("validation failed")
	ErrEmailInvalid        = errors.New("email address is invalid")
	ErrPasswordTooShort    = errors.New("password must be at least 6 characters")
	ErrRegistrationClosed  = errors.New("tournament registration is closed")
	ErrAlreadyRegistered   = errors.New("user is already registered for this tournament")
	ErrPlayerCountTooSmall = errors.New("team must have at least 5 players")
	ErrCourtFieldsRequired = errors.New("title, description and website url are required")
	ErrBookingSlotRequired = errors.New("booking date and time slot are required")
	ErrTeamFieldsRequired  = errors.New("team name, captain name and captain phone are required")
	ErrAdminSignupKeyWrong = errors.New("invalid admin signup key")

	// Ошибки входа: обе отвечают 401, но тексты различаются.
	ErrEmailNotRegistered = errors.New("no account registered for this email address")
	ErrPasswordMismatch   = errors.New("incorrect password")

	// Ошибки конфликтов
	ErrUserEmailConflict  = errors.New("email address is already in use")
	ErrAdminEmailConflict = errors.New("email address is already in use")

	// Ошибки аутентификации и авторизации
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrCourtNotFound      = errors.New("futsal court not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	// Ошибки турниров
	ErrTournamentInvalidDateRange = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidCapacity  = errors.New("tournament max teams must be positive")
	ErrTournamentInvalidStatus    = errors.New("invalid tournament status provided")

	// Внешние сервисы
	ErrPaymentGatewayFailure = errors.New("payment gateway request failed")
	ErrStorageNotConfigured  = errors.New("file storage is not configured")
)
