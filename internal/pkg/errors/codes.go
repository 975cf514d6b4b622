package errors

import "net/http"

var (
	// ErrNetwork - любой неуспешный вызов внешнего API
	ErrNetwork = New(
		"NETWORK_ERROR",
		"Remote service request failed",
		http.StatusBadGateway,
	)

	ErrValidation = New(
		"VALIDATION_ERROR",
		"Validation failed",
		http.StatusBadRequest,
	)

	// ErrStaleMarker - попытка изменить временный или уже отсутствующий маркер
	ErrStaleMarker = New(
		"STALE_MARKER",
		"Marker is not confirmed yet or no longer exists",
		http.StatusConflict,
	)

	// ErrAuthExpired - refresh не удался, сессия сброшена
	ErrAuthExpired = New(
		"AUTH_EXPIRED",
		"Session expired, please log in again",
		http.StatusUnauthorized,
	)

	ErrUnauthenticated = New(
		"UNAUTHENTICATED",
		"Authentication required",
		http.StatusUnauthorized,
	)

	ErrInvalidCredentials = New(
		"INVALID_CREDENTIALS",
		"Invalid email or password",
		http.StatusUnauthorized,
	)

	// ErrInvalidToken - ссылка из письма (сброс пароля, подтверждение email) недействительна
	ErrInvalidToken = New(
		"INVALID_TOKEN",
		"Link is invalid or has expired",
		http.StatusBadRequest,
	)

	ErrNotFound = New(
		"NOT_FOUND",
		"Resource not found",
		http.StatusNotFound,
	)

	ErrNoActiveJourney = New(
		"NO_ACTIVE_JOURNEY",
		"No active journey selected",
		http.StatusConflict,
	)

	ErrInvalidState = New(
		"INVALID_STATE",
		"Action is not allowed in the current map state",
		http.StatusConflict,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
