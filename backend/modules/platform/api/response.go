package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
)

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SendJSON writes data with status
func SendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// SendData writes data with 200
func SendData(w http.ResponseWriter, data interface{}) {
	SendJSON(w, http.StatusOK, data)
}

// SendMessage writes a {"message": ...} body with 200
func SendMessage(w http.ResponseWriter, message string) {
	SendJSON(w, http.StatusOK, map[string]string{"message": message})
}

// SendErrorMessage writes an error with an explicit status and message
func SendErrorMessage(w http.ResponseWriter, status int, message string) {
	SendJSON(w, status, ErrorResponse{Error: message})
}

// SendError maps err to a status code and a message safe for clients
func SendError(w http.ResponseWriter, err error, resource string) {
	status := StatusFor(err)
	SendJSON(w, status, ErrorResponse{Error: SanitizeError(err, resource), Code: http.StatusText(status)})
}

// StatusFor maps domain errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, accounts.ErrUserNotFound), errors.Is(err, accounts.ErrRoleNotFound):
		return http.StatusNotFound
	case errors.Is(err, accounts.ErrEmailExists), errors.Is(err, accounts.ErrRoleNameExists):
		return http.StatusConflict
	case errors.Is(err, accounts.ErrRoleInUse),
		errors.Is(err, accounts.ErrUserFieldsRequired),
		errors.Is(err, accounts.ErrRoleFieldsRequired),
		errors.Is(err, accounts.ErrUnknownPermission),
		errors.Is(err, auth.ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrAccountDisabled), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// SanitizeError converts internal errors to user-friendly messages.
// Domain sentinels are already safe and pass through unchanged.
func SanitizeError(err error, resource string) string {
	if err == nil {
		return "unknown error"
	}
	if StatusFor(err) != http.StatusInternalServerError {
		return rootMessage(err)
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "not found") || strings.Contains(errStr, "no rows"):
		return resource + " not found"
	case strings.Contains(errStr, "already exists") || strings.Contains(errStr, "duplicate"):
		return resource + " already exists"
	case strings.Contains(errStr, "permission") || strings.Contains(errStr, "unauthorized"):
		return "permission denied"
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "timeout"):
		return "service temporarily unavailable"
	default:
		return "failed to process " + resource
	}
}

// rootMessage returns the message of the innermost sentinel
func rootMessage(err error) string {
	for _, sentinel := range []error{
		accounts.ErrUserNotFound, accounts.ErrRoleNotFound, accounts.ErrEmailExists,
		accounts.ErrRoleNameExists, accounts.ErrRoleInUse, accounts.ErrUserFieldsRequired,
		accounts.ErrRoleFieldsRequired, auth.ErrMissingCredentials, auth.ErrInvalidCredentials,
		auth.ErrAccountDisabled, auth.ErrInvalidToken,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	// Unknown permission errors carry the offending name
	return err.Error()
}

// DecodeJSON reads a JSON body into v
func DecodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// PathID parses the {id} wildcard. On failure a 400 has already been sent.
func PathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		SendErrorMessage(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// RequireIdentity returns the caller set by the auth middleware.
// On failure a 401 has already been sent.
func RequireIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		SendErrorMessage(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return identity, true
}
