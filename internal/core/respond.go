package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aquamarinepk/aqm"
)

// StatusFor maps a domain error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrStorage):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err using the service error envelope. Validation
// errors carry the list of offending fields.
func RespondError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":  "Validation failed",
			"errors": verr.Fields,
		})
		return
	}

	code := StatusFor(err)
	switch code {
	case http.StatusServiceUnavailable:
		aqm.RespondError(w, code, "Temporary storage failure, try again")
	case http.StatusInternalServerError:
		aqm.RespondError(w, code, "Internal error")
	default:
		aqm.RespondError(w, code, err.Error())
	}
}
