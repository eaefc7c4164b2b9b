// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/tokoprima/tokoprima/internal/accounting/shared"
)

// RespondError maps ledger domain errors to RFC7807 responses. The detail
// always carries the concrete violated invariant so operators can debug a
// rejected posting from the response alone. Packages with sentinels of their
// own map those first and fall back here for the shared set.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAccountNotFound),
		errors.Is(err, shared.ErrPeriodNotFound),
		errors.Is(err, shared.ErrJournalNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())

	case errors.Is(err, shared.ErrDuplicateCode):
		Problem(w, http.StatusConflict, "Duplicate Code", err.Error())

	case errors.Is(err, shared.ErrUnbalanced),
		errors.Is(err, shared.ErrInsufficientLines),
		errors.Is(err, shared.ErrUnknownAccount),
		errors.Is(err, shared.ErrInvalidParent),
		errors.Is(err, shared.ErrDateOutOfRange),
		errors.Is(err, shared.ErrNoActivePeriod):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())

	case errors.Is(err, shared.ErrPeriodClosed),
		errors.Is(err, shared.ErrPeriodOverlap),
		errors.Is(err, shared.ErrAccountInUse),
		errors.Is(err, shared.ErrEntryPosted):
		Problem(w, http.StatusConflict, "Conflict", err.Error())

	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
