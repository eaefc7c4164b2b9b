package http

import (
	"errors"
	"net/http"

	"github.com/tokoprima/tokoprima/internal/close"
	"github.com/tokoprima/tokoprima/internal/platform/httpx"
)

// respondError maps the closing sentinels before handing the shared ledger
// errors to httpx. Pre-close failures carry their issue list in the body so a
// client can show the operator exactly what blocks the close.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, close.ErrRecordNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())

	case errors.Is(err, close.ErrNoSuccessorPeriod):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())

	case errors.Is(err, close.ErrAlreadyClosed),
		errors.Is(err, close.ErrSuccessorClosed):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())

	case errors.Is(err, close.ErrPreCloseValidation):
		var pce *close.PreCloseError
		if errors.As(err, &pce) {
			httpx.JSON(w, http.StatusConflict, httpx.ProblemDetail{
				Title:  "Pre-Close Validation Failed",
				Status: http.StatusConflict,
				Detail: err.Error(),
				Issues: pce.Issues,
			})
			return
		}
		httpx.Problem(w, http.StatusConflict, "Pre-Close Validation Failed", err.Error())

	default:
		httpx.RespondError(w, err)
	}
}
