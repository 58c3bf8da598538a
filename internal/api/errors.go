package api

import (
	"errors"
	"net/http"

	"flowpilot/internal/ledger"
	"flowpilot/internal/market"
	"flowpilot/internal/wallet"
)

// writeDomainError maps the ledger/wallet error taxonomy onto HTTP
// status codes: missing records are 404, a ledger already mid-mutation
// is 409, an unresponsive chain is 504, and any other external failure
// is 502.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, market.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, market.ErrEmptyFleet):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, wallet.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, wallet.ErrExternal):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
