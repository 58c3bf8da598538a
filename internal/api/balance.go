package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"flowpilot/internal/ledger"
)

func balanceHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r.Context())
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		balance, err := sess.Ledger.Balance(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"balance": balance})
	})
}

type balanceResetRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

func balanceResetHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		sess := currentSession(r.Context())

		var req balanceResetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid json payload")
			return
		}
		amount := ledger.DefaultInitialBalance
		if req.Amount != nil {
			amount = *req.Amount
		}

		if err := sess.Ledger.ResetBalance(r.Context(), amount); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"balance": amount})
	})
}

type balanceRefreshRequest struct {
	Address string `json:"address"`
}

func balanceRefreshHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		sess := currentSession(r.Context())

		var req balanceRefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid json payload")
			return
		}
		address := strings.TrimSpace(req.Address)
		if address == "" {
			address = sess.Mode.Address()
		}

		balance, err := sess.Ledger.RefreshBalance(r.Context(), address)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"balance": balance})
	})
}

func portfolioHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		sess := currentSession(r.Context())
		ctx := r.Context()

		value, err := sess.Ledger.PortfolioValue(ctx)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		suggested, err := sess.Ledger.SuggestedListPrice(ctx)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		profit, err := sess.Ledger.TotalProfit(ctx)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"value":                value,
			"suggested_list_price": suggested,
			"total_profit":         profit,
		})
	})
}
