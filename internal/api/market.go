package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

type createListingRequest struct {
	Price decimal.Decimal `json:"price"`
}

func listingsCollectionHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r.Context())
		switch r.Method {
		case http.MethodGet:
			listings, err := sess.Market.Listings(r.Context())
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"listings": listings,
				"total":    len(listings),
			})
		case http.MethodPost:
			var req createListingRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid json payload")
				return
			}
			if req.Price.LessThanOrEqual(decimal.Zero) {
				writeError(w, http.StatusBadRequest, "price must be positive")
				return
			}
			listing, err := sess.Market.List(r.Context(), req.Price)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, listing)
		default:
			methodNotAllowed(w)
		}
	})
}

func listingScopedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r.Context())
		tail := pathTail(r.URL.Path, "/api/v1/market/listings/")
		id, action, _ := strings.Cut(tail, "/")
		if id == "" {
			writeError(w, http.StatusBadRequest, "listing id is required")
			return
		}

		switch {
		case action == "" && r.Method == http.MethodDelete:
			if err := sess.Market.Unlist(r.Context(), id); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		case action == "purchase" && r.Method == http.MethodPost:
			fleet, err := sess.Market.Purchase(r.Context(), id)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, fleet)
		case action == "" || action == "purchase":
			methodNotAllowed(w)
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	})
}

func boughtFleetsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		sess := currentSession(r.Context())
		fleets, err := sess.Market.PurchasedFleets(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"fleets": fleets,
			"total":  len(fleets),
		})
	})
}
