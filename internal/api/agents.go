package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"flowpilot/internal/models"
)

type mintAgentRequest struct {
	Type     string                `json:"type"`
	Strategy models.StrategyConfig `json:"strategy"`
}

func agentsCollectionHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r.Context())
		switch r.Method {
		case http.MethodGet:
			details, err := sess.Ledger.Details(r.Context())
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"agents": details,
				"total":  len(details),
			})
		case http.MethodPost:
			var req mintAgentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid json payload")
				return
			}
			req.Type = strings.TrimSpace(req.Type)
			if req.Type == "" {
				writeError(w, http.StatusBadRequest, "agent type is required")
				return
			}
			agent, err := sess.Ledger.Mint(r.Context(), req.Type, req.Strategy)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, agent)
		default:
			methodNotAllowed(w)
		}
	})
}

func agentScopedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tail := pathTail(r.URL.Path, "/api/v1/agents/")
		idPart, action, _ := strings.Cut(tail, "/")
		id, err := strconv.Atoi(idPart)
		if err != nil || id < 1 {
			writeError(w, http.StatusBadRequest, "invalid agent id")
			return
		}

		switch action {
		case "":
			agentItem(w, r, id)
		case "pause":
			agentSetPaused(w, r, id, true)
		case "resume":
			agentSetPaused(w, r, id, false)
		case "strategy":
			agentStrategy(w, r, id)
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	})
}

func agentItem(w http.ResponseWriter, r *http.Request, id int) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sess := currentSession(r.Context())
	detail, err := sess.Ledger.Detail(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func agentSetPaused(w http.ResponseWriter, r *http.Request, id int, paused bool) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sess := currentSession(r.Context())
	var err error
	if paused {
		err = sess.Ledger.Pause(r.Context(), id)
	} else {
		err = sess.Ledger.Resume(r.Context(), id)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status, err := sess.Ledger.Status(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
}

func agentStrategy(w http.ResponseWriter, r *http.Request, id int) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sess := currentSession(r.Context())
	var cfg models.StrategyConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json payload")
		return
	}
	agent, err := sess.Ledger.UpdateStrategy(r.Context(), id, cfg)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}
