package api

import (
	"net/http"
)

func modeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		sess := currentSession(r.Context())
		writeJSON(w, http.StatusOK, map[string]string{
			"mode":    sess.Mode.State().String(),
			"address": sess.Mode.Address(),
		})
	})
}

func modeConnectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		sess := currentSession(r.Context())
		acct, err := sess.Mode.Connect(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"mode":    sess.Mode.State().String(),
			"address": acct.Address,
		})
	})
}

func modeDisconnectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		sess := currentSession(r.Context())
		if err := sess.Mode.Disconnect(r.Context()); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"mode":    sess.Mode.State().String(),
			"address": sess.Mode.Address(),
		})
	})
}
