package api

import (
	"net/http"
	"testing"
	"time"

	"flowpilot/internal/bus"
	"flowpilot/internal/models"
	"flowpilot/internal/sim"
)

func TestEventsLongPollTimesOutEmpty(t *testing.T) {
	srv, token := setupTestServer(t)

	resp := doReq(t, srv.URL, token, http.MethodGet, "/api/v1/events?timeout_ms=10", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("events status = %d", resp.StatusCode)
	}
	var payload struct {
		Events []bus.Event `json:"events"`
	}
	decodeJSON(t, resp, &payload)
	if len(payload.Events) != 0 {
		t.Fatalf("events = %v", payload.Events)
	}
}

func TestEventsLongPollReceivesSignal(t *testing.T) {
	srv, token := setupTestServer(t)

	mint := doReq(t, srv.URL, token, http.MethodPost, "/api/v1/agents", map[string]any{
		"type": models.TagAutoCompound5P,
	})
	if mint.StatusCode != http.StatusCreated {
		t.Fatalf("mint status = %d", mint.StatusCode)
	}
	_ = mint.Body.Close()

	type pollResult struct {
		events []bus.Event
		status int
	}
	done := make(chan pollResult, 1)
	go func() {
		resp := doReq(t, srv.URL, token, http.MethodGet,
			"/api/v1/events?topics="+bus.TopicMarketplaceUpdated+"&timeout_ms=5000", nil)
		var payload struct {
			Events []bus.Event `json:"events"`
		}
		decodeJSON(t, resp, &payload)
		done <- pollResult{events: payload.Events, status: resp.StatusCode}
	}()

	// Give the poll time to subscribe before publishing.
	time.Sleep(200 * time.Millisecond)
	list := doReq(t, srv.URL, token, http.MethodPost, "/api/v1/market/listings", map[string]any{
		"price": "500",
	})
	if list.StatusCode != http.StatusCreated {
		t.Fatalf("list status = %d", list.StatusCode)
	}
	_ = list.Body.Close()

	select {
	case res := <-done:
		if res.status != http.StatusOK {
			t.Fatalf("poll status = %d", res.status)
		}
		if len(res.events) != 1 || res.events[0].Topic != bus.TopicMarketplaceUpdated {
			t.Fatalf("poll events = %+v", res.events)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("long poll never returned")
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	srv, token := setupTestServer(t)

	resp := doReq(t, srv.URL, token, http.MethodGet, "/api/v1/leaderboard?limit=10", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard status = %d", resp.StatusCode)
	}
	var payload struct {
		Fleets []sim.FleetPerformance `json:"fleets"`
		Total  int                    `json:"total"`
	}
	decodeJSON(t, resp, &payload)
	if payload.Total != 10 || len(payload.Fleets) != 10 {
		t.Fatalf("fleets = %d, total = %d", len(payload.Fleets), payload.Total)
	}
	if payload.Fleets[0].Rank != 1 {
		t.Fatalf("top rank = %d", payload.Fleets[0].Rank)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	srv, token := setupTestServer(t)

	resp := doReq(t, srv.URL, token, http.MethodGet, "/api/v1/analytics?timeframe=7d", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analytics status = %d", resp.StatusCode)
	}
	var report sim.Report
	decodeJSON(t, resp, &report)
	if report.Timeframe != sim.Timeframe7d || len(report.Series) != 7 {
		t.Fatalf("report = %s with %d points", report.Timeframe, len(report.Series))
	}

	bad := doReq(t, srv.URL, token, http.MethodGet, "/api/v1/analytics?timeframe=1y", nil)
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", bad.StatusCode)
	}
	_ = bad.Body.Close()
}
