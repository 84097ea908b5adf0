package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// This file contains the HTTP handlers of the presentation adapter. A UI
// client renders whatever /api/state returns and forwards the user's actions
// to the event endpoints; all logic lives in the SearchController.

type searchTextRequest struct {
	Text string `json:"text"`
}

type selectLocationRequest struct {
	Name    string `json:"name" validate:"required"`
	Country string `json:"country"`
}

type configResponse struct {
	DevMode        bool   `json:"dev_mode"`
	FallbackCity   string `json:"fallback_city"`
	ForecastDays   int    `json:"forecast_days"`
	SearchDebounce int64  `json:"search_debounce_ms"`
}

// newRouter registers every route and wraps the mux in the middleware chain.
func (cfg *apiConfig) newRouter() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", cfg.handlerState)
	mux.HandleFunc("/api/search", cfg.handlerSearch)
	mux.HandleFunc("/api/select", cfg.handlerSelect)
	mux.HandleFunc("/api/toggle", cfg.handlerToggle)
	mux.HandleFunc("/api/config", cfg.handlerConfig)
	mux.Handle("/metrics", promhttp.Handler())
	return corsMiddleware(metricsMiddleware(mux))
}

func (cfg *apiConfig) handlerState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, cfg.controller.State())
}

// handlerSearch forwards the search box text. The search itself runs after
// the debounce window, so the response only confirms the event was taken.
func (cfg *apiConfig) handlerSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	var req searchTextRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	cfg.controller.OnSearchText(req.Text)
	cfg.respondWithJSON(w, http.StatusAccepted, cfg.controller.State())
}

// handlerSelect selects a location. The name is matched against the listed
// candidates ignoring case and diacritics; an unlisted name is still accepted
// and left to the upstream API's fuzzy matching.
func (cfg *apiConfig) handlerSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	var req selectLocationRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		cfg.respondWithError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	candidate, ok := matchCandidate(cfg.controller.State().Candidates, req.Name, req.Country)
	if !ok {
		cfg.logger.Debug("selected location not among candidates", "city", req.Name)
		candidate = LocationCandidate{Name: req.Name, Country: req.Country}
	}
	cfg.controller.OnSelect(candidate)
	cfg.respondWithJSON(w, http.StatusAccepted, cfg.controller.State())
}

func (cfg *apiConfig) handlerToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	cfg.controller.ToggleSearch()
	cfg.respondWithJSON(w, http.StatusOK, cfg.controller.State())
}

func (cfg *apiConfig) handlerConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, configResponse{
		DevMode:        cfg.devMode,
		FallbackCity:   cfg.fallbackCity,
		ForecastDays:   cfg.forecastDays,
		SearchDebounce: cfg.searchDebounce.Milliseconds(),
	})
}
