package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestAPIConfig returns an apiConfig whose controller runs against the
// given mocks.
func newTestAPIConfig(t *testing.T, weather *mockWeatherService, store *mockLocationStore) *apiConfig {
	t.Helper()
	cfg := &apiConfig{
		fallbackCity:   defaultFallbackCity,
		forecastDays:   defaultForecastDays,
		searchDebounce: defaultDebounceWindow,
		logger:         discardLogger(),
	}
	cfg.controller = newTestController(t, weather, store, ControllerOptions{})
	return cfg
}

func decodeState(t *testing.T, rr *httptest.ResponseRecorder) SearchState {
	t.Helper()
	var state SearchState
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	return state
}

func TestHandlerConfig(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		devMode    bool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "Dev Mode True",
			method:     http.MethodGet,
			devMode:    true,
			wantStatus: http.StatusOK,
			wantBody:   `{"dev_mode":true,"fallback_city":"New Delhi","forecast_days":7,"search_debounce_ms":1200}`,
		},
		{
			name:       "Dev Mode False",
			method:     http.MethodGet,
			devMode:    false,
			wantStatus: http.StatusOK,
			wantBody:   `{"dev_mode":false,"fallback_city":"New Delhi","forecast_days":7,"search_debounce_ms":1200}`,
		},
		{
			name:       "Wrong Method",
			method:     http.MethodPost,
			devMode:    true,
			wantStatus: http.StatusMethodNotAllowed,
			wantBody:   `{"error":"Method Not Allowed"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			apiCfg := &apiConfig{
				devMode:        tc.devMode,
				fallbackCity:   defaultFallbackCity,
				forecastDays:   defaultForecastDays,
				searchDebounce: defaultDebounceWindow,
				logger:         discardLogger(),
			}

			req := httptest.NewRequest(tc.method, "/api/config", nil)
			rr := httptest.NewRecorder()

			apiCfg.handlerConfig(rr, req)

			if status := rr.Code; status != tc.wantStatus {
				t.Errorf("handler returned wrong status code: got %v want %v",
					status, tc.wantStatus)
			}

			if rr.Body.String() != tc.wantBody {
				t.Errorf("handler returned unexpected body: got %v want %v",
					rr.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestHandlerState(t *testing.T) {
	cfg := newTestAPIConfig(t, &mockWeatherService{}, newMockLocationStore(nil))

	t.Run("Initial state", func(t *testing.T) {
		rr := httptest.NewRecorder()
		cfg.handlerState(rr, httptest.NewRequest(http.MethodGet, "/api/state", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		state := decodeState(t, rr)
		assert.Equal(t, "New Delhi", state.CurrentForecast.Location.Name)
		assert.True(t, state.IsLoading)
		assert.False(t, state.IsSearchActive)
		assert.NotNil(t, state.Candidates)
		assert.Contains(t, rr.Body.String(), `"candidates":[]`)
	})

	t.Run("Wrong Method", func(t *testing.T) {
		rr := httptest.NewRecorder()
		cfg.handlerState(rr, httptest.NewRequest(http.MethodPost, "/api/state", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		assert.JSONEq(t, `{"error":"Method Not Allowed"}`, rr.Body.String())
	})
}

func TestHandlerState_KeepsZeroCoordinates(t *testing.T) {
	weather := &mockWeatherService{
		SearchLocationsFunc: func(ctx context.Context, nameFragment string) ([]LocationCandidate, error) {
			return []LocationCandidate{{Name: "Null Island", Country: "Atlantic Ocean"}}, nil
		},
	}
	cfg := newTestAPIConfig(t, weather, newMockLocationStore(nil))

	cfg.controller.OnSearchText("Null")
	require.Eventually(t, func() bool {
		return len(cfg.controller.State().Candidates) == 1
	}, eventuallyTimeout, eventuallyTick)

	rr := httptest.NewRecorder()
	cfg.handlerState(rr, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `{"name":"Null Island","country":"Atlantic Ocean","lat":0,"lon":0}`)
}

func TestHandlerSearch(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantSearch string
	}{
		{
			name:       "Success",
			method:     http.MethodPost,
			body:       `{"text":"Par"}`,
			wantStatus: http.StatusAccepted,
			wantSearch: "Par",
		},
		{
			name:       "Empty text",
			method:     http.MethodPost,
			body:       `{"text":""}`,
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "Malformed JSON",
			method:     http.MethodPost,
			body:       `{"text":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Unknown field",
			method:     http.MethodPost,
			body:       `{"query":"Par"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Wrong Method",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			weather := &mockWeatherService{}
			cfg := newTestAPIConfig(t, weather, newMockLocationStore(nil))

			req := httptest.NewRequest(tc.method, "/api/search", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			cfg.handlerSearch(rr, req)

			require.Equal(t, tc.wantStatus, rr.Code, rr.Body.String())
			if tc.wantSearch == "" {
				assert.Empty(t, weather.SearchCalls())
				return
			}
			require.Eventually(t, func() bool {
				return len(cfg.controller.State().Candidates) == 1
			}, eventuallyTimeout, eventuallyTick)
			assert.Equal(t, []string{tc.wantSearch}, weather.SearchCalls())
		})
	}
}

func TestHandlerSelect(t *testing.T) {
	t.Run("Listed candidate", func(t *testing.T) {
		weather := &mockWeatherService{}
		store := newMockLocationStore(nil)
		cfg := newTestAPIConfig(t, weather, store)

		cfg.controller.OnSearchText("Paris")
		require.Eventually(t, func() bool {
			return len(cfg.controller.State().Candidates) == 1
		}, eventuallyTimeout, eventuallyTick)

		req := httptest.NewRequest(http.MethodPost, "/api/select", strings.NewReader(`{"name":"PARIS","country":"testland"}`))
		rr := httptest.NewRecorder()
		cfg.handlerSelect(rr, req)

		require.Equal(t, http.StatusAccepted, rr.Code)
		state := decodeState(t, rr)
		assert.False(t, state.IsSearchActive)
		assert.Empty(t, state.Candidates)

		cfg.controller.Wait()
		v, ok := store.Value(cityKey)
		require.True(t, ok)
		assert.Equal(t, "Paris", v)
		assert.Equal(t, "Paris", cfg.controller.State().CurrentForecast.Location.Name)
		assert.False(t, cfg.controller.State().IsLoading)
	})

	t.Run("Unlisted name", func(t *testing.T) {
		weather := &mockWeatherService{}
		store := newMockLocationStore(nil)
		cfg := newTestAPIConfig(t, weather, store)

		req := httptest.NewRequest(http.MethodPost, "/api/select", strings.NewReader(`{"name":"Atlantis"}`))
		rr := httptest.NewRecorder()
		cfg.handlerSelect(rr, req)

		require.Equal(t, http.StatusAccepted, rr.Code)
		cfg.controller.Wait()
		assert.Equal(t, []string{"city=Atlantis"}, store.PutCalls())
		require.Len(t, weather.ForecastCalls(), 1)
		assert.Equal(t, CitySpec{CityName: "Atlantis", Days: defaultForecastDays}, weather.ForecastCalls()[0])
	})

	t.Run("Missing name", func(t *testing.T) {
		weather := &mockWeatherService{}
		store := newMockLocationStore(nil)
		cfg := newTestAPIConfig(t, weather, store)

		req := httptest.NewRequest(http.MethodPost, "/api/select", strings.NewReader(`{"country":"France"}`))
		rr := httptest.NewRecorder()
		cfg.handlerSelect(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid request")
		assert.Empty(t, weather.ForecastCalls())
		assert.Empty(t, store.PutCalls())
	})

	t.Run("Wrong Method", func(t *testing.T) {
		cfg := newTestAPIConfig(t, &mockWeatherService{}, newMockLocationStore(nil))

		rr := httptest.NewRecorder()
		cfg.handlerSelect(rr, httptest.NewRequest(http.MethodGet, "/api/select", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestHandlerToggle(t *testing.T) {
	cfg := newTestAPIConfig(t, &mockWeatherService{}, newMockLocationStore(nil))

	rr := httptest.NewRecorder()
	cfg.handlerToggle(rr, httptest.NewRequest(http.MethodPost, "/api/toggle", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeState(t, rr).IsSearchActive)

	rr = httptest.NewRecorder()
	cfg.handlerToggle(rr, httptest.NewRequest(http.MethodPost, "/api/toggle", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decodeState(t, rr).IsSearchActive)

	rr = httptest.NewRecorder()
	cfg.handlerToggle(rr, httptest.NewRequest(http.MethodGet, "/api/toggle", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouter(t *testing.T) {
	cfg := newTestAPIConfig(t, &mockWeatherService{}, newMockLocationStore(nil))
	router := cfg.newRouter()

	testCases := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "State", method: http.MethodGet, path: "/api/state", wantStatus: http.StatusOK},
		{name: "Config", method: http.MethodGet, path: "/api/config", wantStatus: http.StatusOK},
		{name: "Toggle", method: http.MethodPost, path: "/api/toggle", wantStatus: http.StatusOK},
		{name: "Metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "Preflight", method: http.MethodOptions, path: "/api/select", wantStatus: http.StatusNoContent},
		{name: "Unknown route", method: http.MethodGet, path: "/api/unknown", wantStatus: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
