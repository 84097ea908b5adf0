package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// This file contains the SearchController, which owns the UI-facing
// SearchState and turns presentation events (startup, keystrokes, selections,
// search toggling) into calls to the weather service and the location store.
//
// Concurrency model:
//   - State is guarded by mu and only ever published as a copy.
//   - Forecast fetches run in their own goroutines; IsLoading stays true until
//     the last outstanding fetch has resolved, successfully or not.
//   - Searches are debounced; a fired search is never cancelled, so a slow
//     response can overwrite a faster, later one (last resolved wins).
//   - A failed fetch or search never overwrites state; it is logged and handed
//     to the error observer.
//   - Snapshots reach the state observer with no lock held, so the observer
//     may call back into the controller. Changes it makes are delivered after
//     it returns.

const (
	defaultFallbackCity   = "New Delhi"
	defaultForecastDays   = 7
	defaultDebounceWindow = 1200 * time.Millisecond
)

// ControllerOptions configures a SearchController. Zero values fall back to
// the defaults above.
type ControllerOptions struct {
	FallbackCity   string
	ForecastDays   int
	DebounceWindow time.Duration
	Logger         *slog.Logger

	// OnStateChange receives new state snapshots. Calls are serialized and
	// an older snapshot is never delivered after a newer one. Snapshots that
	// are superseded while an earlier one is being delivered are skipped.
	OnStateChange func(SearchState)
	// OnError receives every failure the controller absorbs.
	OnError func(error)
}

// SearchController owns the SearchState shown to the user and reacts to
// presentation events. It is safe for concurrent use.
type SearchController struct {
	weather       WeatherService
	store         LocationStore
	fallbackCity  string
	forecastDays  int
	logger        *slog.Logger
	onStateChange func(SearchState)
	onError       func(error)
	debouncer     *Debouncer

	ctx    context.Context
	cancel context.CancelFunc

	mu               sync.Mutex
	state            SearchState
	version          uint64
	notified         uint64
	notifying        bool
	pendingForecasts int

	inflight sync.WaitGroup
}

// NewSearchController returns a controller showing the placeholder forecast
// in the loading state. Call Initialize to load the real one.
func NewSearchController(weather WeatherService, store LocationStore, opts ControllerOptions) *SearchController {
	if opts.FallbackCity == "" {
		opts.FallbackCity = defaultFallbackCity
	}
	if opts.ForecastDays < 1 {
		opts.ForecastDays = defaultForecastDays
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = defaultDebounceWindow
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &SearchController{
		weather:       weather,
		store:         store,
		fallbackCity:  opts.FallbackCity,
		forecastDays:  opts.ForecastDays,
		logger:        opts.Logger,
		onStateChange: opts.OnStateChange,
		onError:       opts.OnError,
		debouncer:     NewDebouncer(opts.DebounceWindow),
		ctx:           ctx,
		cancel:        cancel,
		state: SearchState{
			CurrentForecast: placeholderForecast,
			Candidates:      []LocationCandidate{},
			IsLoading:       true,
		},
	}
}

// State returns a snapshot of the current state.
func (c *SearchController) State() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Initialize resolves the city to show at startup (the stored one, or the
// fallback), starts fetching its forecast and persists it.
func (c *SearchController) Initialize(ctx context.Context) {
	c.update(func(s *SearchState) {
		c.pendingForecasts++
		s.IsLoading = true
	})

	cityName := c.fallbackCity
	stored, err := c.store.Get(ctx, cityKey)
	switch {
	case err == nil && stored != "":
		cityName = stored
	case err == nil, errors.Is(err, ErrLocationNotStored):
		c.logger.Debug("no stored city, using fallback", "city", cityName)
	default:
		c.report("could not read stored city", err)
	}
	c.logger.Info("loading initial forecast", "city", cityName)

	c.loadForecast(cityName)

	if err := c.store.Put(ctx, cityKey, cityName); err != nil {
		c.report("could not persist city", err, "city", cityName)
	}

	c.update(func(s *SearchState) {
		s.Candidates = nil
	})
}

// OnSearchText handles a change of the search box text. An empty text clears
// the candidates immediately; anything else schedules a debounced search.
func (c *SearchController) OnSearchText(text string) {
	if text == "" {
		c.debouncer.Cancel()
		c.update(func(s *SearchState) {
			s.Candidates = nil
		})
		return
	}

	c.debouncer.Trigger(func() {
		c.runSearch(text)
	})
}

// OnSelect switches the forecast to the chosen candidate and remembers it.
// A candidate without a name is reported as ErrInvalidSpec and ignored.
func (c *SearchController) OnSelect(candidate LocationCandidate) {
	if candidate.Name == "" {
		c.report("could not select location", failure(ErrInvalidSpec, "empty location name"), "country", candidate.Country)
		return
	}

	c.update(func(s *SearchState) {
		c.pendingForecasts++
		s.IsLoading = true
		s.IsSearchActive = false
		s.Candidates = nil
	})

	c.logger.Info("location selected", "city", candidate.Name, "country", candidate.Country)
	c.loadForecast(candidate.Name)

	if err := c.store.Put(c.ctx, cityKey, candidate.Name); err != nil {
		c.report("could not persist city", err, "city", candidate.Name)
	}
}

// ToggleSearch opens or closes the search UI. The candidate list is cleared
// either way.
func (c *SearchController) ToggleSearch() {
	c.update(func(s *SearchState) {
		s.IsSearchActive = !s.IsSearchActive
		s.Candidates = nil
	})
}

// Refresh synchronously re-fetches the forecast for the stored city. It is
// used by the periodic refresh scheduler.
func (c *SearchController) Refresh(ctx context.Context) error {
	cityName := c.fallbackCity
	stored, err := c.store.Get(ctx, cityKey)
	if err == nil && stored != "" {
		cityName = stored
	} else if err != nil && !errors.Is(err, ErrLocationNotStored) {
		c.report("could not read stored city", err)
	}

	c.update(func(s *SearchState) {
		c.pendingForecasts++
		s.IsLoading = true
	})
	forecast, err := c.weather.FetchForecast(ctx, CitySpec{CityName: cityName, Days: c.forecastDays})
	c.applyForecast(forecast, err)
	if err != nil {
		c.report("could not refresh forecast", err, "city", cityName)
		return fmt.Errorf("refresh forecast for %s: %w", cityName, err)
	}
	c.logger.Debug("forecast refreshed", "city", cityName)
	return nil
}

// Wait blocks until every forecast fetch started so far has resolved.
func (c *SearchController) Wait() {
	c.inflight.Wait()
}

// Close drops any pending search and cancels outstanding requests.
func (c *SearchController) Close() {
	c.debouncer.Cancel()
	c.cancel()
}

func (c *SearchController) loadForecast(cityName string) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		forecast, err := c.weather.FetchForecast(c.ctx, CitySpec{CityName: cityName, Days: c.forecastDays})
		c.applyForecast(forecast, err)
		if err != nil {
			c.report("could not fetch forecast", err, "city", cityName)
			return
		}
		c.logger.Debug("forecast loaded", "city", forecast.Location.Name)
	}()
}

// applyForecast settles one outstanding forecast request. A failed request
// keeps the previous forecast.
func (c *SearchController) applyForecast(forecast ForecastResult, err error) {
	c.update(func(s *SearchState) {
		if err == nil {
			s.CurrentForecast = forecast
		}
		c.pendingForecasts--
		s.IsLoading = c.pendingForecasts > 0
	})
}

func (c *SearchController) runSearch(text string) {
	dispatchID := uuid.NewString()
	searchDispatchesTotal.Inc()
	c.logger.Debug("dispatching location search", "query", text, "dispatch_id", dispatchID)

	candidates, err := c.weather.SearchLocations(c.ctx, text)
	if err != nil {
		c.report("location search failed", err, "query", text, "dispatch_id", dispatchID)
		return
	}
	c.logger.Debug("location search resolved", "dispatch_id", dispatchID, "count", len(candidates))
	c.update(func(s *SearchState) {
		s.Candidates = candidates
	})
}

// update applies mutate under the state lock and publishes the result. The
// caller that finds no delivery in progress becomes the notifier and keeps
// delivering the newest snapshot until nothing newer is left.
func (c *SearchController) update(mutate func(s *SearchState)) {
	c.mu.Lock()
	mutate(&c.state)
	if c.state.Candidates == nil {
		c.state.Candidates = []LocationCandidate{}
	}
	c.version++

	if c.onStateChange == nil || c.notifying {
		c.mu.Unlock()
		return
	}
	c.notifying = true
	for c.notified < c.version {
		c.notified = c.version
		snapshot := c.state.clone()
		c.mu.Unlock()
		c.onStateChange(snapshot)
		c.mu.Lock()
	}
	c.notifying = false
	c.mu.Unlock()
}

func (c *SearchController) report(msg string, err error, attrs ...any) {
	c.logger.Warn(msg, append(attrs, "kind", failureKind(err), "error", err)...)
	if c.onError != nil {
		c.onError(fmt.Errorf("%s: %w", msg, err))
	}
}
