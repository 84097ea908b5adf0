package main

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// parseForecastResponse decodes a forecast.json body into a ForecastResult.
// A body without a location name is rejected.
func parseForecastResponse(body io.Reader) (ForecastResult, error) {
	var response responseForecastWAPI
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return ForecastResult{}, err
	}
	if response.Location.Name == "" {
		return ForecastResult{}, errors.New("forecast response has no location")
	}

	result := ForecastResult{
		Location: ForecastLocation{
			Name:    response.Location.Name,
			Region:  response.Location.Region,
			Country: response.Location.Country,
		},
		Current: CurrentConditions{
			TemperatureC:    response.Current.TempC,
			ConditionText:   response.Current.Condition.Text,
			WindKph:         response.Current.WindKph,
			HumidityPercent: response.Current.Humidity,
		},
		ForecastDays: make([]ForecastDay, 0, len(response.Forecast.ForecastDay)),
	}

	for _, day := range response.Forecast.ForecastDay {
		result.ForecastDays = append(result.ForecastDays, ForecastDay{
			Date:            day.Date,
			AvgTemperatureC: day.Day.AvgTempC,
			ConditionText:   day.Day.Condition.Text,
			Sunrise:         day.Astro.Sunrise,
		})
	}

	return result, nil
}

// parseSearchResponse decodes a search.json body. Upstream order is kept.
func parseSearchResponse(body io.Reader) ([]LocationCandidate, error) {
	var response responseSearchWAPI
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, err
	}

	candidates := make([]LocationCandidate, 0, len(response))
	for _, r := range response {
		candidates = append(candidates, LocationCandidate{
			Name:      r.Name,
			Region:    r.Region,
			Country:   r.Country,
			Latitude:  r.Lat,
			Longitude: r.Lon,
		})
	}
	return candidates, nil
}

// upstreamErrorMessage extracts the message from the API's error envelope,
// falling back to the raw (truncated) body.
func upstreamErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return "unreadable error body"
	}
	var envelope responseErrorWAPI
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return "empty error body"
	}
	return msg
}
