package main

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// This file contains helpers for reading JSON requests and sending JSON
// responses from the HTTP adapter.

const maxRequestBodyBytes = 1 << 16

type errorResponse struct {
	Error string `json:"error"`
}

// decodeJSONBody reads a JSON request body into dst and validates it against
// its struct tags. An empty body leaves dst at its zero value before
// validation.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body != nil && r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// respondWithError logs the error (if one is provided) and sends a JSON error
// payload with the given status code.
func (cfg *apiConfig) respondWithError(w http.ResponseWriter, code int, msg string, err error) {
	if err != nil {
		cfg.logger.Error(msg, "error", err)
	}
	cfg.respondWithJSON(w, code, errorResponse{
		Error: msg,
	})
}

func (cfg *apiConfig) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		cfg.logger.Error("error marshalling JSON", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(code)
	if _, err = w.Write(data); err != nil {
		cfg.logger.Error("error writing response", "error", err)
	}
}
