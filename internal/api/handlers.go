// Package api exposes the dashboard's slots and view-models as JSON.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vytor/chessdash/internal/dashboard"
	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/query"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Dashboard *dashboard.Dashboard
}

type tokenResponse struct {
	Token query.Token `json:"token"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}

// writeAccepted acknowledges a dispatched query with its token.
func writeAccepted(w http.ResponseWriter, r *http.Request, tok query.Token) {
	writeJSON(w, r, http.StatusAccepted, tokenResponse{Token: tok})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.NewValidationError("body", "request body is empty")
		}
		return errors.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}
