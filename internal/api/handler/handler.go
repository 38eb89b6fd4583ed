// Package handler implements the HTTP endpoints. Each constructor takes the
// narrow interface it needs so handlers can be tested without a database.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	mw "github.com/kiranshivaraju/notable/internal/api/middleware"
	"github.com/kiranshivaraju/notable/internal/api/response"
	"github.com/kiranshivaraju/notable/pkg/models"
)

const maxBodyBytes = 1 << 20

// requireUser returns the authenticated user or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := mw.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
		return uuid.Nil, false
	}
	return userID, true
}

// decodeBody reads a JSON body into v or writes a 400.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		invalid(w, "Invalid JSON body")
		return false
	}
	return true
}

func invalid(w http.ResponseWriter, message string) {
	response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", message, nil)
}

// parseProviders converts request names. An empty list stays nil so the
// caller's default applies.
func parseProviders(w http.ResponseWriter, names []string) ([]models.Provider, bool) {
	if len(names) == 0 {
		return nil, true
	}
	providers, err := models.ParseProviders(names)
	if err != nil {
		invalid(w, err.Error())
		return nil, false
	}
	return providers, true
}

// queryLimit reads ?limit= clamped to [1, max], defaulting to def.
func queryLimit(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
