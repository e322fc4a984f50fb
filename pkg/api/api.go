// Package api defines the contracts for API requests and responses.
// It decouples the HTTP surface from the internal domain models.
package api

import (
	"encoding/json"
	"net/http"
)

// FollowListRequest is the query contract for GET /follow-list.
type FollowListRequest struct {
	UserHandle string `json:"userHandle" validate:"required"`
	Order      int    `json:"order" validate:"gte=0"`
}

// FeedRequest is the query contract for GET /feed.
type FeedRequest struct {
	UserHandle string `json:"userHandle" validate:"required"`
	Order      int    `json:"order" validate:"gte=0"`
	Limit      int    `json:"limit" validate:"gte=1"`
	Format     string `json:"format" validate:"oneof=json rss"`
}

// ErrorResponse is the body returned for any failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// Success writes a JSON response with the given status code.
func Success(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes a JSON error response with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
