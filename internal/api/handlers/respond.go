package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// MessageLevel is the severity of a per-item message
type MessageLevel string

const (
	LevelInfo  MessageLevel = "info"
	LevelError MessageLevel = "error"
)

// Message reports the outcome of one item of a batch action
type Message struct {
	Level MessageLevel `json:"level"`
	Text  string       `json:"text"`
}

// BatchResponse is returned by every batch action
type BatchResponse struct {
	Messages []Message `json:"messages"`
	Error    string    `json:"error,omitempty"`
}

func (r *BatchResponse) add(ok bool, text string) {
	level := LevelInfo
	if !ok {
		level = LevelError
	}
	r.Messages = append(r.Messages, Message{Level: level, Text: text})
}

// RespondJSON writes v as a JSON body with the given status
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError writes a JSON error body
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// idsRequest is the body of the actions working on a set of records
type idsRequest struct {
	IDs []int64 `json:"ids"`
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
