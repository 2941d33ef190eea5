package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"supply-rounds/internal/model"
)

// TranscriptRound is one request/response pair exchanged with the arbiter.
type TranscriptRound struct {
	Request  model.RoundRequest   `json:"request"`
	Response *model.RoundResponse `json:"response"`
}

// Transcript records a whole session so it can be inspected or replanned
// offline.
type Transcript struct {
	SessionID string               `json:"session_id"`
	UpdatedAt string               `json:"updated_at"` // RFC 3339
	Rounds    []TranscriptRound    `json:"rounds"`
	Final     *model.RoundResponse `json:"final,omitempty"`
}

// LoadTranscript loads a transcript from a JSON file
func LoadTranscript(filePath string) (*Transcript, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript file: %w", err)
	}

	var t Transcript
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript file: %w", err)
	}

	return &t, nil
}

// SaveTranscript saves a transcript to a JSON file
func SaveTranscript(t *Transcript, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	if err := os.WriteFile(filePath, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript file: %w", err)
	}

	return nil
}

// ResponseForDay returns the response received for the round submitted on day.
func (t *Transcript) ResponseForDay(day int) (*model.RoundResponse, bool) {
	for _, r := range t.Rounds {
		if r.Request.Day == day && r.Response != nil {
			return r.Response, true
		}
	}
	return nil, false
}
