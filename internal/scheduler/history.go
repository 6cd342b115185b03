package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// LoadHistory loads job history from a JSON file
func LoadHistory(path string) (map[string]*EventHistory, error) {
	history := make(map[string]*EventHistory)

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("INFO: Event history file not found at %s, starting with empty history", path)
		return history, nil
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event history %s: %w", path, err)
	}

	var historyList []EventHistory
	if err := json.Unmarshal(data, &historyList); err != nil {
		return nil, fmt.Errorf("failed to parse event history %s: %w", path, err)
	}

	// Convert list to map
	for i := range historyList {
		history[historyList[i].EventID] = &historyList[i]
	}

	log.Printf("INFO: Loaded event history for %d events from %s", len(history), path)
	return history, nil
}

// SaveHistory writes job history as a JSON list sorted by job ID
func SaveHistory(path string, history map[string]*EventHistory) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory %s: %w", dir, err)
	}

	ids := make([]string, 0, len(history))
	for id := range history {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	historyList := make([]EventHistory, 0, len(ids))
	for _, id := range ids {
		historyList = append(historyList, *history[id])
	}

	data, err := json.MarshalIndent(historyList, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode event history: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write event history %s: %w", path, err)
	}

	log.Printf("DEBUG: Saved event history for %d events to %s", len(history), path)
	return nil
}

// updateHistory folds a completed run into the history
func (s *Scheduler) updateHistory(result EventResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, exists := s.history[result.EventID]
	if !exists {
		h = &EventHistory{
			EventID: result.EventID,
		}
		s.history[result.EventID] = h
	}

	h.LastRun = result.EndTime
	h.LastDuration = result.EndTime.Sub(result.StartTime).Milliseconds()
	h.RunCount++

	h.LastError = ""
	if result.Success {
		h.LastStatus = "success"
		h.SuccessCount++
	} else {
		if errors.Is(result.Error, context.DeadlineExceeded) {
			h.LastStatus = "timeout"
		} else {
			h.LastStatus = "failure"
		}
		if result.Error != nil {
			h.LastError = result.Error.Error()
		}
		h.FailureCount++
	}

	log.Printf("DEBUG: Updated history for job '%s': status=%s, duration=%dms, runs=%d, success=%d, failures=%d",
		result.EventID, h.LastStatus, h.LastDuration, h.RunCount, h.SuccessCount, h.FailureCount)
}
