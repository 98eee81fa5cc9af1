package models

import "time"

// BatchReport aggregates the outcome of one ingestion run.
type BatchReport struct {
	RunID           string    `json:"runId" msgpack:"runId"`
	StartedAt       time.Time `json:"startedAt" msgpack:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt" msgpack:"finishedAt"`
	Attempted       int       `json:"attempted" msgpack:"attempted"`
	Succeeded       int       `json:"succeeded" msgpack:"succeeded"`
	Recovered       int       `json:"recovered" msgpack:"recovered"`
	AutoSaved       int       `json:"autoSaved" msgpack:"autoSaved"`
	Failed          int       `json:"failed" msgpack:"failed"`
	Duplicates      int       `json:"duplicates" msgpack:"duplicates"`
	Skipped         int       `json:"skipped" msgpack:"skipped"`
	UnmatchedImages int       `json:"unmatchedImages" msgpack:"unmatchedImages"`
	Unsupported     int       `json:"unsupported" msgpack:"unsupported"`
	Canceled        bool      `json:"canceled,omitempty" msgpack:"canceled,omitempty"`
}
