package projection

import (
	"encoding/json"
	"fmt"
)

// DraftKey is the store key holding the saved form.
const DraftKey = "projectionsDraft_v2"

// KV is the subset of the local store drafts need.
type KV interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// LoadDraft returns the saved draft, or fallback when none exists or the
// stored blob is unreadable. Unknown or empty fields keep fallback's values.
func LoadDraft(kv KV, fallback Input) Input {
	raw, ok, err := kv.GetItem(DraftKey)
	if err != nil || !ok || raw == "" {
		return fallback
	}

	in := fallback
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return fallback
	}
	if in.Months() == 0 {
		in.Timeframe = fallback.Timeframe
	}
	if in.Frequency.IntervalsPerMonth() == 0 {
		in.Frequency = fallback.Frequency
	}
	if in.StartDate.IsZero() {
		in.StartDate = fallback.StartDate
	}
	return in
}

// SaveDraft persists the form as a single JSON blob.
func SaveDraft(kv KV, in Input) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding projection draft: %w", err)
	}
	if err := kv.SetItem(DraftKey, string(data)); err != nil {
		return fmt.Errorf("saving projection draft: %w", err)
	}
	return nil
}

// ClearDraft removes the saved form.
func ClearDraft(kv KV) error {
	return kv.RemoveItem(DraftKey)
}
