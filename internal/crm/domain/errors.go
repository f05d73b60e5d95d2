package domain

import "fmt"

// Source names one of the two ledgers.
type Source string

const (
	SourceBusiness   Source = "business"
	SourceScheduling Source = "scheduling"
)

// SourceUnavailableError means a ledger could not be loaded, so the pass
// must not run: reconciling against a missing side would invent GHOST or
// MANUAL statuses.
type SourceUnavailableError struct {
	Source Source
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s ledger unavailable", e.Source)
	}
	return fmt.Sprintf("%s ledger unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}
