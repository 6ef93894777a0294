package domain

import "fmt"

// FetchError means the item's content was unreachable or unsupported.
type FetchError struct {
	URL   string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// ExtractError means the fetched document yielded no usable text.
type ExtractError struct {
	URL    string
	Reason string
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.URL, e.Reason)
}

// SummarizeError means the model call failed or returned unusable output.
type SummarizeError struct {
	ItemID string
	Cause  error
}

func (e *SummarizeError) Error() string {
	return fmt.Sprintf("summarize item %s: %v", e.ItemID, e.Cause)
}

func (e *SummarizeError) Unwrap() error { return e.Cause }
