package quotes

import "errors"

// Domain errors for quotes.
var (
	// ErrNotFound indicates the requested quote was not found.
	ErrNotFound = errors.New("quote not found")
	// ErrEmptyQuote blocks sending a quote with no detail lines.
	ErrEmptyQuote = errors.New("quote requires at least one detail line")
	// ErrExpired rejects a decision on a quote past its validity window.
	ErrExpired = errors.New("quote has expired")
	// ErrAlreadyFinalized rejects a decision on a terminal quote.
	ErrAlreadyFinalized = errors.New("quote is already finalized")
	// ErrNotSent rejects a decision on a quote still in draft.
	ErrNotSent = errors.New("quote has not been sent")
	// ErrNotDraft blocks edits once the quote left draft.
	ErrNotDraft = errors.New("quote is no longer a draft")
	// ErrInvalidDecision indicates a decision outside approve/reject.
	ErrInvalidDecision = errors.New("decision must be approved or rejected")
	// ErrInvalidDetailType indicates an unknown line item type.
	ErrInvalidDetailType = errors.New("invalid quote detail type")
	// ErrInvalidValidity rejects a non-positive validity window.
	ErrInvalidValidity = errors.New("validity days must be positive")
)
