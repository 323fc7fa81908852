package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSourceData is returned when upstream data is not a log collection at all
	ErrMalformedSourceData = errors.New("malformed source data")

	// ErrUnresolvableReference is returned when a record points to a team or match unknown locally
	ErrUnresolvableReference = errors.New("unresolvable reference")

	// ErrMatchNotFound is returned when a match is not registered
	ErrMatchNotFound = errors.New("match not found")

	// ErrInvalidInput is returned for rejected registry input
	ErrInvalidInput = errors.New("invalid input")

	// ErrMatchBusy is returned when another poll of the same match is in progress
	ErrMatchBusy = errors.New("match is being processed")
)

// FetchReason classifies fetch failures
type FetchReason string

const (
	FetchTimeout     FetchReason = "timeout"
	FetchNotFound    FetchReason = "not_found"
	FetchServerError FetchReason = "server_error"
)

// FetchError is returned by the upstream source
type FetchError struct {
	MatchID int64
	Reason  FetchReason
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch match %d: %s: %v", e.MatchID, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch match %d: %s", e.MatchID, e.Reason)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Stage is a step of the per-match poll cycle
type Stage string

const (
	StageIdle        Stage = "idle"
	StageFetching    Stage = "fetching"
	StageParsing     Stage = "parsing"
	StageDiffing     Stage = "diffing"
	StageClassifying Stage = "classifying"
	StageBuilding    Stage = "building"
	StageDispatching Stage = "dispatching"
)

// StageError reports the stage a poll cycle failed in
type StageError struct {
	Stage   Stage
	MatchID int64
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("match %d: %s: %v", e.MatchID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failed stage of err, or StageIdle if err carries none
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return StageIdle
}
