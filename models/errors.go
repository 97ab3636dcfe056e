package models

import "errors"

// Failure taxonomy surfaced past the store/orchestrator boundary. Callers
// match with errors.Is; underlying causes (exit codes, SQL errors) are only
// carried in the wrapped message, never as their own types.
var (
	ErrToolNotFound      = errors.New("analysis tool not found")
	ErrToolTimeout       = errors.New("analysis tool timed out")
	ErrInvalidOutput     = errors.New("invalid analysis output")
	ErrIOFailure         = errors.New("i/o failure")
	ErrAnalysisFailed    = errors.New("analysis failed")
	ErrWorkspaceNotFound = errors.New("workspace not found")
)
