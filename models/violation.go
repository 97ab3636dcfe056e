package models

import (
	"fmt"
	"strings"
	"time"
)

// Severity classifies how serious a violation is. SwiftLint only reports two
// levels, so anything unrecognized is normalized to SeverityWarning.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity maps a reporter severity string to a Severity,
// case-insensitively. Unrecognized values default to SeverityWarning.
func ParseSeverity(s string) Severity {
	if strings.EqualFold(strings.TrimSpace(s), string(SeverityError)) {
		return SeverityError
	}
	return SeverityWarning
}

// Violation is a single finding reported by SwiftLint for one file/line.
//
// The ID is generated when the finding is parsed, not derived from its
// content, so the same underlying finding gets a new ID on every run. The
// column is TEXT in the store so a deterministic scheme can replace it later
// without a migration.
type Violation struct {
	ID        string `json:"id"`
	Workspace string `json:"workspace,omitempty"`
	Rule      string `json:"rule"`
	// File is relative to the workspace root unless the finding pointed
	// outside it, in which case the original path is kept as-is.
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`

	DetectedAt        time.Time  `json:"detected_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	Suppressed        bool       `json:"suppressed,omitempty"`
	SuppressionReason string     `json:"suppression_reason,omitempty"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s (%s)", v.File, v.Line, v.Column, v.Severity, v.Message, v.Rule)
}

// ViolationFilter narrows a fetch/count. All set fields are combined with
// AND; zero values mean "no constraint".
type ViolationFilter struct {
	Rules          []string   `json:"rules,omitempty"`
	Files          []string   `json:"files,omitempty"`
	Severities     []Severity `json:"severities,omitempty"`
	SuppressedOnly bool       `json:"suppressed_only,omitempty"`
	DetectedAfter  time.Time  `json:"detected_after,omitempty"`
	DetectedBefore time.Time  `json:"detected_before,omitempty"`
}

// IsEmpty reports whether the filter constrains nothing.
func (f ViolationFilter) IsEmpty() bool {
	return len(f.Rules) == 0 && len(f.Files) == 0 && len(f.Severities) == 0 &&
		!f.SuppressedOnly && f.DetectedAfter.IsZero() && f.DetectedBefore.IsZero()
}

// Rule describes one SwiftLint rule from `swiftlint rules`.
type Rule struct {
	Identifier      string   `json:"identifier"`
	Name            string   `json:"name,omitempty"`
	Kind            string   `json:"kind,omitempty"`
	OptIn           bool     `json:"opt_in,omitempty"`
	Correctable     bool     `json:"correctable,omitempty"`
	DefaultSeverity Severity `json:"default_severity,omitempty"`
	// Description is filled in by the detail enrichment pass and stays
	// empty when the per-rule fetch times out.
	Description string `json:"description,omitempty"`
}

// AnalysisResult summarizes a completed run.
type AnalysisResult struct {
	Workspace     string        `json:"workspace"`
	Violations    []Violation   `json:"violations,omitempty"`
	FilesAnalyzed int           `json:"files_analyzed"`
	ConfigPath    string        `json:"config_path,omitempty"`
	ConfigHash    string        `json:"config_hash,omitempty"`
	Duration      time.Duration `json:"duration"`
	// Skipped is true when an incremental run found no changed files and
	// never invoked the external tool.
	Skipped bool `json:"skipped,omitempty"`
}
