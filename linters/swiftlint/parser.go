package swiftlint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/google/uuid"
	"github.com/lintdock/lintdock/models"
)

// finding mirrors one object of SwiftLint's JSON reporter output. Older
// releases emit `type`/`reason`, newer ones also carry `rule_id`/`message`;
// both spellings are accepted.
type finding struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Character *int   `json:"character"`
	RuleID    string `json:"rule_id"`
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
}

// Parse converts raw reporter output into violations. Empty input is a
// clean workspace. A non-empty payload that is not a JSON array fails with
// ErrInvalidOutput; individual records missing required fields are dropped
// without aborting the batch.
func Parse(raw []byte, workspaceRoot string) ([]models.Violation, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: expected JSON array of findings: %v", models.ErrInvalidOutput, err)
	}

	detectedAt := time.Now()
	violations := make([]models.Violation, 0, len(records))
	for i, record := range records {
		var f finding
		if err := json.Unmarshal(record, &f); err != nil {
			logger.Debugf("Dropping undecodable finding %d: %v", i, err)
			continue
		}

		v, ok := f.toViolation(workspaceRoot, detectedAt)
		if !ok {
			logger.Debugf("Dropping finding %d: missing required fields", i)
			continue
		}
		violations = append(violations, v)
	}

	return violations, nil
}

func (f finding) toViolation(workspaceRoot string, detectedAt time.Time) (models.Violation, bool) {
	rule := f.RuleID
	if rule == "" {
		rule = normalizeRuleName(f.Type)
	}
	message := f.Reason
	if message == "" {
		message = f.Message
	}

	if f.File == "" || f.Line <= 0 || rule == "" || message == "" || strings.TrimSpace(f.Severity) == "" {
		return models.Violation{}, false
	}

	column := 0
	if f.Character != nil {
		column = *f.Character
	}

	return models.Violation{
		ID:         uuid.NewString(),
		Rule:       rule,
		File:       relativizePath(f.File, workspaceRoot),
		Line:       f.Line,
		Column:     column,
		Severity:   models.ParseSeverity(f.Severity),
		Message:    message,
		DetectedAt: detectedAt,
	}, true
}

// relativizePath strips the workspace root prefix from absolute paths.
// Paths outside the workspace pass through unchanged.
func relativizePath(path, workspaceRoot string) string {
	if workspaceRoot == "" || !filepath.IsAbs(path) {
		return path
	}

	root := strings.TrimSuffix(workspaceRoot, string(filepath.Separator)) + string(filepath.Separator)
	if strings.HasPrefix(path, root) {
		return strings.TrimPrefix(path, root)
	}
	return path
}

// normalizeRuleName turns a human rule name like "Line Length" into its
// identifier form ("line_length").
func normalizeRuleName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// ruleRecord mirrors one object of `swiftlint rules --format json`.
type ruleRecord struct {
	Identifier      string `json:"identifier"`
	Name            string `json:"name"`
	Kind            string `json:"kind"`
	OptIn           bool   `json:"opt_in"`
	Correctable     bool   `json:"correctable"`
	DefaultSeverity string `json:"default_severity"`
}

// ParseRules converts `swiftlint rules --format json` output into rules.
// Records without an identifier are dropped.
func ParseRules(raw []byte) ([]models.Rule, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: expected JSON array of rules: %v", models.ErrInvalidOutput, err)
	}

	rules := make([]models.Rule, 0, len(records))
	for i, record := range records {
		var r ruleRecord
		if err := json.Unmarshal(record, &r); err != nil {
			logger.Debugf("Dropping undecodable rule %d: %v", i, err)
			continue
		}
		if r.Identifier == "" {
			continue
		}

		rules = append(rules, models.Rule{
			Identifier:      r.Identifier,
			Name:            r.Name,
			Kind:            r.Kind,
			OptIn:           r.OptIn,
			Correctable:     r.Correctable,
			DefaultSeverity: models.ParseSeverity(r.DefaultSeverity),
		})
	}

	return rules, nil
}
