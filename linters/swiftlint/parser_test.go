package swiftlint

import (
	"errors"
	"testing"

	"github.com/lintdock/lintdock/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyPayloadMeansCleanWorkspace(t *testing.T) {
	for _, payload := range []string{"", "   ", "\n"} {
		violations, err := Parse([]byte(payload), "/ws")
		require.NoError(t, err)
		assert.Empty(t, violations)
	}
}

func TestParse_InvalidPayload(t *testing.T) {
	_, err := Parse([]byte("warning: something went wrong"), "/ws")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidOutput))
}

func TestParse_DropsRecordMissingRequiredField(t *testing.T) {
	payload := `[
		{"file": "/ws/Sources/A.swift", "line": 10, "rule_id": "line_length", "severity": "Warning", "reason": "Line too long"},
		{"line": 20, "rule_id": "todo", "severity": "Warning", "reason": "TODO found"}
	]`

	violations, err := Parse([]byte(payload), "/ws")
	require.NoError(t, err)
	require.Len(t, violations, 1, "record missing file is dropped, the rest survives")
	assert.Equal(t, "line_length", violations[0].Rule)
}

func TestParse_DropsUndecodableRecord(t *testing.T) {
	payload := `[
		{"file": "/ws/A.swift", "line": "not-a-number", "rule_id": "todo", "severity": "Warning", "reason": "x"},
		{"file": "/ws/B.swift", "line": 2, "rule_id": "todo", "severity": "Warning", "reason": "x"}
	]`

	violations, err := Parse([]byte(payload), "/ws")
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "B.swift", violations[0].File)
}

func TestParse_SeverityMapping(t *testing.T) {
	tests := []struct {
		name     string
		severity string
		want     models.Severity
		dropped  bool
	}{
		{name: "lowercase_error", severity: "error", want: models.SeverityError},
		{name: "capitalized_error", severity: "Error", want: models.SeverityError},
		{name: "capitalized_warning", severity: "Warning", want: models.SeverityWarning},
		{name: "unrecognized_defaults_to_warning", severity: "Critical", want: models.SeverityWarning},
		{name: "missing_severity_drops_record", severity: "", dropped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := `[{"file": "/ws/A.swift", "line": 1, "rule_id": "todo", "severity": "` + tt.severity + `", "reason": "x"}]`
			violations, err := Parse([]byte(payload), "/ws")
			require.NoError(t, err)

			if tt.dropped {
				assert.Empty(t, violations)
				return
			}
			require.Len(t, violations, 1)
			assert.Equal(t, tt.want, violations[0].Severity)
		})
	}
}

func TestParse_RelativizesPathsInsideWorkspace(t *testing.T) {
	payload := `[
		{"file": "/ws/Sources/Deep/A.swift", "line": 1, "rule_id": "todo", "severity": "warning", "reason": "x"},
		{"file": "/elsewhere/B.swift", "line": 2, "rule_id": "todo", "severity": "warning", "reason": "x"},
		{"file": "Sources/C.swift", "line": 3, "rule_id": "todo", "severity": "warning", "reason": "x"}
	]`

	violations, err := Parse([]byte(payload), "/ws")
	require.NoError(t, err)
	require.Len(t, violations, 3)
	assert.Equal(t, "Sources/Deep/A.swift", violations[0].File)
	assert.Equal(t, "/elsewhere/B.swift", violations[1].File, "paths outside the workspace pass through")
	assert.Equal(t, "Sources/C.swift", violations[2].File, "relative paths pass through")
}

func TestParse_RuleFallsBackToNormalizedType(t *testing.T) {
	payload := `[{"file": "/ws/A.swift", "line": 1, "type": "Line Length", "severity": "warning", "reason": "x"}]`

	violations, err := Parse([]byte(payload), "/ws")
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "line_length", violations[0].Rule)
}

func TestParse_MessageFallsBackToMessageField(t *testing.T) {
	payload := `[{"file": "/ws/A.swift", "line": 1, "rule_id": "todo", "severity": "warning", "message": "from message"}]`

	violations, err := Parse([]byte(payload), "/ws")
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "from message", violations[0].Message)
}

func TestParse_FreshIdentifiersPerParse(t *testing.T) {
	payload := `[{"file": "/ws/A.swift", "line": 1, "rule_id": "todo", "severity": "warning", "reason": "x"}]`

	first, err := Parse([]byte(payload), "/ws")
	require.NoError(t, err)
	second, err := Parse([]byte(payload), "/ws")
	require.NoError(t, err)

	require.NotEmpty(t, first[0].ID)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}

func TestParse_Character(t *testing.T) {
	payload := `[
		{"file": "/ws/A.swift", "line": 1, "character": 42, "rule_id": "todo", "severity": "warning", "reason": "x"},
		{"file": "/ws/B.swift", "line": 2, "rule_id": "todo", "severity": "warning", "reason": "x"}
	]`

	violations, err := Parse([]byte(payload), "/ws")
	require.NoError(t, err)
	require.Len(t, violations, 2)
	assert.Equal(t, 42, violations[0].Column)
	assert.Zero(t, violations[1].Column)
}

func TestParseRules(t *testing.T) {
	payload := `[
		{"identifier": "line_length", "name": "Line Length", "kind": "metrics", "default_severity": "Warning", "correctable": false},
		{"identifier": "force_cast", "name": "Force Cast", "kind": "idiomatic", "default_severity": "Error"},
		{"name": "no identifier, dropped"}
	]`

	rules, err := ParseRules([]byte(payload))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "line_length", rules[0].Identifier)
	assert.Equal(t, models.SeverityError, rules[1].DefaultSeverity)
}

func TestParseRules_InvalidPayload(t *testing.T) {
	_, err := ParseRules([]byte("not json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidOutput))
}
