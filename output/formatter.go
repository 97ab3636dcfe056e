package output

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lintdock/lintdock/models"
	"github.com/samber/lo"
)

var (
	fileColor    = color.New(color.FgCyan, color.Bold)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	dimColor     = color.New(color.FgHiBlack)
)

// Manager renders analysis results and violation listings.
type Manager struct {
	format  string
	compact bool
}

func NewManager(format string) *Manager {
	return &Manager{format: format}
}

func (m *Manager) SetCompact(compact bool) {
	m.compact = compact
}

// Output renders an analysis result in the configured format.
func (m *Manager) Output(result *models.AnalysisResult) error {
	if m.format == "json" {
		return writeJSON(result)
	}

	if result.Skipped {
		fmt.Println("No changed files, analysis skipped")
		return nil
	}

	if err := m.PrintViolations(result.Violations); err != nil {
		return err
	}

	summary := fmt.Sprintf("%d violations across %d files (%v)",
		len(result.Violations), result.FilesAnalyzed, result.Duration.Round(time.Millisecond))
	if result.ConfigPath != "" {
		summary += fmt.Sprintf(", config %s", result.ConfigPath)
	}
	fmt.Println(dimColor.Sprint(summary))
	return nil
}

// PrintViolations renders violations grouped by file with a severity
// breakdown, or as JSON.
func (m *Manager) PrintViolations(violations []models.Violation) error {
	if m.format == "json" {
		return writeJSON(violations)
	}

	if len(violations) == 0 {
		fmt.Println("No violations")
		return nil
	}

	if m.compact {
		m.printSummary(violations)
		return nil
	}

	byFile := lo.GroupBy(violations, func(v models.Violation) string { return v.File })
	files := lo.Keys(byFile)
	sort.Strings(files)

	for _, file := range files {
		fmt.Println(fileColor.Sprint(file))
		for _, v := range byFile[file] {
			marker := warningColor.Sprint(string(v.Severity))
			if v.Severity == models.SeverityError {
				marker = errorColor.Sprint(string(v.Severity))
			}

			line := fmt.Sprintf("  %d:%d %s %s %s", v.Line, v.Column, marker, v.Message, dimColor.Sprintf("(%s)", v.Rule))
			if v.Suppressed {
				line += dimColor.Sprintf(" [suppressed: %s]", v.SuppressionReason)
			}
			if v.ResolvedAt != nil {
				line += dimColor.Sprint(" [resolved]")
			}
			fmt.Println(line)
		}
	}

	fmt.Println()
	m.printSummary(violations)
	return nil
}

func (m *Manager) printSummary(violations []models.Violation) {
	bySeverity := lo.CountValuesBy(violations, func(v models.Violation) models.Severity { return v.Severity })
	byRule := lo.CountValuesBy(violations, func(v models.Violation) string { return v.Rule })

	fmt.Printf("%s, %s across %d rules\n",
		errorColor.Sprintf("%d errors", bySeverity[models.SeverityError]),
		warningColor.Sprintf("%d warnings", bySeverity[models.SeverityWarning]),
		len(byRule))
}

// PrintRules renders the rule catalog.
func (m *Manager) PrintRules(rules []models.Rule) error {
	if m.format == "json" {
		return writeJSON(rules)
	}

	for _, r := range rules {
		var tags []string
		if r.OptIn {
			tags = append(tags, "opt-in")
		}
		if r.Correctable {
			tags = append(tags, "correctable")
		}

		line := fileColor.Sprint(r.Identifier)
		if len(tags) > 0 {
			line += dimColor.Sprintf(" (%s)", strings.Join(tags, ", "))
		}
		fmt.Println(line)
		if r.Description != "" {
			fmt.Println(dimColor.Sprint("  " + r.Description))
		}
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
