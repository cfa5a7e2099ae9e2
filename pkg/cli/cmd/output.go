package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/rzbill/stockroom/pkg/catalog"
	"github.com/rzbill/stockroom/pkg/cli/format"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var ansiRegex = regexp.MustCompile("\x1b\\[[0-9;]*m")

// ResourceTable renders rows with a styled header.
type ResourceTable struct {
	Headers     []string
	ShowHeaders bool
	MaxWidth    int

	tableRenderer *pterm.TablePrinter
}

// NewResourceTable creates a new resource table with default configuration
func NewResourceTable(headers ...string) *ResourceTable {
	table := pterm.DefaultTable.WithHasHeader(true)
	headerStyle := pterm.NewStyle(pterm.FgCyan, pterm.Bold)
	table = table.WithHeaderStyle(headerStyle)

	return &ResourceTable{
		Headers:       headers,
		ShowHeaders:   true,
		MaxWidth:      60,
		tableRenderer: table,
	}
}

// Render writes rows to w, or a placeholder line when rows is empty.
func (t *ResourceTable) Render(w io.Writer, empty string, rows [][]string) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, empty)
		return nil
	}
	data := make([][]string, 0, len(rows)+1)
	if t.ShowHeaders {
		data = append(data, t.Headers)
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = truncate(cell, t.MaxWidth)
		}
		data = append(data, cells)
	}
	out, err := t.tableRenderer.WithHasHeader(t.ShowHeaders).WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}

// outputResource writes v as json or yaml, or calls table for table output.
func (e *cliEnv) outputResource(cmd *cobra.Command, v interface{}, table func(io.Writer) error) error {
	w := cmd.OutOrStdout()
	switch strings.ToLower(e.output) {
	case "", "table":
		return table(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("unsupported output format: %s", e.output)
}

// reportError prints field issues in detail before returning err.
func reportError(cmd *cobra.Command, err error) error {
	var ie *catalog.IssuesError
	if errors.As(err, &ie) {
		format.PrintIssues(cmd.ErrOrStderr(), ie.Issues)
	}
	return err
}

// formatAge formats a time.Time as a human-readable age string
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}

	duration := time.Since(t)
	if duration < time.Minute {
		return "Just now"
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh", int(duration.Hours()))
	} else if duration < 30*24*time.Hour {
		return fmt.Sprintf("%dd", int(duration.Hours()/24))
	} else if duration < 365*24*time.Hour {
		return fmt.Sprintf("%dmo", int(duration.Hours()/24/30))
	}
	return fmt.Sprintf("%dy", int(duration.Hours()/24/365))
}

// truncate shortens s to max visible runes, ignoring color codes.
func truncate(s string, max int) string {
	if max <= 3 || len([]rune(ansiRegex.ReplaceAllString(s, ""))) <= max {
		return s
	}
	plain := []rune(ansiRegex.ReplaceAllString(s, ""))
	return string(plain[:max-3]) + "..."
}
