package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/taskflow/capability"
	"github.com/kbukum/taskflow/orchestrator"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"

	maxValueWidth = 72
)

func checkFormat(format string, allowed ...string) error {
	if !slices.Contains(allowed, format) {
		return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(allowed, ", "))
	}
	return nil
}

// writeStructured renders v as indented JSON or as YAML with the same keys.
func writeStructured(w io.Writer, v any, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	// Round-trip through JSON so YAML keys follow the json tags.
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func writeResult(w io.Writer, res *orchestrator.Result, format string) error {
	if format != formatTable {
		return writeStructured(w, res, format)
	}

	names := make([]string, 0, len(res.Tasks))
	for name := range res.Tasks {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if d := res.Tasks[a].Batch - res.Tasks[b].Batch; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BATCH\tTASK\tSTATUS\tDURATION\tOUTPUT")
	for _, name := range names {
		tr := res.Tasks[name]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			tr.Batch, name, statusColor(tr.Status), tr.Duration.Round(time.Millisecond), summarize(res.Values[name]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	failed := len(res.Errors())
	line := fmt.Sprintf("%d task(s), %d failed, %d batch(es) in %s", len(res.Tasks), failed, len(res.Plan.Batches), res.Duration.Round(time.Millisecond))
	if failed > 0 {
		line = color.YellowString(line)
	}
	_, err := fmt.Fprintf(w, "\n%s  [%s]\n", line, res.ExecutionID)
	return err
}

func writePlan(w io.Writer, plan *orchestrator.Plan, format string) error {
	if format != formatTable {
		return writeStructured(w, plan, format)
	}
	for i, batch := range plan.Batches {
		marked := make([]string, len(batch))
		for j, name := range batch {
			switch {
			case slices.Contains(plan.Forced, name):
				marked[j] = color.YellowString(name + " (forced)")
			case slices.Contains(plan.FastPath, name):
				marked[j] = color.CyanString(name + " (fast path)")
			default:
				marked[j] = name
			}
		}
		if _, err := fmt.Fprintf(w, "batch %d: %s\n", i, strings.Join(marked, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func writeCapabilities(w io.Writer, list []capability.Descriptor, format string) error {
	if format != formatTable {
		return writeStructured(w, list, format)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDEPENDS ON\tPROVIDES\tDESCRIPTION")
	for _, d := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", color.GreenString(d.Name), orDash(d.DependsOn), orDash(d.Provides), d.Description)
	}
	return tw.Flush()
}

func statusColor(s orchestrator.Status) string {
	switch s {
	case orchestrator.StatusDone:
		return color.GreenString(string(s))
	case orchestrator.StatusTimedOut, orchestrator.StatusCanceled:
		return color.YellowString(string(s))
	default:
		return color.RedString(string(s))
	}
}

// summarize renders a value as one line of compact JSON, truncated.
func summarize(v any) string {
	if te, ok := orchestrator.AsTaskError(v); ok {
		return fmt.Sprintf("%s: %s", te.Code, te.Message)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	s := string(data)
	if len(s) > maxValueWidth {
		s = s[:maxValueWidth-3] + "..."
	}
	return s
}

func orDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}
