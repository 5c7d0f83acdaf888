package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"k8s.io/client-go/util/jsonpath"

	"github.com/frobware/go-pfq/manager"
	"github.com/frobware/go-pfq/skbuff"
	"github.com/frobware/go-pfq/store"
)

// recordView is the JSON form of a stored composition. The wire bytes
// are omitted; Text carries the same node.
type recordView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Symbol    string            `json:"symbol"`
	Kind      string            `json:"kind"`
	Text      string            `json:"text"`
	Labels    map[string]string `json:"labels,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func newRecordView(rec store.Record) recordView {
	return recordView{
		ID:        rec.ID.String(),
		Name:      rec.Name,
		Symbol:    rec.Symbol,
		Kind:      rec.Kind,
		Text:      rec.Text,
		Labels:    rec.Labels,
		CreatedAt: rec.CreatedAt,
	}
}

// FormatRecord formats a stored composition according to flags.
func FormatRecord(rec store.Record, flags *OutputFlags) (string, error) {
	view := newRecordView(rec)
	switch flags.Format() {
	case OutputFormatJSON:
		return formatJSON(view)
	case OutputFormatJSONPath:
		return formatJSONPath(view, flags.JSONPathExpr())
	default:
		return formatRecordTable(rec), nil
	}
}

// FormatRecords formats a list of stored compositions according to flags.
func FormatRecords(recs []store.Record, flags *OutputFlags) (string, error) {
	views := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, newRecordView(rec))
	}
	switch flags.Format() {
	case OutputFormatJSON:
		return formatJSON(views)
	case OutputFormatJSONPath:
		return formatJSONPath(views, flags.JSONPathExpr())
	default:
		return formatRecordsTable(recs), nil
	}
}

// FormatResult formats an evaluation result according to flags.
func FormatResult(res manager.Result, flags *OutputFlags) (string, error) {
	switch flags.Format() {
	case OutputFormatJSON:
		return formatJSON(res)
	case OutputFormatJSONPath:
		return formatJSONPath(res, flags.JSONPathExpr())
	default:
		var b strings.Builder
		b.WriteString(res.Verdict)
		if res.Verdict == "deliver" {
			fmt.Fprintf(&b, " mask=%#x", res.Mask)
		}
		fmt.Fprintf(&b, " %s\n", skbuff.FromState(nil, res.State))
		return b.String(), nil
	}
}

func formatJSON(v any) (string, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(output) + "\n", nil
}

func formatJSONPath(v any, expr string) (string, error) {
	// Parse the JSONPath expression
	jp := jsonpath.New("output")
	if err := jp.Parse(expr); err != nil {
		return "", fmt.Errorf("invalid jsonpath expression %q: %w", expr, err)
	}

	// Convert to generic interface for jsonpath
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal: %w", err)
	}

	var data any
	if err := json.Unmarshal(jsonBytes, &data); err != nil {
		return "", fmt.Errorf("failed to unmarshal: %w", err)
	}

	var buf bytes.Buffer
	if err := jp.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("jsonpath execution failed: %w", err)
	}

	return buf.String() + "\n", nil
}

func formatRecordTable(rec store.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NAME     %s\n", rec.Name)
	fmt.Fprintf(&b, "  id      %s\n", rec.ID)
	fmt.Fprintf(&b, "  symbol  %s\n", rec.Symbol)
	fmt.Fprintf(&b, "  kind    %s\n", rec.Kind)
	fmt.Fprintf(&b, "  text    %s\n", rec.Text)
	if !rec.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "  created %s\n", rec.CreatedAt.UTC().Format(time.RFC3339))
	}
	if len(rec.Labels) > 0 {
		fmt.Fprintf(&b, "  labels  %s\n", formatLabels(rec.Labels))
	}
	return b.String()
}

func formatRecordsTable(recs []store.Record) string {
	if len(recs) == 0 {
		return "No stored compositions found\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-18s %-10s %s\n", "NAME", "SYMBOL", "KIND", "TEXT")
	for _, rec := range recs {
		fmt.Fprintf(&b, "%-20s %-18s %-10s %s\n", rec.Name, rec.Symbol, rec.Kind, rec.Text)
	}
	return b.String()
}

func formatLabels(labels map[string]string) string {
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, k+"="+v)
	}
	slices.Sort(pairs)
	return strings.Join(pairs, ",")
}
