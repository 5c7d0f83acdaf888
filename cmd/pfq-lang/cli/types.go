package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/frobware/go-pfq/functional"
)

// KeyValue represents a KEY=VALUE pair.
type KeyValue struct {
	Key   string
	Value string
}

// ParseKeyValue parses a KEY=VALUE string.
func ParseKeyValue(s string) (KeyValue, error) {
	idx := strings.Index(s, "=")
	if idx <= 0 {
		return KeyValue{}, fmt.Errorf("invalid format %q: expected KEY=VALUE", s)
	}

	key := strings.TrimSpace(s[:idx])
	if key == "" {
		return KeyValue{}, fmt.Errorf("invalid format %q: key cannot be empty", s)
	}

	return KeyValue{
		Key:   key,
		Value: s[idx+1:],
	}, nil
}

// LabelMap converts a slice of KeyValue to a map. Later pairs win.
func LabelMap(kvs []KeyValue) map[string]string {
	if len(kvs) == 0 {
		return nil
	}
	m := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		m[kv.Key] = kv.Value
	}
	return m
}

// DBPath wraps a path to the SQLite database with tilde expansion.
type DBPath struct {
	Path string
}

// ParseDBPath parses a database path with tilde expansion.
func ParseDBPath(s string) (DBPath, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DBPath{}, fmt.Errorf("database path cannot be empty")
	}

	// Expand ~ to home directory
	if strings.HasPrefix(s, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return DBPath{}, fmt.Errorf("cannot expand ~: %w", err)
		}
		s = home + s[1:]
	}

	return DBPath{Path: s}, nil
}

// Mask is a 64-bit class or group mask.
type Mask uint64

// ParseMask parses a mask in decimal, or hex with a 0x prefix, or
// binary with 0b.
func ParseMask(s string) (Mask, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid mask %q: %w", s, err)
	}
	return Mask(v), nil
}

// VerdictName is a verdict named on the command line.
type VerdictName struct {
	Verdict functional.Verdict
}

var verdicts = []functional.Verdict{
	functional.VerdictForward,
	functional.VerdictDrop,
	functional.VerdictBroadcast,
	functional.VerdictDeliver,
	functional.VerdictToHost,
}

// ParseVerdictName parses a verdict as printed by eval, e.g. "forward"
// or "to_host_stack".
func ParseVerdictName(s string) (VerdictName, error) {
	s = strings.TrimSpace(s)
	names := make([]string, 0, len(verdicts))
	for _, v := range verdicts {
		if v.String() == s {
			return VerdictName{Verdict: v}, nil
		}
		names = append(names, v.String())
	}
	return VerdictName{}, fmt.Errorf("unknown verdict %q: expected one of %s", s, strings.Join(names, ", "))
}

// ProceedOn converts verdict names to a chain proceed-on mask. No names
// yields zero, the default mask.
func ProceedOn(names []VerdictName) uint32 {
	vs := make([]functional.Verdict, 0, len(names))
	for _, n := range names {
		vs = append(vs, n.Verdict)
	}
	return functional.ProceedOnMask(vs...)
}
