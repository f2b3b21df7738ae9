package output

import (
	"bytes"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Writer
	Writer = &buf
	t.Cleanup(func() { Writer = prev })
	return &buf
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name  string
		print func(string, ...any)
		mark  string
	}{
		{"success", Success, "✓"},
		{"warning", Warning, "⚠"},
		{"error", Error, "✗"},
		{"info", Info, "ℹ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t)
			tt.print("found %d blueprint(s)", 3)

			out := buf.String()
			if !strings.Contains(out, tt.mark) {
				t.Errorf("output %q missing %q", out, tt.mark)
			}
			if !strings.HasSuffix(out, "found 3 blueprint(s)\n") {
				t.Errorf("unexpected output %q", out)
			}
		})
	}
}

func TestSection(t *testing.T) {
	buf := capture(t)
	Section("Blueprints")

	out := buf.String()
	if !strings.Contains(out, "Blueprints") {
		t.Errorf("output %q missing title", out)
	}
	if !strings.Contains(out, strings.Repeat("═", len("Blueprints"))) {
		t.Errorf("output %q missing underline", out)
	}
}

func TestRuleIcon(t *testing.T) {
	for _, kind := range []string{"default", "mapped", "list", "set", "other"} {
		if RuleIcon(kind) == "" {
			t.Errorf("RuleIcon(%q) is empty", kind)
		}
	}
	if RuleIcon("list") == RuleIcon("mapped") {
		t.Error("list and mapped rules should differ")
	}
}
