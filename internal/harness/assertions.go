package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/nlupugla/saveload/internal/saveload"
	"github.com/nlupugla/saveload/internal/variant"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Step type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Trace up to the failing step
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", event.Seq, event.Op, event.Target)
			if len(event.Warnings) > 0 {
				fmt.Fprintf(&buf, " %v", event.Warnings)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// formatValue renders v as canonical JSON for messages.
func formatValue(v variant.Value) string {
	data, err := variant.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<%s>", variant.KindOf(v))
	}
	return string(data)
}

func (h *Harness) expect(s *ExpectStep, result *Result) error {
	n, err := h.node(s.Node)
	if err != nil {
		return err
	}
	want, err := convertToValue(s.Value)
	if err != nil {
		return err
	}

	got, ok := n.GetIndexed(propertyPath(s.Property))
	target := s.Node + ":" + s.Property
	switch {
	case !ok:
		result.AddError((&AssertionError{
			Type:     "expect",
			Expected: fmt.Sprintf("%s = %s", target, formatValue(want)),
			Actual:   "property not found",
			Trace:    result.Trace,
		}).Error())
	case !variant.Equal(got, want):
		result.AddError((&AssertionError{
			Type:     "expect",
			Expected: fmt.Sprintf("%s = %s", target, formatValue(want)),
			Actual:   fmt.Sprintf("%s = %s", target, formatValue(got)),
			Trace:    result.Trace,
		}).Error())
	}
	return nil
}

func (h *Harness) expectChildren(s *ChildrenStep, result *Result) error {
	n, err := h.node(s.Node)
	if err != nil {
		return err
	}

	got := []string{}
	for _, c := range n.Children() {
		got = append(got, c.AsNode().Name())
	}
	want := s.Names
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(got, want) {
		result.AddError((&AssertionError{
			Type:     "expect_children",
			Expected: fmt.Sprintf("%s children %v", s.Node, want),
			Actual:   fmt.Sprintf("%s children %v", s.Node, got),
			Trace:    result.Trace,
		}).Error())
	}
	return nil
}

// expectWarnings checks the warning counts of the most recent save or load.
// Codes not listed must not occur, so an empty map expects no warnings.
func (h *Harness) expectWarnings(want map[string]int, result *Result) error {
	if !h.saved {
		return fmt.Errorf("no save or load before expect_warnings")
	}

	got := map[string]int{}
	for _, w := range h.last.Warnings() {
		got[string(w.Code)]++
	}
	codes := make([]string, 0, len(want)+len(got))
	for code := range want {
		codes = append(codes, code)
	}
	for code := range got {
		if _, ok := want[code]; !ok {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	for _, code := range codes {
		if got[code] != want[code] {
			result.AddError((&AssertionError{
				Type:     "expect_warnings",
				Expected: fmt.Sprintf("%d %s warnings", want[code], code),
				Actual:   fmt.Sprintf("%d %s warnings: %v", got[code], code, h.last.Err()),
				Trace:    result.Trace,
			}).Error())
		}
	}
	return nil
}

// knownCodes lists the warning codes expect_warnings accepts.
var knownCodes = []saveload.ErrorCode{
	saveload.ErrCodeResolution,
	saveload.ErrCodeType,
	saveload.ErrCodeIO,
	saveload.ErrCodeConfig,
	saveload.ErrCodeFormat,
}

func isKnownCode(code string) bool {
	return slices.Contains(knownCodes, saveload.ErrorCode(code))
}
