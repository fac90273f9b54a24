package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/nlupugla/saveload/internal/variant"
)

// goldenDocument builds the value compared against golden files:
//
//	{"scenario_name": ..., "trace": [{"seq", "op", "target"}...], "state": structured}
//
// It is a Dictionary so variant.MarshalCanonical renders it
// deterministically. Warnings are left out; expect_warnings covers them.
func goldenDocument(name string, result *Result) variant.Dictionary {
	trace := make(variant.Array, len(result.Trace))
	for i, event := range result.Trace {
		trace[i] = variant.NewDictionary(
			variant.String("seq"), variant.Int(event.Seq),
			variant.String("op"), variant.String(event.Op),
			variant.String("target"), variant.String(event.Target),
		)
	}
	state := variant.Value(result.State)
	if result.State == nil {
		state = variant.Nil{}
	}
	return variant.NewDictionary(
		variant.String("scenario_name"), variant.String(name),
		variant.String("trace"), trace,
		variant.String("state"), state,
	)
}

// MarshalGolden renders the golden file contents of a result.
func MarshalGolden(scenarioName string, result *Result) ([]byte, error) {
	return variant.MarshalCanonical(goldenDocument(scenarioName, result))
}

// RunWithGolden executes a scenario and compares its trace and final
// snapshot against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalGolden(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
