package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/gasgen/internal/resolver"
)

// AssertLogged checks that the run logged a status line for name, such as
// "[NEW] GA_Fire".
func AssertLogged(t *testing.T, result *HarnessResult, st resolver.Status, name string) {
	t.Helper()

	want := fmt.Sprintf("%s %s", st.Tag(), name)
	require.True(t, strings.Contains(result.LogOutput, want),
		"expected log line %q was not found in logs", want)
}

// StatusOf returns the final status of a named result.
func StatusOf(t *testing.T, result *HarnessResult, name string) resolver.Status {
	t.Helper()

	require.NotNil(t, result.Outcome, "run failed: %v", result.Err)
	for _, r := range result.Outcome.Summary.Results {
		if r.Name == name {
			return r.Status
		}
	}
	require.Failf(t, "no result", "no result for %s", name)
	return resolver.StatusFailed
}
