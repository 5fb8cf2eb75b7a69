package testutil

import "testing"

// step runs fn as a named subtest. A failed step stops its parent so later
// steps never run against a half-built fixture.
func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) {
	t.Helper()
	if !t.Run(keyword+" "+desc, fn) {
		t.FailNow()
	}
}

// Given sets up a fixture.
func Given(t *testing.T, desc string, fn func(t *testing.T)) { t.Helper(); step(t, "Given", desc, fn) }

// When performs the action under test.
func When(t *testing.T, desc string, fn func(t *testing.T)) { t.Helper(); step(t, "When", desc, fn) }

// Then asserts an outcome.
func Then(t *testing.T, desc string, fn func(t *testing.T)) { t.Helper(); step(t, "Then", desc, fn) }
