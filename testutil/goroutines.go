// Package testutil holds helpers shared by package tests.
package testutil

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// CheckGoroutineCleanup records the goroutine count and returns a function
// that fails the test if more goroutines are alive once it is called.
//
//	defer testutil.CheckGoroutineCleanup(t)()
func CheckGoroutineCleanup(t testing.TB) func() {
	t.Helper()
	before := runtime.NumGoroutine()

	return func() {
		t.Helper()
		assert.Eventually(t, func() bool {
			after := runtime.NumGoroutine()
			if after <= before {
				return true
			}
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			t.Logf("goroutines: before=%d after=%d\n%s", before, after, buf[:n])
			return false
		}, 5*time.Second, 50*time.Millisecond, "goroutines still running after test")
	}
}
