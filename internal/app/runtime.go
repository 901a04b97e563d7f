package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// TestModeEnv is set by the test helpers so binaries skip network side
// effects.
const TestModeEnv = "STOCKBOOK_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(TestModeEnv) == "1")
}

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads the environment.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}
