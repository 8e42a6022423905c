package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("BOUTIQUE_TEST_MODE", "1")
		if os.Getenv("STORAGE_DRIVER") == "" {
			_ = os.Setenv("STORAGE_DRIVER", "memory")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
