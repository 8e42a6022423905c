// Package guard switches the process into test mode when imported, so
// command packages can be tested without starting servers.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("BOUTIQUE_TEST_MODE") == "" {
			_ = os.Setenv("BOUTIQUE_TEST_MODE", "1")
		}
	})
}
