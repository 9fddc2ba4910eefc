package state

import (
	"time"
)

// newLocalEnv creates environment with nothing prepared yet, configuration
// and logging are set up once command line is parsed.
func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}
