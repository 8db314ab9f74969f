package processor

import (
	"errors"
	"sync"
)

// ErrUnknownEvent is returned for events the processor has no handler for.
var ErrUnknownEvent = errors.New("unknown ladder event")

// recentLimit bounds how many handled event IDs are remembered for
// de-duplicating redeliveries.
const recentLimit = 1024

// Processor turns ladder events into channel announcements.
type Processor struct {
	notifier Notifier
	// dryRun forces every announcement into dry-run mode.
	dryRun bool

	mu     sync.Mutex
	seen   map[string]struct{}
	recent []string
}
