package processor

import (
	"github.com/mauv0809/tennis-ladder/internal/notifier"
)

// Notifier defines the notification operations required by the processor.
type Notifier interface {
	notifier.Notifier
}
