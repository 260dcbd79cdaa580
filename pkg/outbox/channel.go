package outbox

import (
	"strings"

	"github.com/partsbridge/marketplace/pkg/enums"
)

// Channel returns the pub/sub channel an event type is relayed on.
func Channel(prefix string, eventType enums.OutboxEventType) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return string(eventType)
	}
	return prefix + "." + string(eventType)
}
