package instance

import (
	"os"
	"strings"
)

// EnvWorkerID overrides the identifier background processes report.
const EnvWorkerID = "PARTSBRIDGE_WORKER_ID"

// ID names this process in logs and lock ownership: the configured worker id,
// else the hostname, else "worker-0".
func ID() string {
	if id := strings.TrimSpace(os.Getenv(EnvWorkerID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
