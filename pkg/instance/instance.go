package instance

import "os"

// GetID identifies the running process in logs. The platform dyno name wins
// over WORKER_ID, and the hostname is the last resort.
func GetID() string {
	for _, key := range []string{"DYNO", "WORKER_ID"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
