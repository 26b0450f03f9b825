package instance

import "os"

// GetID returns the process instance identifier used in startup logs. It
// prefers the platform dyno name, then the container hostname.
func GetID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
