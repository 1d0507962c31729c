package instance

import "github.com/angelmondragon/fitcoach-backend/pkg/env"

// GetID identifies the running process in logs. Heroku-style dyno names win
// over the container hostname.
func GetID() string {
	return env.Get("DYNO", env.Get("HOSTNAME", "local"))
}
