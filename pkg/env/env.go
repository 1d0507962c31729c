package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of the environment variable key, or fallback
// when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// Files returns the dotenv files to load, taken from the comma separated
// FITCOACH_ENV_FILES variable. It defaults to .env.
func Files() []string {
	raw := Get("FITCOACH_ENV_FILES", ".env")
	var files []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			files = append(files, part)
		}
	}
	return files
}
