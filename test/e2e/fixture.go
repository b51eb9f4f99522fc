package e2e

import (
	"os"
	"path/filepath"
	"time"
)

const fixtureMoonList = `[
	{"id": 1, "kingdom": "Cascade", "english": "Our First Power Moon"},
	{"id": 1, "kingdom": "Sand", "english": "Atop the Highest Tower"},
	{"id": 2, "kingdom": "Sand", "english": "Moon Shards in the Sand"},
	{"id": 5, "kingdom": "Lake", "english": "Lake Fishing"}
]`

// seedDataDir writes a moon list and a config into a fresh data dir and
// returns the feed path the app will tail. The feed file itself is not
// created, so the app reads it from the start once it appears.
func seedDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dataDir, "moon-list.json"), []byte(fixtureMoonList), 0644); err != nil {
		return "", err
	}
	config := `{"input_language": "english", "output_language": "english", "feed_poll_ms": 50}`
	if err := os.WriteFile(filepath.Join(dataDir, "config.json"), []byte(config), 0644); err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "mentions.jsonl"), nil
}

// appendFeed writes recognizer lines to the feed file.
func appendFeed(path string, lines ...string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, l := range lines {
		if _, err := f.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// waitExit waits for the process to exit.
func waitExit(wait func() error, timeout time.Duration) bool {
	done := make(chan error, 1)
	go func() { done <- wait() }()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
