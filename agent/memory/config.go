package memory

import (
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Root     string `split_words:"true"`
	DaysBack int    `envconfig:"DAYS_BACK" split_words:"true" default:"7"`

	// TranscriptKeepDays bounds how long raw transcripts stay on disk.
	TranscriptKeepDays int `envconfig:"TRANSCRIPT_KEEP_DAYS" split_words:"true" default:"30"`
}

// resolveRoot defaults to ~/.juno/memory so an unconfigured unit still has
// a working store.
func (c Config) resolveRoot() (string, error) {
	root := strings.TrimSpace(c.Root)
	if root != "" {
		return root, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".juno", "memory"), nil
}
