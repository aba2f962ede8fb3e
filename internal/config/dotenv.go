package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// loadDotEnv merges KEY=VALUE pairs from path into the process environment.
// A missing file or an empty path is not an error. Variables that are already
// set keep their value.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
