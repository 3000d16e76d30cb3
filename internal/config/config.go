package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var envOnce sync.Once

// LoadEnv loads environment variables from a .env file in the current or
// parent directory, if one exists. It reports the file it loaded, or "" when
// none was found. Variables already set in the environment are not overridden.
func LoadEnv() (string, error) {
	var loaded string
	var loadErr error
	envOnce.Do(func() {
		loaded, loadErr = loadEnvFile()
	})
	return loaded, loadErr
}

func loadEnvFile() (string, error) {
	for _, candidate := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			return "", err
		}
		return candidate, nil
	}
	return "", nil
}
