package utils

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const EnvFilename = ".env"

// InitEnvironmentVariables loads a local .env file when present. Production
// deployments inject environment variables directly and ship no .env file.
func InitEnvironmentVariables() error {
	if os.Getenv("ENV") == "production" {
		log.Info("Running in production environment")
		return nil
	}

	if _, err := os.Stat(EnvFilename); err != nil {
		return nil
	}

	if err := godotenv.Load(EnvFilename); err != nil {
		return fmt.Errorf("failed to load %s file: %v", EnvFilename, err)
	}

	return nil
}

// GetEnv returns the named environment variable, failing when it is unset.
func GetEnv(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not set", name)
	}

	return value, nil
}
