package env

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Env holds the key/value pairs from the loaded .env file, if any.
var Env map[string]string

// envFileCandidates are tried in order so the binaries work from the
// project root as well as from the cmd/ subdirectories.
var envFileCandidates = []string{".env", "../../.env", "../../../.env"}

// GetEnv returns the configured value for key: the .env file wins over the
// process environment, def is the last resort.
func GetEnv(key, def string) string {
	if v, ok := Env[key]; ok {
		return v
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// SetupEnvFile loads the first readable .env file. Container deployments
// often ship no file at all and configure everything through the process
// environment, so a missing file is logged, not fatal.
func SetupEnvFile() {
	for _, name := range envFileCandidates {
		if vars, err := godotenv.Read(name); err == nil {
			Env = vars
			return
		}
	}
	log.Println("env: no .env file found, using process environment only")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
