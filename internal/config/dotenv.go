package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads local env files into the process environment. Files that
// come earlier win because godotenv never overrides a variable already set:
// .env.<env>.local, .env.local, .env.<env>, .env. Missing files are skipped.
func LoadDotEnv(dir string) error {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	if env == "" {
		env = "development"
	}
	if dir != "" && !strings.HasSuffix(dir, "/") {
		dir += "/"
	}

	files := []string{".env." + env + ".local", ".env.local", ".env." + env, ".env"}
	for _, name := range files {
		if err := godotenv.Load(dir + name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
