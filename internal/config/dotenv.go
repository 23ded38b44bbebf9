package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// LoadDotenvOnce loads .env into the process environment once.
//
//	NO_DOTENV=1        skip entirely
//	ENV_FILE=path      load only that file
//	DOTENV_OVERLOAD=1  let .env values replace existing variables
//
// Without ENV_FILE, .env files are tried from the working directory up to
// the project root.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}
	load := godotenv.Load
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		load = godotenv.Overload
	}

	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		_ = load(envFile)
		return
	}
	for _, dir := range dotenvDirs() {
		_ = load(filepath.Join(dir, ".env"))
	}
}

// dotenvDirs lists the working directory and its parents up to the project
// root, nearest first.
func dotenvDirs() []string {
	wd, err := os.Getwd()
	if err != nil {
		return []string{"."}
	}
	root, _ := ProjectRoot()
	var dirs []string
	for dir := wd; ; dir = filepath.Dir(dir) {
		dirs = append(dirs, dir)
		if dir == root || dir == filepath.Dir(dir) || len(dirs) >= 8 {
			return dirs
		}
	}
}
