package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ProjectRoot walks up from this source file to the directory holding go.mod
// or .git. It falls back to the working directory.
func ProjectRoot() (string, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		dir := filepath.Dir(file)
		for i := 0; i < 8; i++ {
			if exists(filepath.Join(dir, "go.mod")) || exists(filepath.Join(dir, ".git")) {
				return dir, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return os.Getwd()
}

// MustProjectPath joins the project root with rel.
func MustProjectPath(rel string) string {
	root, err := ProjectRoot()
	if err != nil {
		panic(err)
	}
	return filepath.Join(root, rel)
}

func exists(p string) bool { _, err := os.Stat(p); return err == nil }
