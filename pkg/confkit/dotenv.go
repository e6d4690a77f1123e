package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

// maxWalkDepth bounds how far up the tree project lookups climb.
const maxWalkDepth = 8

var dotenvOnce sync.Once

// LoadDotenvOnce loads .env files once per process.
//
//	NO_DOTENV=1        skip loading entirely
//	ENV_FILE=path      load only that file
//	DOTENV_OVERLOAD=1  let file values replace variables already set
//
// Without ENV_FILE every .env between the working directory and the project
// root is loaded, nearest first.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}
	apply := godotenv.Load
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		apply = godotenv.Overload
	}
	if f := os.Getenv("ENV_FILE"); f != "" {
		_ = apply(f)
		return
	}
	_ = walkUp(func(dir string) bool {
		if p := filepath.Join(dir, ".env"); exists(p) {
			_ = apply(p)
		}
		return isProjectRoot(dir)
	})
}

// ProjectRoot is the nearest ancestor of the working directory holding go.mod
// or .git, or the working directory when none is found.
func ProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	root := wd
	_ = walkUp(func(dir string) bool {
		if isProjectRoot(dir) {
			root = dir
			return true
		}
		return false
	})
	return root, nil
}

// ProjectPath joins rel onto ProjectRoot.
func ProjectPath(rel string) (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, rel), nil
}

// walkUp calls visit from the working directory upward until visit returns
// true, the filesystem root is reached or maxWalkDepth is hit.
func walkUp(visit func(dir string) bool) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	for i := 0; i < maxWalkDepth; i++ {
		if visit(dir) {
			return nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
	return nil
}

func isProjectRoot(dir string) bool {
	return exists(filepath.Join(dir, "go.mod")) || exists(filepath.Join(dir, ".git"))
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
