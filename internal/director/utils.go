package director

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/animcam/internal/system"
)

// DefaultScriptDir is where generated scripts are written.
var DefaultScriptDir = filepath.Join("input", "scripts")

// GenerateScriptPath creates a timestamped script filename in dir.
func GenerateScriptPath(dir, name string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("%s_%s.yaml", name, timestamp))
}

// FindLatestScript finds the most recent script in dir.
func FindLatestScript(dir string) (string, error) {
	path, err := system.FindLatestScript(dir)
	if err != nil {
		return "", fmt.Errorf("no scripts found: %w", err)
	}
	return path, nil
}
