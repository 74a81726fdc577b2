package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

var (
	ScriptExtensions   = []string{".yaml", ".yml"}
	ImageExtensions    = []string{".jpg", ".jpeg", ".png"}
	BackdropExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}
)

// InitResourceLimits raises the open file limit; the PNG writer keeps several
// frames in flight.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not read the open file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not raise the open file limit: %v", err)
	} else {
		fmt.Printf("[*] Open file limit raised to %d\n", rLimit.Cur)
	}
}

// FindLatest returns the most recently modified file in dir whose extension
// matches one of exts. If path names a file, its directory is searched.
func FindLatest(path string, exts ...string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	searchDir := path
	if !fi.IsDir() {
		searchDir = filepath.Dir(path)
	}

	files, err := os.ReadDir(searchDir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExtension(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(searchDir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files in %s", strings.Join(exts, "/"), searchDir)
	}
	return latestFile, nil
}

// FindLatestScript returns the newest YAML script in dir.
func FindLatestScript(dir string) (string, error) {
	return FindLatest(dir, ScriptExtensions...)
}

// FindLatestBackdrop returns the newest PDF or image in dir.
func FindLatestBackdrop(dir string) (string, error) {
	return FindLatest(dir, BackdropExtensions...)
}

func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// GetBestH264Encoder picks a hardware H.264 encoder when ffmpeg offers one.
func GetBestH264Encoder() (string, string) {
	// Priority: VideoToolbox (macOS), NVENC, then software libx264.
	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}

	out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264", ""
	}
	for _, enc := range encoders {
		if strings.Contains(string(out), enc.name) {
			return enc.name, enc.args
		}
	}
	return "libx264", ""
}

// DefaultQuality returns the quality setting used when none was given.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}
