//go:build linux

package procfs

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RealAPI reads the live /proc filesystem.
type RealAPI struct {
	Root string // defaults to "/proc"
}

// NewRealAPI returns an API backed by the live kernel procfs.
func NewRealAPI() *RealAPI {
	return &RealAPI{Root: "/proc"}
}

func (r *RealAPI) root() string {
	if r.Root == "" {
		return "/proc"
	}
	return r.Root
}

func (r *RealAPI) ReadToString(path string) (string, error) {
	full := path
	if !strings.HasPrefix(path, "/") {
		full = r.root() + "/" + path
	}
	b, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *RealAPI) ReadNumericFileNames(dir string) ([]string, error) {
	full := dir
	if !strings.HasPrefix(dir, "/") {
		full = r.root() + "/" + dir
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if _, err := strconv.Atoi(name); err == nil {
			out = append(out, name)
		}
	}
	return out, nil
}

func (r *RealAPI) ClockTicksPerSec() int64 {
	if v, err := strconv.ParseInt(os.Getenv("SONAR_CLK_TCK"), 10, 64); err == nil && v > 0 {
		return v
	}
	return 100
}

func (r *RealAPI) PageSizeKiB() int64 {
	if v, err := strconv.ParseInt(os.Getenv("SONAR_PAGE_SIZE_KIB"), 10, 64); err == nil && v > 0 {
		return v
	}
	return int64(os.Getpagesize()) / 1024
}

func (r *RealAPI) NowUnixSec() int64 {
	return time.Now().Unix()
}
