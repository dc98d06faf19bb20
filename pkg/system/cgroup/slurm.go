//go:build linux

package cgroup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// JobIDFromFile scans a /proc/<pid>/cgroup file for the first occurrence of
// "/job_<digits>/" and returns the parsed job id.
//
// Returns (id, true, nil) when a job marker was found and its digits parsed
// cleanly; (0, true, nil) when a marker was found but the digits did not
// parse (the "id=0" case in the job-attribution contract); (0, false, nil)
// when no marker appears anywhere in the file.
func JobIDFromFile(path string) (id int, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false, fmt.Errorf("cgroup: read %s: %w", path, err)
	}
	return JobIDFromContent(string(data))
}

// JobIDFromContent applies the same scan as JobIDFromFile to in-memory
// content, for tests and callers that already have the cgroup text.
func JobIDFromContent(content string) (id int, found bool, err error) {
	for _, line := range strings.Split(content, "\n") {
		if i, ok := scanJobMarker(line); ok {
			return i, true, nil
		}
	}
	return 0, false, nil
}

const jobMarker = "/job_"

// scanJobMarker looks for "/job_<digits>/" anywhere in line and returns the
// parsed digits. ok is true whenever the marker itself is present, even if
// the digits fail to parse (caller then reports id=0).
func scanJobMarker(line string) (id int, ok bool) {
	start := strings.Index(line, jobMarker)
	if start < 0 {
		return 0, false
	}
	rest := line[start+len(jobMarker):]
	end := strings.IndexByte(rest, '/')
	if end < 0 {
		return 0, false
	}
	digits := rest[:end]
	if digits == "" {
		return 0, true
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, true
	}
	return n, true
}
