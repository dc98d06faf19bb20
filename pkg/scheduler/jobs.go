//go:build linux

package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ja7ad/sonar/pkg/envelope"
)

// JobStates is the fixed list of terminal job states the reporter queries
// for; RUNNING is deliberately excluded.
var JobStates = []string{"CANCELLED", "COMPLETED", "DEADLINE", "FAILED", "OUT_OF_MEMORY", "TIMEOUT"}

// JobFields is the fixed sacct field list, in the exact order sacct prints
// them; JobName is deliberately last since its value may itself contain
// the "|" delimiter.
var JobFields = []string{
	"JobID", "JobIDRaw", "User", "Account", "State", "Start", "End",
	"AveCPU", "AveDiskRead", "AveDiskWrite", "AveRSS", "AveVMSize",
	"ElapsedRaw", "ExitCode", "Layout", "MaxRSS", "MaxVMSize", "MinCPU",
	"ReqCPUS", "ReqMem", "ReqNodes", "Reservation", "Submit", "Suspended",
	"SystemCPU", "TimelimitRaw", "UserCPU", "NodeList", "Partition",
	"AllocTRES", "Priority", "JobName",
}

var dateFields = map[string]bool{"Start": true, "End": true, "Submit": true}
var uncontrolledFields = map[string]bool{"JobName": true, "Account": true, "User": true}
var zeroValues = map[string]bool{"Unknown": true, "0": true, "00:00:00": true, "0:0": true, "0.00M": true}

// Window is the sacct query window: either a sliding window ending now, or
// an explicit [from, to] range in YYYY-MM-DD form.
type Window struct {
	MinutesAgo int    // used when From/To are both empty
	From, To   string // explicit "YYYY-MM-DD" range, takes precedence
}

func (w Window) bounds(now time.Time) (from, to string) {
	if w.From != "" || w.To != "" {
		return w.From, w.To
	}
	minutes := w.MinutesAgo
	if minutes <= 0 {
		minutes = 90
	}
	return fmt.Sprintf("now-%dminutes", minutes), "now"
}

// FetchJobs invokes sacct over the given window and normalizes the output
// into job records.
func FetchJobs(ctx context.Context, api API, w Window, now time.Time) (envelope.JobsAttributes, error) {
	from, to := w.bounds(now)
	raw, err := api.RunSacct(ctx, JobStates, JobFields, from, to)
	if err != nil {
		return envelope.JobsAttributes{}, fmt.Errorf("scheduler: sacct: %w", err)
	}
	_, offset := now.Zone()
	jobs := parseJobs(raw, offset)
	return envelope.JobsAttributes{Jobs: jobs}, nil
}

// parseJobs tokenizes each sacct line on "|", re-joining excess trailing
// fields into JobName, drops "zero-like" sentinel values (except for
// uncontrolled free-text fields), and reinterprets date fields by applying
// the local timezone offset in seconds.
func parseJobs(raw string, tzOffsetSec int) []envelope.SchedulerJobRec {
	var out []envelope.SchedulerJobRec
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) > len(JobFields) {
			joined := strings.Join(fields[len(JobFields)-1:], "|")
			fields = append(fields[:len(JobFields)-1], joined)
		}
		for len(fields) < len(JobFields) {
			fields = append(fields, "")
		}

		rec := make(envelope.SchedulerJobRec, len(JobFields))
		for i, name := range JobFields {
			val := fields[i]
			isZero := val == "" || (!uncontrolledFields[name] && zeroValues[val])
			if isZero {
				continue
			}
			if dateFields[name] {
				if t, err := parseNaiveLocal(val); err == nil {
					val = applyOffset(t, tzOffsetSec)
				}
			}
			rec[name] = val
		}
		out = append(out, rec)
	}
	return out
}

// naiveLayout is the Slurm date format: localtime with no timezone offset.
const naiveLayout = "2006-01-02T15:04:05"

func parseNaiveLocal(s string) (time.Time, error) {
	return time.ParseInLocation(naiveLayout, s, time.UTC)
}

// applyOffset reattaches the local timezone offset to a naive timestamp
// without altering its wall-clock digits (the Slurm value has no tz info
// at all, so this is attachment, not conversion).
func applyOffset(t time.Time, offsetSec int) string {
	loc := time.FixedZone("", offsetSec)
	localized := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
	return localized.Format("2006-01-02T15:04:05-07:00")
}
