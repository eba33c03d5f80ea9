// Package schedule registers the host scheduled task that re-invokes
// b2up unattended. Spec parsing and schtasks argument construction are
// pure and cross-platform; only execution is Windows-gated.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Trigger frequencies.
const (
	Daily  = "daily"
	Weekly = "weekly"
	Logon  = "logon"
)

// ErrUnsupported is returned when the host has no task scheduler b2up
// knows how to drive.
var ErrUnsupported = errors.New("task scheduling is not supported on this platform")

// validDays are the schtasks day-of-week codes.
var validDays = map[string]struct{}{
	"MON": {}, "TUE": {}, "WED": {}, "THU": {},
	"FRI": {}, "SAT": {}, "SUN": {},
}

var timeRe = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// Spec describes one scheduled task.
type Spec struct {
	// TaskName is the scheduler entry name.
	TaskName string

	// Frequency is daily, weekly, or logon.
	Frequency string

	// Time is the HH:MM time-of-day; unused for logon triggers.
	Time string

	// Day is the MON..SUN day-of-week for weekly triggers.
	Day string

	// RunAs is the identity the task runs under; empty keeps the
	// caller's identity.
	RunAs string
}

// ParseSpec validates raw schedule settings into a Spec.
func ParseSpec(taskName, frequency, timeOfDay, day, runAs string) (Spec, error) {
	if taskName == "" {
		return Spec{}, errors.New("task name must not be empty")
	}

	frequency = strings.ToLower(strings.TrimSpace(frequency))
	switch frequency {
	case Daily, Weekly, Logon:
	default:
		return Spec{}, fmt.Errorf("frequency must be daily, weekly, or logon, got %q", frequency)
	}

	spec := Spec{
		TaskName:  taskName,
		Frequency: frequency,
		RunAs:     strings.TrimSpace(runAs),
	}

	if frequency != Logon {
		timeOfDay = strings.TrimSpace(timeOfDay)
		if !timeRe.MatchString(timeOfDay) {
			return Spec{}, fmt.Errorf("time must be HH:MM, got %q", timeOfDay)
		}
		spec.Time = normalizeTime(timeOfDay)
	}

	if frequency == Weekly {
		day = strings.ToUpper(strings.TrimSpace(day))
		if _, ok := validDays[day]; !ok {
			return Spec{}, fmt.Errorf("day must be MON..SUN, got %q", day)
		}
		spec.Day = day
	}

	return spec, nil
}

// normalizeTime zero-pads the hour so schtasks accepts it.
func normalizeTime(t string) string {
	parts := strings.SplitN(t, ":", 2)
	if len(parts[0]) == 1 {
		return "0" + t
	}
	return t
}

// Action builds the command line the task runs: the program re-invoked
// non-interactively against an absolute config path.
func Action(exePath, configPath string) string {
	return fmt.Sprintf(`"%s" run --non-interactive --config "%s"`, exePath, configPath)
}

// CreateArgs returns the schtasks arguments that create (or force-
// replace) the task described by the spec.
func (s Spec) CreateArgs(action string) []string {
	args := []string{"/Create", "/F"}

	switch s.Frequency {
	case Weekly:
		args = append(args, "/SC", "WEEKLY", "/D", s.Day)
	case Logon:
		args = append(args, "/SC", "ONLOGON")
	default:
		args = append(args, "/SC", "DAILY")
	}

	args = append(args, "/TN", s.TaskName, "/TR", action)

	if s.Frequency != Logon {
		args = append(args, "/ST", s.Time)
	}

	if s.RunAs != "" {
		args = append(args, "/RU", s.RunAs, "/RL", "HIGHEST")
	}

	return args
}

// DeleteArgs returns the schtasks arguments that remove the task.
func (s Spec) DeleteArgs() []string {
	return []string{"/Delete", "/F", "/TN", s.TaskName}
}

// QueryArgs returns the schtasks arguments that query the task.
func (s Spec) QueryArgs() []string {
	return []string{"/Query", "/TN", s.TaskName, "/V", "/FO", "LIST"}
}
