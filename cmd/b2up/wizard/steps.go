package wizard

import (
	"fmt"
	"os"
	"strings"

	"github.com/jamesainslie/b2up/pkg/b2up/config"
	"github.com/jamesainslie/b2up/pkg/b2up/schedule"
)

// stepKind controls how a step's answer is rendered and read.
type stepKind int

const (
	kindText stepKind = iota
	kindSecret
	kindYesNo
)

// step is a single question in the wizard sequence.
type step struct {
	id       string
	prompt   string
	kind     stepKind
	def      func(cfg *config.Config) string
	validate func(value string) error
	// when reports whether this step applies given earlier answers.
	// A nil when means the step always applies.
	when func(answers map[string]string) bool
}

func whenEngine(engine string) func(map[string]string) bool {
	return func(answers map[string]string) bool {
		return answers["engine"] == engine
	}
}

func validateEngine(value string) error {
	switch value {
	case config.EngineRclone, config.EngineB2:
		return nil
	}
	return fmt.Errorf("engine must be %q or %q", config.EngineRclone, config.EngineB2)
}

func validateRequired(field string) func(string) error {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateYesNo(value string) error {
	switch strings.ToLower(value) {
	case "y", "yes", "n", "no", "":
		return nil
	}
	return fmt.Errorf("answer y or n")
}

func validateTime(value string) error {
	if _, err := schedule.ParseSpec("setup", schedule.Daily, value, "", ""); err != nil {
		return fmt.Errorf("time must be HH:MM, e.g. 03:00")
	}
	return nil
}

func validateFrequency(value string) error {
	switch strings.ToLower(value) {
	case schedule.Daily, schedule.Weekly, schedule.Logon:
		return nil
	}
	return fmt.Errorf("frequency must be daily, weekly, or logon")
}

func isYes(value string) bool {
	switch strings.ToLower(value) {
	case "y", "yes":
		return true
	}
	return false
}

// newSteps builds the wizard question sequence. Defaults are taken from
// the existing configuration so re-running setup edits in place.
func newSteps() []step {
	return []step{
		{
			id:       "engine",
			prompt:   "Backup engine (rclone or b2)",
			def:      func(cfg *config.Config) string { return cfg.Engine },
			validate: validateEngine,
		},
		{
			id:       "source",
			prompt:   "Folder to back up",
			def:      func(cfg *config.Config) string { return cfg.Source },
			validate: validateRequired("source path"),
		},
		{
			id:     "create_source",
			prompt: "That folder does not exist. Create it? (Y/n)",
			kind:   kindYesNo,
			def:    func(*config.Config) string { return "y" },
			when: func(answers map[string]string) bool {
				src := answers["source"]
				if src == "" {
					return false
				}
				_, err := os.Stat(src)
				return os.IsNotExist(err)
			},
			validate: validateYesNo,
		},
		{
			id:       "dest",
			prompt:   "rclone destination (e.g. b2remote:bucket/path)",
			def:      func(cfg *config.Config) string { return cfg.Dest },
			validate: validateRequired("destination"),
			when:     whenEngine(config.EngineRclone),
		},
		{
			id:       "bucket",
			prompt:   "B2 bucket name",
			def:      func(cfg *config.Config) string { return cfg.Bucket },
			validate: validateRequired("bucket"),
			when:     whenEngine(config.EngineB2),
		},
		{
			id:       "key_id",
			prompt:   "B2 application key ID",
			def:      func(cfg *config.Config) string { return cfg.KeyID },
			validate: validateRequired("key ID"),
			when:     whenEngine(config.EngineB2),
		},
		{
			id:       "app_key",
			prompt:   "B2 application key",
			kind:     kindSecret,
			def:      func(cfg *config.Config) string { return cfg.AppKey },
			validate: validateRequired("application key"),
			when:     whenEngine(config.EngineB2),
		},
		{
			id:     "versioning",
			prompt: "Keep old versions of changed files? (Y/n)",
			kind:   kindYesNo,
			def: func(cfg *config.Config) string {
				if cfg.Versioning {
					return "y"
				}
				return "n"
			},
			validate: validateYesNo,
		},
		{
			id:     "exclude",
			prompt: "File extensions to exclude, comma separated ('none' clears the list)",
			def: func(cfg *config.Config) string {
				m, err := config.LoadExclusions(cfg.ExcludeFile)
				if err != nil {
					return ""
				}
				return strings.Join(m.Entries(), ",")
			},
		},
		{
			id:       "schedule_time",
			prompt:   "Scheduled backup time (HH:MM)",
			def:      func(cfg *config.Config) string { return cfg.ScheduleTime },
			validate: validateTime,
		},
		{
			id:       "schedule_frequency",
			prompt:   "Schedule frequency (daily, weekly, logon)",
			def:      func(cfg *config.Config) string { return cfg.ScheduleFrequency },
			validate: validateFrequency,
		},
		{
			id:     "schedule_day",
			prompt: "Day of week (MON..SUN)",
			def:    func(cfg *config.Config) string { return cfg.ScheduleDay },
			when: func(answers map[string]string) bool {
				return strings.ToLower(answers["schedule_frequency"]) == schedule.Weekly
			},
			validate: func(value string) error {
				if _, err := schedule.ParseSpec("setup", schedule.Weekly, "03:00", value, ""); err != nil {
					return fmt.Errorf("day must be one of MON..SUN")
				}
				return nil
			},
		},
		{
			id:     "notify",
			prompt: "Show desktop notifications after each run? (y/N)",
			kind:   kindYesNo,
			def: func(cfg *config.Config) string {
				if cfg.Notify {
					return "y"
				}
				return "n"
			},
			validate: validateYesNo,
		},
		{
			id:       "save",
			prompt:   "Save this configuration? (Y/n)",
			kind:     kindYesNo,
			def:      func(*config.Config) string { return "y" },
			validate: validateYesNo,
		},
		{
			id:       "run_now",
			prompt:   "Run a backup now? (y/N)",
			kind:     kindYesNo,
			def:      func(*config.Config) string { return "n" },
			validate: validateYesNo,
			when: func(answers map[string]string) bool {
				return isYes(answers["save"])
			},
		},
		{
			id:       "register",
			prompt:   "Register the scheduled task now? (y/N)",
			kind:     kindYesNo,
			def:      func(*config.Config) string { return "n" },
			validate: validateYesNo,
			when: func(answers map[string]string) bool {
				return isYes(answers["save"])
			},
		},
	}
}

// apply folds the collected answers into a configuration.
func apply(cfg *config.Config, answers map[string]string) (*config.Config, []string, error) {
	out := *cfg

	out.Engine = answers["engine"]
	out.Source = answers["source"]

	if isYes(answers["create_source"]) {
		if err := os.MkdirAll(out.Source, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create source folder: %w", err)
		}
	}

	switch out.Engine {
	case config.EngineRclone:
		out.Dest = answers["dest"]
	case config.EngineB2:
		out.Bucket = answers["bucket"]
		out.KeyID = answers["key_id"]
		out.AppKey = answers["app_key"]
	}

	out.Versioning = isYes(answers["versioning"])
	out.ScheduleTime = answers["schedule_time"]
	out.ScheduleFrequency = strings.ToLower(answers["schedule_frequency"])
	if day, ok := answers["schedule_day"]; ok && day != "" {
		out.ScheduleDay = strings.ToUpper(day)
	}
	out.Notify = isYes(answers["notify"])

	exclusions := splitExclusions(answers["exclude"])
	return &out, exclusions, nil
}

// splitExclusions parses a comma separated extension list. Bare
// extensions gain a leading dot so ".log" and "log" mean the same
// thing. The answer "none" clears the list; an empty answer keeps
// whatever default was offered.
func splitExclusions(value string) []string {
	if strings.EqualFold(strings.TrimSpace(value), "none") {
		return nil
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.ContainsAny(part, "*?[") && !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	return out
}
