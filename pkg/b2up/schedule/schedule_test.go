package schedule

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/jamesainslie/b2up/pkg/b2up/logging"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name      string
		frequency string
		timeOfDay string
		day       string
		wantErr   bool
	}{
		{"daily valid", "daily", "03:00", "", false},
		{"daily pads hour", "daily", "3:00", "", false},
		{"weekly valid", "weekly", "22:30", "sun", false},
		{"logon ignores time", "logon", "", "", false},
		{"bad frequency", "hourly", "03:00", "", true},
		{"bad time", "daily", "25:00", "", true},
		{"missing time", "daily", "", "", true},
		{"weekly bad day", "weekly", "03:00", "SUNDAY", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseSpec("BackupToBackblazeB2", tt.frequency, tt.timeOfDay, tt.day, "")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSpec() = %+v, want error", spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSpec() error = %v", err)
			}
		})
	}
}

func TestParseSpec_NormalizesFields(t *testing.T) {
	spec, err := ParseSpec("Backup", "WEEKLY", "3:05", "sun", "SYSTEM")
	if err != nil {
		t.Fatalf("ParseSpec() error = %v", err)
	}
	if spec.Frequency != Weekly {
		t.Errorf("Frequency = %q, want %q", spec.Frequency, Weekly)
	}
	if spec.Time != "03:05" {
		t.Errorf("Time = %q, want 03:05", spec.Time)
	}
	if spec.Day != "SUN" {
		t.Errorf("Day = %q, want SUN", spec.Day)
	}
}

func TestCreateArgs(t *testing.T) {
	action := `"C:\bin\b2up.exe" run --non-interactive --config "C:\cfg\b2up.env"`

	tests := []struct {
		name string
		spec Spec
		want []string
	}{
		{
			name: "daily",
			spec: Spec{TaskName: "Backup", Frequency: Daily, Time: "03:00"},
			want: []string{"/Create", "/F", "/SC", "DAILY", "/TN", "Backup", "/TR", action, "/ST", "03:00"},
		},
		{
			name: "weekly",
			spec: Spec{TaskName: "Backup", Frequency: Weekly, Time: "22:30", Day: "SUN"},
			want: []string{"/Create", "/F", "/SC", "WEEKLY", "/D", "SUN", "/TN", "Backup", "/TR", action, "/ST", "22:30"},
		},
		{
			name: "logon",
			spec: Spec{TaskName: "Backup", Frequency: Logon},
			want: []string{"/Create", "/F", "/SC", "ONLOGON", "/TN", "Backup", "/TR", action},
		},
		{
			name: "run-as identity",
			spec: Spec{TaskName: "Backup", Frequency: Daily, Time: "03:00", RunAs: "SYSTEM"},
			want: []string{"/Create", "/F", "/SC", "DAILY", "/TN", "Backup", "/TR", action, "/ST", "03:00", "/RU", "SYSTEM", "/RL", "HIGHEST"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.spec.CreateArgs(action)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CreateArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeleteArgs(t *testing.T) {
	spec := Spec{TaskName: "Backup"}
	want := []string{"/Delete", "/F", "/TN", "Backup"}
	if got := spec.DeleteArgs(); !reflect.DeepEqual(got, want) {
		t.Errorf("DeleteArgs() = %v, want %v", got, want)
	}
}

func TestAction(t *testing.T) {
	got := Action(`C:\bin\b2up.exe`, `C:\cfg\b2up.env`)
	if !strings.Contains(got, "--non-interactive") {
		t.Errorf("Action() = %q, want non-interactive flag", got)
	}
	if !strings.Contains(got, `"C:\cfg\b2up.env"`) {
		t.Errorf("Action() = %q, want quoted config path", got)
	}
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New(logging.Options{Level: "error", Quiet: true})
	if err != nil {
		t.Fatalf("creating test logger: %v", err)
	}
	return logger
}

func TestRegister_ReplaceSemantics(t *testing.T) {
	var calls [][]string
	r := &Registrar{
		Log: testLogger(t),
		exec: func(args []string) (string, error) {
			calls = append(calls, args)
			if args[0] == "/Delete" {
				return "ERROR: The system cannot find the file specified.", errors.New("exit status 1")
			}
			return "SUCCESS", nil
		},
	}

	spec := Spec{TaskName: "Backup", Frequency: Daily, Time: "03:00"}
	if err := r.Register(spec, "action"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("exec calls = %d, want 2 (delete then create)", len(calls))
	}
	if calls[0][0] != "/Delete" {
		t.Errorf("first call = %v, want delete", calls[0])
	}
	if calls[1][0] != "/Create" {
		t.Errorf("second call = %v, want create", calls[1])
	}
}

func TestRegister_CreateFailureReported(t *testing.T) {
	r := &Registrar{
		Log: testLogger(t),
		exec: func(args []string) (string, error) {
			if args[0] == "/Create" {
				return "ERROR: Access is denied.", errors.New("exit status 1")
			}
			return "SUCCESS", nil
		},
	}

	spec := Spec{TaskName: "Backup", Frequency: Daily, Time: "03:00"}
	err := r.Register(spec, "action")
	if err == nil {
		t.Fatal("Register() = nil, want error")
	}
	if !strings.Contains(err.Error(), "Access is denied") {
		t.Errorf("error = %q, want schtasks output included", err)
	}
}

func TestUnregister_MissingTaskIsNoop(t *testing.T) {
	r := &Registrar{
		Log: testLogger(t),
		exec: func(args []string) (string, error) {
			return "ERROR: The specified task name does not exist.", errors.New("exit status 1")
		},
	}

	if err := r.Unregister(Spec{TaskName: "Backup"}); err != nil {
		t.Errorf("Unregister() error = %v, want nil for missing task", err)
	}
}
