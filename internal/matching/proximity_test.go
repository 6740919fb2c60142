package matching

import (
	"testing"

	"github.com/spigell/job-matcher/internal/jobs"
)

func TestLevelProximity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b jobs.Level
		want float64
	}{
		{jobs.LevelSenior, jobs.LevelSenior, 1.0},
		{jobs.LevelSenior, jobs.LevelLead, 0.7},
		{jobs.LevelLead, jobs.LevelSenior, 0.7},
		{jobs.LevelMid, jobs.LevelLead, 0.4},
		{jobs.LevelEntry, jobs.LevelLead, 0.2},
		{jobs.LevelIntern, jobs.LevelManager, 0.05},
		{jobs.LevelIntern, jobs.LevelCSuite, 0.05},
		{"senior", "SENIOR", 1.0},
		{"Wizard", jobs.LevelSenior, 0.5},
		{jobs.LevelSenior, "", 0.5},
	}

	for _, tt := range tests {
		if got := LevelProximity(tt.a, tt.b); got != tt.want {
			t.Fatalf("LevelProximity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
