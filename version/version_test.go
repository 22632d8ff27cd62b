package version

import "testing"

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.2.0", GitCommit: "abc1234"}, "1.2.0-abc1234"},
		{Info{Version: "1.2.0", GitCommit: "abc1234", Dirty: true}, "1.2.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.info, got, tt.want)
		}
	}
}

func TestGetUsesLinkerValues(t *testing.T) {
	orig, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = orig, origCommit }()

	Version, GitCommit = "3.0.0", "deadbeefcafe"
	info := Get()
	if info.Version != "3.0.0" || info.GitCommit != "deadbee" {
		t.Errorf("Get() = %+v", info)
	}
}

func TestFull(t *testing.T) {
	got := Info{Version: "1.0.0", BuildTime: "2026-01-02T03:04:05Z", GoVersion: "go1.26.0"}.Full()
	if got != "1.0.0 (built 2026-01-02T03:04:05Z) go1.26.0" {
		t.Errorf("Full() = %q", got)
	}
}
