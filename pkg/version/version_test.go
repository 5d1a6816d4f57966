package version

import (
	"strings"
	"testing"
)

func TestShort(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"defaults", "dev", "none", "dev"},
		{"empty version", "", "none", "dev"},
		{"long commit", "1.0.0", "0123456789abcdef", "1.0.0 (0123456)"},
		{"short commit", "1.0.0", "abc", "1.0.0 (abc)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit = tt.version, tt.commit
			if got := Short(); got != tt.want {
				t.Errorf("Short() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	info := Info("retrochat")
	if !strings.HasPrefix(info, "retrochat ") {
		t.Errorf("Expected program name prefix, got %q", info)
	}
	if !strings.Contains(info, Platform()) {
		t.Errorf("Expected platform %q in %q", Platform(), info)
	}
}
