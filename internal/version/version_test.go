package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func withBuildInfo(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
}

func TestColoredKeepsComponents(t *testing.T) {
	color.NoColor = true
	withBuildInfo(t, "1.2.3-rc1", "", "")
	if got := Colored(); got != "1.2.3-rc1" {
		t.Fatalf("Colored() = %q", got)
	}
}

func TestColoredLeavesOddVersionsAlone(t *testing.T) {
	withBuildInfo(t, "nightly", "", "")
	if got := Colored(); got != "nightly" {
		t.Fatalf("Colored() = %q", got)
	}
}

func TestStringIncludesBuildInfo(t *testing.T) {
	color.NoColor = true
	withBuildInfo(t, "1.0.0", "abcdef0123456789", "2026-01-15")
	got := String()
	for _, want := range []string{"cppsema 1.0.0", "(abcdef012345)", "built 2026-01-15"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}

func TestStringWithoutOptionalFields(t *testing.T) {
	color.NoColor = true
	withBuildInfo(t, "1.0.0", "", "")
	if got := String(); got != "cppsema 1.0.0" {
		t.Fatalf("String() = %q", got)
	}
}
