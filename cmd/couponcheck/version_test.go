package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestReadBuildInfo(t *testing.T) {
	t.Parallel()

	info := readBuildInfo()
	if info.Version == "" || info.Commit == "" || info.Date == "" {
		t.Errorf("expected every field to have a value, got %+v", info)
	}
	if len(info.Commit) > 7 && info.Commit != "unknown" {
		t.Errorf("expected short commit, got %q", info.Commit)
	}
	if info.Go != runtime.Version() {
		t.Errorf("expected go %s, got %s", runtime.Version(), info.Go)
	}
	if getVersion() != info.Version {
		t.Errorf("getVersion() = %q, want %q", getVersion(), info.Version)
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, args ...string) string {
		t.Helper()

		cmd := NewVersionCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs(args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return buf.String()
	}

	t.Run("full output", func(t *testing.T) {
		t.Parallel()

		output := run(t)
		for _, want := range []string{"couponcheck version", "commit:", "built:", "go:"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
	})

	t.Run("short output", func(t *testing.T) {
		t.Parallel()

		if got := run(t, "--short"); got != getVersion()+"\n" {
			t.Errorf("unexpected short output %q", got)
		}
	})
}
