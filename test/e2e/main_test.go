package e2e

import (
	"os"
	"os/exec"
	"testing"
)

var hasadBin string

func TestMain(m *testing.M) {
	hasadBin = envOrLookPath("HASAD_BIN", "hasad")
	os.Exit(m.Run())
}

func envOrLookPath(envVar, name string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return ""
}

func requireHasad(t *testing.T) {
	t.Helper()
	if hasadBin == "" {
		t.Skip("hasad binary not available (set HASAD_BIN or add to PATH)")
	}
}
