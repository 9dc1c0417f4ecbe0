//go:build e2e

package e2e

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// hasadServer manages a running Hasad server process.
type hasadServer struct {
	cmd     *exec.Cmd
	dataDir string
	address string
	apiKey  string
	logFile string
}

// startHasad launches the Hasad binary and waits for it to become healthy.
// The server is configured entirely via environment variables.
func startHasad(t *testing.T) *hasadServer {
	t.Helper()
	requireHasad(t)
	return launchHasad(t, t.TempDir(), "hasad.log")
}

func launchHasad(t *testing.T, dataDir, logName string) *hasadServer {
	t.Helper()

	port := freePort(t)
	s := &hasadServer{
		dataDir: dataDir,
		address: fmt.Sprintf("127.0.0.1:%d", port),
		apiKey:  "e2e-test-api-key",
		logFile: filepath.Join(dataDir, logName),
	}

	cmd := exec.Command(hasadBin)
	cmd.Env = append(s.env(),
		"HASAD_PORT="+fmt.Sprintf("%d", port),
		"HASAD_API_KEY="+s.apiKey,
	)

	lf, err := os.Create(s.logFile)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	cmd.Stdout = lf
	cmd.Stderr = lf

	if err := cmd.Start(); err != nil {
		lf.Close()
		t.Fatalf("start hasad: %v", err)
	}
	s.cmd = cmd

	t.Cleanup(func() {
		s.stop()
		lf.Close()
	})

	if err := s.waitHealthy(10 * time.Second); err != nil {
		t.Fatalf("hasad not healthy: %v", err)
	}
	return s
}

// env returns the environment shared by the server and CLI invocations.
func (s *hasadServer) env() []string {
	return append(os.Environ(),
		"HASAD_DB_PATH="+s.dbPath(),
		"HASAD_EXPORT_DIR="+s.exportDir(),
		"HASAD_CONFIG_PATH="+filepath.Join(s.dataDir, "nonexistent.yaml"),
		"HASAD_DEV_MODE=true",
	)
}

func (s *hasadServer) dbPath() string    { return filepath.Join(s.dataDir, "hasad.db") }
func (s *hasadServer) exportDir() string { return filepath.Join(s.dataDir, "exports") }

func (s *hasadServer) stop() {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(os.Interrupt)
		_ = s.cmd.Wait()
	}
}

func (s *hasadServer) baseURL() string {
	return fmt.Sprintf("http://%s", s.address)
}

func (s *hasadServer) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("%s/api/v1/health", s.baseURL())

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("hasad not healthy after %s", timeout)
}

// restartOnSameData stops the server and starts a new one on the same data
// directory.
func (s *hasadServer) restartOnSameData(t *testing.T) *hasadServer {
	t.Helper()
	s.stop()
	time.Sleep(200 * time.Millisecond) // allow port release
	return launchHasad(t, s.dataDir, "hasad-restart.log")
}

// cli runs a hasad subcommand against this server's data and address.
func (s *hasadServer) cli(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(hasadBin, args...)
	cmd.Env = append(s.env(),
		"HASAD_SERVER_URL="+s.baseURL(),
		"HASAD_API_KEY="+s.apiKey,
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func (s *hasadServer) mustCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, err := s.cli(t, args...)
	if err != nil {
		t.Fatalf("hasad %v: %v\n%s", args, err, out)
	}
	return out
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
