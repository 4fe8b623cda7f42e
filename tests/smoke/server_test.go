//go:build smoke

package smoke

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestServerSmoke builds the real binary, runs it against the mock backend,
// and walks the login-to-booking flow over HTTP.
func TestServerSmoke(t *testing.T) {
	repoRoot := findRepoRoot(t)
	tempDir := t.TempDir()

	binPath := filepath.Join(tempDir, "yoga-reserve-server")
	buildCmd := exec.Command("go", "build", "-o", binPath, "./cmd/server")
	buildCmd.Dir = repoRoot
	buildOutput, err := buildCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build server: %v\n%s", err, buildOutput)
	}

	port := reservePort(t)
	configPath := filepath.Join(tempDir, "config.yaml")
	configBody := fmt.Sprintf(`app:
  name: yoga-reserve
  environment: development
  port: %d
  base_url: "http://localhost:%d"

backend:
  environment: mock

email:
  enabled: false
`, port, port)

	if err := os.WriteFile(configPath, []byte(configBody), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	startServer(t, binPath, configPath, tempDir, port)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar, Timeout: 10 * time.Second}
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	// Landing page renders for anonymous visitors.
	body := getBody(t, client, baseURL+"/")
	if !strings.Contains(body, "ヨガ") {
		t.Fatalf("expected landing page content, got:\n%s", body)
	}

	// Anonymous catalog access bounces back to the landing page.
	resp, err := client.Get(baseURL + "/services")
	if err != nil {
		t.Fatalf("get services: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if got := resp.Request.URL.Path; got != "/" {
		t.Fatalf("expected anonymous catalog request to land on /, got %q", got)
	}

	// Log in as the seeded demo user; the redirect chain ends on the catalog.
	resp, err = client.PostForm(baseURL+"/auth/login", url.Values{
		"email":    {"demo@example.com"},
		"password": {"password123"},
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	loginBody := readBody(t, resp)
	if got := resp.Request.URL.Path; got != "/services" {
		t.Fatalf("expected login to land on /services, got %q\n%s", got, loginBody)
	}
	if !strings.Contains(loginBody, "ベーシックヨガ") {
		t.Fatalf("expected seeded services in catalog, got:\n%s", loginBody)
	}

	// The booking list shows the preloaded booking.
	listBody := getBody(t, client, baseURL+"/bookings/list")
	if !strings.Contains(listBody, "2025-11-20") {
		t.Fatalf("expected preloaded booking in list, got:\n%s", listBody)
	}

	// Slot availability for the preloaded date reflects the reservation.
	slotBody := getBody(t, client, baseURL+"/services/1/slots?date=2025-11-20")
	if !strings.Contains(slotBody, "4 / 5") {
		t.Fatalf("expected one reserved seat at 10:00, got:\n%s", slotBody)
	}

	// A restored session skips the landing page.
	resp, err = client.Get(baseURL + "/")
	if err != nil {
		t.Fatalf("get landing: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if got := resp.Request.URL.Path; got != "/services" {
		t.Fatalf("expected restored session to land on /services, got %q", got)
	}
}

func startServer(t *testing.T, binPath, configPath, workDir string, port int) {
	t.Helper()

	cmd := exec.Command(binPath, "-config", configPath)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), "APP_SECRET_KEY=smoke-test-secret")
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	waitDone := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(waitDone)
	}()

	t.Cleanup(func() {
		if cmd.Process == nil {
			return
		}
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-waitDone:
			return
		case <-time.After(5 * time.Second):
		}
		_ = cmd.Process.Kill()
		select {
		case <-waitDone:
		case <-time.After(5 * time.Second):
			t.Logf("server process did not exit after kill")
		}
	})

	healthURL := fmt.Sprintf("http://localhost:%d/health", port)
	client := &http.Client{Timeout: 500 * time.Millisecond}
	deadline := time.Now().Add(10 * time.Second)

	for {
		select {
		case <-waitDone:
			t.Fatalf("server exited before health check: %v\nstdout:\n%s\nstderr:\n%s", waitErr, stdout.String(), stderr.String())
		default:
		}

		resp, err := client.Get(healthURL)
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}

		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for health check\nstdout:\n%s\nstderr:\n%s", stdout.String(), stderr.String())
		}

		time.Sleep(100 * time.Millisecond)
	}

	select {
	case <-waitDone:
		t.Fatalf("server exited unexpectedly: %v\nstdout:\n%s\nstderr:\n%s", waitErr, stdout.String(), stderr.String())
	default:
	}
}

func getBody(t *testing.T, client *http.Client, url string) string {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	return readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func reservePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

func findRepoRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	t.Fatal("failed to locate repo root with go.mod")
	return ""
}
