package main

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

func testConfig() config {
	return config{workers: 4, timeout: time.Second}
}

func TestRun_ValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		args   []string
		stderr string
		code   int
	}{
		{"no args", nil, usage + "\n", 2},
		{"ip only", []string{"127.0.0.1"}, usage + "\n", 2},
		{"too many", []string{"127.0.0.1", "1-2", "3"}, usage + "\n", 2},
		{"bad ip", []string{"not-an-ip", "1-10"}, "Invalid IP address.\n", 1},
		{"hostname", []string{"localhost", "1-10"}, "Invalid IP address.\n", 1},
		{"bad ip checked before range", []string{"300.1.1.1", "x"}, "Invalid IP address.\n", 1},
		{"reversed", []string{"127.0.0.1", "10-1"}, "Invalid port range: Start port must be less than or equal to end port.\n", 1},
		{"no dash", []string{"127.0.0.1", "80"}, "Invalid port range: Invalid port range format.\n", 1},
		{"bad start", []string{"::1", "x-80"}, "Invalid port range: Invalid start port.\n", 1},
		{"bad end", []string{"::1", "80-65536"}, "Invalid port range: Invalid end port.\n", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tc.args, testConfig(), &stdout, &stderr)
			if code != tc.code {
				t.Fatalf("expected exit code %d, got %d", tc.code, code)
			}
			if stderr.String() != tc.stderr {
				t.Fatalf("got stderr %q want %q", stderr.String(), tc.stderr)
			}
			if stdout.Len() != 0 {
				t.Fatalf("expected no stdout, got %q", stdout.String())
			}
		})
	}
}

func TestRun_InvalidFlags(t *testing.T) {
	for _, cfg := range []config{{workers: 0, timeout: time.Second}, {workers: 1, timeout: 0}} {
		var stdout, stderr bytes.Buffer
		if code := run([]string{"127.0.0.1", "1-1"}, cfg, &stdout, &stderr); code != 2 {
			t.Fatalf("expected exit code 2, got %d", code)
		}
		if !strings.HasPrefix(stderr.String(), "Invalid flag value:") {
			t.Fatalf("unexpected stderr %q", stderr.String())
		}
	}
}

func acceptAll(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}
}

func TestRun_ReportsOpenPortsInOrder(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping: cannot listen on loopback: %v", err)
	}
	defer ln.Close()
	go acceptAll(ln)
	lo := ln.Addr().(*net.TCPAddr).Port
	hi := lo + 6
	if hi > 65535 {
		t.Skipf("listener port %d too close to the top of the range", lo)
	}

	open := []int{lo}
	for _, p := range []int{lo + 3, lo + 6} {
		extra, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", p))
		if err != nil {
			continue
		}
		defer extra.Close()
		go acceptAll(extra)
		open = append(open, p)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"127.0.0.1", fmt.Sprintf("%d-%d", lo, hi)}, config{workers: 64, timeout: time.Second}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr %q)", code, stderr.String())
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	prev := -1
	seen := map[int]bool{}
	for _, line := range lines {
		var port int
		if _, err := fmt.Sscanf(line, "Port %d is open.", &port); err != nil {
			t.Fatalf("unexpected line %q", line)
		}
		if port <= prev {
			t.Fatalf("ports not ascending: %q", stdout.String())
		}
		prev = port
		seen[port] = true
	}
	for _, p := range open {
		if !seen[p] {
			t.Fatalf("expected port %d reported open, got %q", p, stdout.String())
		}
	}
	if stderr.Len() != 0 {
		t.Fatalf("expected no stderr, got %q", stderr.String())
	}
}

func TestRun_NothingListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping: cannot listen on loopback: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	time.Sleep(50 * time.Millisecond)

	var stdout, stderr bytes.Buffer
	code := run([]string{"127.0.0.1", fmt.Sprintf("%d-%d", port, port)}, config{workers: 1, timeout: time.Second}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if stdout.Len() != 0 || stderr.Len() != 0 {
		t.Fatalf("expected no output, got stdout %q stderr %q", stdout.String(), stderr.String())
	}
}

func TestRun_VerboseLogsOutcomes(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping: cannot listen on loopback: %v", err)
	}
	defer ln.Close()
	go acceptAll(ln)
	port := ln.Addr().(*net.TCPAddr).Port

	var stdout, stderr bytes.Buffer
	cfg := config{workers: 1, timeout: time.Second, verbose: true, progress: true}
	if code := run([]string{"127.0.0.1", fmt.Sprintf("%d-%d", port, port)}, cfg, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if stdout.String() != fmt.Sprintf("Port %d is open.\n", port) {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), fmt.Sprintf("%d OPEN", port)) {
		t.Fatalf("expected verbose log line, got %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "1/1") {
		t.Fatalf("expected progress output, got %q", stderr.String())
	}
}
