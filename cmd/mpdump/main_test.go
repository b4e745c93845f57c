package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const payload = "preamble\r\n--B\r\nContent-Type: text/plain; charset=iso-8859-1\r\nContent-ID: response-1\r\n\r\ncaf\xe9\r\n" +
	"--B\r\nbroken\r\n" +
	"--B\r\nContent-Type: application/http\r\nContent-ID: response-3\r\n\r\nHTTP/1.1 404 Not Found\r\n\r\n" +
	"--B--"

func writePayload(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "payload.bin")
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v, want nil", err)
	}
	return path
}

func TestRun(t *testing.T) {
	t.Parallel()

	path := writePayload(t)

	cases := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  []string
	}{
		{
			name:     "headers",
			args:     []string{"-content-type", "multipart/mixed; boundary=B", path},
			wantCode: 0,
			wantOut: []string{
				"--- part #0 (offset 13, body 6 bytes)\nContent-Type: text/plain; charset=iso-8859-1\r\nContent-ID: response-1\r\n",
				"--- part #2 (offset",
			},
		},
		{
			name:     "decoded body",
			args:     []string{"-boundary", "B", "-body", "-decode", path},
			wantCode: 0,
			wantOut:  []string{"\r\n\r\ncafé\r\n"},
		},
		{
			name:     "strict boundary",
			args:     []string{"-boundary", "B;", "-strict", path},
			wantCode: 2,
		},
		{
			name:     "missing boundary",
			args:     []string{path},
			wantCode: 2,
		},
		{
			name:     "wrong boundary",
			args:     []string{"-boundary", "C", path},
			wantCode: 1,
		},
		{
			name:     "missing file",
			args:     []string{"-boundary", "B", filepath.Join(t.TempDir(), "missing")},
			wantCode: 1,
		},
		{
			name:     "help",
			args:     []string{"-h"},
			wantCode: 0,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			if code := run(c.args, &stdout, &stderr); code != c.wantCode {
				t.Fatalf("run(%q) = %d, want %d\nstderr: %s", c.args, code, c.wantCode, stderr.String())
			}
			for _, want := range c.wantOut {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("run(%q) output does not contain %q:\n%s", c.args, want, stdout.String())
				}
			}
		})
	}
}

func TestRun_JSON(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-boundary", "B", "-json", writePayload(t)}, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, want 0\nstderr: %s", code, stderr.String())
	}

	var indexes []int
	dec := json.NewDecoder(&stdout)
	for dec.More() {
		var p struct {
			Index int    `json:"index"`
			Body  []byte `json:"body"`
		}
		if err := dec.Decode(&p); err != nil {
			t.Fatalf("dec.Decode() error = %v, want nil", err)
		}
		indexes = append(indexes, p.Index)
	}
	if len(indexes) != 2 || indexes[0] != 0 || indexes[1] != 2 {
		t.Errorf("part indexes = %v, want [0 2]", indexes)
	}
}

func TestRun_Batch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
	}{
		{"boundary", []string{"-boundary", "B", "-batch"}},
		{"content type", []string{"-content-type", "multipart/mixed; boundary=B", "-batch"}},
		{"boundary overrides content type", []string{"-content-type", "multipart/mixed; boundary=C", "-boundary", "B", "-batch"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			args := append(c.args, writePayload(t))
			if code := run(args, &stdout, &stderr); code != 0 {
				t.Fatalf("run(%q) = %d, want 0\nstderr: %s", args, code, stderr.String())
			}

			var line struct {
				Index     int    `json:"index"`
				ContentID string `json:"content_id"`
				Status    int    `json:"status"`
			}
			if err := json.Unmarshal(stdout.Bytes(), &line); err != nil {
				t.Fatalf("json.Unmarshal(%q) error = %v, want nil", stdout.String(), err)
			}
			if line.Index != 2 || line.ContentID != "response-3" || line.Status != 404 {
				t.Errorf("batch line = %+v, want index 2, response-3, status 404", line)
			}
		})
	}
}
