package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const sampleIndex = "■[00:22:12-00:29:29] 内容: Intro section\n■[00:29:29-00:31:00] 内容: Q&A\nDAW操作: Yes\n"

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand_JSONFromStdin(t *testing.T) {
	out, err := runCLI(t, sampleIndex, "parse", "--format", "json")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var clips []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &clips); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, out)
	}
	if len(clips) != 2 {
		t.Fatalf("clips = %v", clips)
	}
	if clips[0]["clipName"] != "01_002212-002929_Intro section.mp4" || clips[0]["start"] != "00:22:12" {
		t.Errorf("first clip = %v", clips[0])
	}
	if clips[1]["flagged"] != true {
		t.Errorf("second clip = %v", clips[1])
	}
}

func TestParseCommand_FlaggedOnlyYAMLFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.txt")
	if err := os.WriteFile(path, []byte(sampleIndex), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "parse", path, "--mode", "flaggedOnly", "--format", "yaml")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var clips []map[string]interface{}
	if err := yaml.Unmarshal([]byte(out), &clips); err != nil {
		t.Fatalf("output is not YAML: %v (%q)", err, out)
	}
	if len(clips) != 1 || clips[0]["clipName"] != "01_002929-003100_Q&A.mp4" {
		t.Fatalf("clips = %v", clips)
	}
}

func TestParseCommand_Table(t *testing.T) {
	out, err := runCLI(t, sampleIndex, "parse", "-", "--format", "table")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	for _, want := range []string{"Intro section", "02_002929-003100_Q&A.mp4", "2 segments, 1 flagged"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestParseCommand_AutoFormatIsJSONWhenPiped(t *testing.T) {
	out, err := runCLI(t, "no ranges here", "parse")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("output = %q, want []", out)
	}
}

func TestParseCommand_Errors(t *testing.T) {
	tests := [][]string{
		{"parse", "--mode", "some"},
		{"parse", "--strategy", "magic"},
		{"parse", "--format", "xml"},
		{"parse", filepath.Join(t.TempDir(), "missing.txt")},
	}
	for _, args := range tests {
		if _, err := runCLI(t, sampleIndex, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestClipTable(t *testing.T) {
	out := clipTable([]parsedClip{{ClipName: "01_000000-000100_x.mp4"}})
	for _, want := range []string{"#", "01_000000-000100_x.mp4"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
