package e2e

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestValidateE2EExitCodes checks the 0/1/2 exit code contract
func TestValidateE2EExitCodes(t *testing.T) {
	binaryPath := buildLinecheckBinary(t)

	tests := []struct {
		name     string
		files    map[string]string
		wantCode int
	}{
		{
			name:     "valid build",
			files:    map[string]string{"chicken.json": chickenBuild},
			wantCode: 0,
		},
		{
			name:     "hard errors",
			files:    map[string]string{"chicken.json": chickenBuild, "rice.json": stationOnlyBuild},
			wantCode: 1,
		},
		{
			name:     "schema failure",
			files:    map[string]string{"broken.json": `{"id": "b9", "colour": "red"}`},
			wantCode: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDir := t.TempDir()
			for name, content := range tt.files {
				createTestBuildFile(t, testDir, name, content)
			}

			cmd := exec.Command(binaryPath, "validate", "--quiet", testDir)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			if code := exitCodeOf(t, cmd.Run()); code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d\nStdout: %s\nStderr: %s", code, tt.wantCode, stdout.String(), stderr.String())
			}
		})
	}
}

// TestValidateE2EJSONReport verifies the JSON report lands in the configured directory
func TestValidateE2EJSONReport(t *testing.T) {
	binaryPath := buildLinecheckBinary(t)

	testDir := t.TempDir()
	createTestBuildFile(t, filepath.Join(testDir, "menu"), "chicken.json", chickenBuild)

	outputDir := t.TempDir()
	createTestConfigFile(t, testDir, outputDir)

	cmd := exec.Command(binaryPath, "validate", "--json", "--quiet", "menu")
	cmd.Dir = testDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", err, stderr.String())
	}

	content, err := os.ReadFile(filepath.Join(outputDir, "linecheck_validate.json"))
	if err != nil {
		list, _ := os.ReadDir(outputDir)
		var names []string
		for _, f := range list {
			names = append(names, f.Name())
		}
		t.Fatalf("No validate JSON report in %s, files: %v", outputDir, names)
	}

	var report map[string]interface{}
	if err := json.Unmarshal(content, &report); err != nil {
		t.Fatalf("invalid json: %v\ncontent: %s", err, string(content))
	}
	if _, ok := report["summary"]; !ok {
		t.Fatalf("json should contain 'summary'")
	}
}

// TestValidateE2EListRules prints the catalog without touching any file
func TestValidateE2EListRules(t *testing.T) {
	binaryPath := buildLinecheckBinary(t)

	cmd := exec.Command(binaryPath, "validate", "--list-rules")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "H1") {
		t.Fatalf("rule catalog should list H1:\n%s", stdout.String())
	}
}
