package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args and returns its output streams.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Tesseract recognizes images with the tesseract command line tool.
type Tesseract struct {
	Binary      string // defaults to "tesseract"
	Lang        string // e.g. "fra+eng"
	TessdataDir string
	Runner      Runner // defaults to ExecRunner
}

// Name returns the recognizer name.
func (t *Tesseract) Name() string { return "tesseract" }

// Recognize runs `tesseract <path> stdout -l <lang>`.
func (t *Tesseract) Recognize(ctx context.Context, path string) (string, error) {
	bin := t.Binary
	if bin == "" {
		bin = "tesseract"
	}
	args := []string{path, "stdout"}
	if t.Lang != "" {
		args = append(args, "-l", t.Lang)
	}
	if t.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.TessdataDir)
	}

	runner := t.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	out, errb, err := runner.Run(ctx, bin, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return "", fmt.Errorf("running %s: %w: %s", bin, err, msg)
		}
		return "", fmt.Errorf("running %s: %w", bin, err)
	}
	return string(out), nil
}
