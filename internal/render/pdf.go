package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Compiler turns typst markup into a PDF by shelling out to the typst
// binary. Each compilation works in its own temp files so concurrent
// renders never collide.
type Compiler struct {
	bin     string
	tempDir string
	timeout time.Duration
}

func NewCompiler(bin, tempDir string, timeout time.Duration) *Compiler {
	if bin == "" {
		bin = "typst"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Compiler{bin: bin, tempDir: tempDir, timeout: timeout}
}

// Compile writes the markup to a temp file, runs the compiler and returns
// the PDF bytes. The output is validated before being returned so a
// truncated or corrupt file never reaches storage.
func (c *Compiler) Compile(ctx context.Context, markup string) ([]byte, error) {
	if err := os.MkdirAll(c.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	id := uuid.New().String()
	srcPath := filepath.Join(c.tempDir, id+".typ")
	outPath := filepath.Join(c.tempDir, id+".pdf")
	defer os.Remove(srcPath)
	defer os.Remove(outPath)

	if err := os.WriteFile(srcPath, []byte(markup), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write source file: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, c.bin, "compile", srcPath, outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("compilation timed out after %s", c.timeout)
		}
		return nil, fmt.Errorf("compilation failed: %s", firstLine(stderr.String()))
	}

	if err := api.ValidateFile(outPath, nil); err != nil {
		return nil, fmt.Errorf("compiler produced invalid pdf: %w", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read compiled pdf: %w", err)
	}
	return out, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	if s == "" {
		return "unknown compiler error"
	}
	return s
}
