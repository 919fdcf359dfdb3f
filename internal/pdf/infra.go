package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// PopplerTextExtractor достаёт текстовый слой через pdftotext
type PopplerTextExtractor struct {
	bin string
}

func NewPopplerTextExtractor() *PopplerTextExtractor {
	return &PopplerTextExtractor{bin: "pdftotext"}
}

func (c *PopplerTextExtractor) ExtractText(ctx context.Context, pdf []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "pdftext-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(input, pdf, 0o644); err != nil {
		return "", err
	}

	var out, stderr bytes.Buffer
	// "-": текст в stdout
	cmd := exec.CommandContext(ctx, c.bin, "-enc", "UTF-8", "-layout", input, "-")
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return out.String(), nil
}
