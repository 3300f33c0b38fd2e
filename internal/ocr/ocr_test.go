package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	name   string
	args   []string
	stdout string
	stderr string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func TestTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.txt")
	require.NoError(t, os.WriteFile(path, []byte("TOTAL TTC 25.80\n"), 0o644))

	text, err := TextFile{}.Recognize(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "TOTAL TTC 25.80\n", text)

	_, err = TextFile{}.Recognize(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestTesseract_Args(t *testing.T) {
	runner := &fakeRunner{stdout: "NET A PAYER 19,99\n"}
	ts := &Tesseract{Lang: "fra+eng", TessdataDir: "/usr/share/tessdata", Runner: runner}

	text, err := ts.Recognize(context.Background(), "inbox/r.jpg")
	require.NoError(t, err)
	assert.Equal(t, "NET A PAYER 19,99\n", text)
	assert.Equal(t, "tesseract", runner.name)
	assert.Equal(t, []string{"inbox/r.jpg", "stdout", "-l", "fra+eng", "--tessdata-dir", "/usr/share/tessdata"}, runner.args)
}

func TestTesseract_Error(t *testing.T) {
	runner := &fakeRunner{stderr: "Error opening data file\n", err: errors.New("exit status 1")}
	ts := &Tesseract{Binary: "/opt/bin/tesseract", Runner: runner}

	_, err := ts.Recognize(context.Background(), "r.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error opening data file")
	assert.Equal(t, "/opt/bin/tesseract", runner.name)
}

func TestRegistry(t *testing.T) {
	runner := &fakeRunner{stdout: "CB 12,00"}
	r := DefaultRegistry(&Tesseract{Runner: runner})

	assert.True(t, r.Supports("a/IMG_1.JPG"))
	assert.True(t, r.Supports("b.txt"))
	assert.False(t, r.Supports("c.pdf"))
	assert.Equal(t, "tesseract", r.For("x.png").Name())
	assert.Equal(t, "text", r.For("x.txt").Name())
	assert.Contains(t, r.Extensions(), ".tiff")

	text, err := r.Recognize(context.Background(), "IMG_1.jpeg")
	require.NoError(t, err)
	assert.Equal(t, "CB 12,00", text)

	_, err = r.Recognize(context.Background(), "c.pdf")
	assert.Error(t, err)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(TextFile{}, "txt")
	assert.Panics(t, func() { r.Register(TextFile{}, ".TXT") })
}
