// Package localfs implements the filestore port on the local filesystem.
// Office documents are converted to PDF with LibreOffice so browsers can
// preview skill sheets without a download.
package localfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sesbridge/sesbridge/internal/port/filestore"
)

// convertible lists the extensions LibreOffice can convert to PDF.
var convertible = map[string]bool{
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".ppt":  true,
	".pptx": true,
	".odt":  true,
	".ods":  true,
}

// Store saves documents under a root directory. References are
// root-relative slash paths and never contain "..".
type Store struct {
	root    string
	soffice string
}

// New creates a local filesystem store rooted at root. soffice is the
// LibreOffice binary used for PDF conversion; empty disables conversion.
func New(root, soffice string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("filestore root %s: %w", root, err)
	}
	return &Store{root: root, soffice: soffice}, nil
}

// Save writes the document under subdir with a random name that keeps
// the original extension.
func (s *Store) Save(_ context.Context, subdir, name string, r io.Reader) (string, error) {
	dir := filepath.Join(s.root, filepath.Clean("/"+subdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("filestore mkdir %s: %w", subdir, err)
	}

	ext := strings.ToLower(filepath.Ext(name))
	fileName := uuid.NewString() + ext
	dst := filepath.Join(dir, fileName)

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("filestore create %s: %w", fileName, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("filestore write %s: %w", fileName, err)
	}

	ref := path.Join(strings.Trim(subdir, "/"), fileName)
	slog.Debug("document saved", "ref", ref)
	return ref, nil
}

// ConvertToPDF converts an office document to PDF next to the original
// and returns the PDF's reference.
func (s *Store) ConvertToPDF(ctx context.Context, ref string) (string, error) {
	ext := strings.ToLower(path.Ext(ref))
	if ext == ".pdf" {
		return ref, nil
	}
	if !convertible[ext] {
		return "", fmt.Errorf("convert %s: %w", ref, filestore.ErrUnsupportedFormat)
	}
	if s.soffice == "" {
		return "", fmt.Errorf("convert %s: soffice not configured: %w", ref, filestore.ErrUnsupportedFormat)
	}

	src := s.abs(ref)
	outDir := filepath.Dir(src)

	cmd := exec.CommandContext(ctx, s.soffice,
		"--headless", "--convert-to", "pdf", "--outdir", outDir, src)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("convert %s: soffice: %w: %s", ref, err, strings.TrimSpace(string(out)))
	}

	pdfRef := strings.TrimSuffix(ref, ext) + ".pdf"
	if _, err := os.Stat(s.abs(pdfRef)); err != nil {
		return "", fmt.Errorf("convert %s: pdf missing after conversion: %w", ref, err)
	}
	return pdfRef, nil
}

// Delete removes the document. Missing references are not an error.
func (s *Store) Delete(_ context.Context, ref string) error {
	err := os.Remove(s.abs(ref))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestore delete %s: %w", ref, err)
	}
	return nil
}

// PublicURL maps a reference to its serving path.
func (s *Store) PublicURL(ref string) string {
	return "/uploads/" + ref
}

// Root returns the directory references resolve against, for mounting a
// static file server.
func (s *Store) Root() string { return s.root }

func (s *Store) abs(ref string) string {
	return filepath.Join(s.root, filepath.Clean("/"+ref))
}
