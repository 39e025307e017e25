package localfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sesbridge/sesbridge/internal/port/filestore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSaveAndDelete(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.Save(context.Background(), "skill-sheets", "resume.docx", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(ref, "skill-sheets/") {
		t.Errorf("ref = %q, want skill-sheets/ prefix", ref)
	}
	if !strings.HasSuffix(ref, ".docx") {
		t.Errorf("ref = %q, want .docx suffix", ref)
	}

	data, err := os.ReadFile(filepath.Join(s.Root(), filepath.FromSlash(ref)))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("saved content = %q, want %q", data, "content")
	}

	if err := s.Delete(context.Background(), ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// Deleting again must not be an error.
	if err := s.Delete(context.Background(), ref); err != nil {
		t.Errorf("Delete missing ref: %v", err)
	}
}

func TestSaveRejectsTraversal(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.Save(context.Background(), "../../etc", "evil.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	abs := s.abs(ref)
	if !strings.HasPrefix(abs, s.Root()) {
		t.Errorf("resolved path %q escapes root %q", abs, s.Root())
	}
}

func TestConvertToPDF_PassthroughAndUnsupported(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ConvertToPDF(context.Background(), "docs/a.pdf")
	if err != nil {
		t.Fatalf("ConvertToPDF(pdf): %v", err)
	}
	if got != "docs/a.pdf" {
		t.Errorf("ConvertToPDF(pdf) = %q, want passthrough", got)
	}

	if _, err := s.ConvertToPDF(context.Background(), "docs/a.png"); !errors.Is(err, filestore.ErrUnsupportedFormat) {
		t.Errorf("ConvertToPDF(png) error = %v, want ErrUnsupportedFormat", err)
	}

	// Convertible format but no soffice binary configured.
	if _, err := s.ConvertToPDF(context.Background(), "docs/a.docx"); !errors.Is(err, filestore.ErrUnsupportedFormat) {
		t.Errorf("ConvertToPDF without soffice error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestPublicURL(t *testing.T) {
	s := newTestStore(t)
	if got := s.PublicURL("skill-sheets/x.pdf"); got != "/uploads/skill-sheets/x.pdf" {
		t.Errorf("PublicURL = %q", got)
	}
}
