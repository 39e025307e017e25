// Package filestore defines the document store port (interface). The
// request workflow never inspects file content; it only carries the
// opaque references produced here.
package filestore

import (
	"context"
	"errors"
	"io"
)

// ErrUnsupportedFormat is returned when a document cannot be converted
// to PDF.
var ErrUnsupportedFormat = errors.New("filestore: unsupported document format")

// Store is the port interface for attachment storage.
type Store interface {
	// Save writes a document under the given subdirectory and returns an
	// opaque reference.
	Save(ctx context.Context, subdir, name string, r io.Reader) (ref string, err error)

	// ConvertToPDF converts an office document identified by ref into a
	// PDF next to it and returns the PDF's reference.
	ConvertToPDF(ctx context.Context, ref string) (pdfRef string, err error)

	// Delete removes the document identified by ref. Deleting a missing
	// reference is not an error.
	Delete(ctx context.Context, ref string) error

	// PublicURL maps a reference to the URL it is served under.
	PublicURL(ref string) string
}
