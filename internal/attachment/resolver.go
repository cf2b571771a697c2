// Package attachment resolves subtask file references into content.
// A subtask's supporting material is either absent, a file under the
// configured attachments directory, or an attachment on an email
// identified by its Message-ID.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taskdeck/taskdeck/internal/model"
)

// ErrNoFile is returned when resolving a subtask without supporting
// material.
var ErrNoFile = errors.New("subtask has no provided file")

// File is resolved attachment content. Name is always a bare filename
// with no path components, safe to join to a directory of the caller's
// choosing.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Resolver resolves subtask file references. mail may be nil when no
// mailbox is configured; emailed references then fail with a clear error.
type Resolver struct {
	dir  string
	mail *MailFetcher
}

// NewResolver creates a resolver rooted at dir for on-disk references.
func NewResolver(dir string, mail *MailFetcher) *Resolver {
	return &Resolver{dir: dir, mail: mail}
}

// Resolve fetches the content behind a subtask's file reference.
func (r *Resolver) Resolve(ctx context.Context, sub model.Subtask) (*File, error) {
	switch sub.ProvidedFile {
	case model.FileNone, "":
		return nil, ErrNoFile

	case model.FileOnDisk:
		return r.resolveOnDisk(sub.FileReference)

	case model.FileEmailed:
		if r.mail == nil {
			return nil, fmt.Errorf(
				"subtask %s references an emailed file but no mailbox is configured",
				sub.ID,
			)
		}
		return r.mail.FetchAttachment(ctx, sub.FileReference)

	default:
		return nil, fmt.Errorf("unknown provided_file state %q", sub.ProvidedFile)
	}
}

// resolveOnDisk reads a file reference relative to the attachments
// directory. References escaping the directory are rejected.
func (r *Resolver) resolveOnDisk(ref string) (*File, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty file reference")
	}

	cleaned := filepath.Clean(ref)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return nil, fmt.Errorf("file reference %q escapes the attachments directory", ref)
	}

	path := filepath.Join(r.dir, cleaned)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attachment %s: %w", path, err)
	}

	return &File{
		Name: filepath.Base(cleaned),
		Data: data,
	}, nil
}
