package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Saver persists a downloaded document and returns where it landed.
type Saver interface {
	Save(name string, data []byte) (string, error)
}

// Downloads saves files into a directory without ever overwriting an
// existing one: a second draft.docx becomes "draft (1).docx".
type Downloads struct {
	Dir string
}

// NewDownloads returns a Downloads rooted at dir. An empty dir selects the
// user's Downloads folder, falling back to the working directory.
func NewDownloads(dir string) *Downloads {
	if dir == "" {
		dir = DefaultDownloadsDir()
	}
	return &Downloads{Dir: dir}
}

// DefaultDownloadsDir returns ~/Downloads when it exists, otherwise ".".
func DefaultDownloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	dir := filepath.Join(home, "Downloads")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return "."
}

// Save writes data under name, picking the first free variant of the name.
func (d *Downloads) Save(name string, data []byte) (string, error) {
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating downloads dir: %w", err)
	}

	name = filepath.Base(name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(d.Dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", candidate, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("writing %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("closing %s: %w", candidate, err)
		}
		return path, nil
	}
}
