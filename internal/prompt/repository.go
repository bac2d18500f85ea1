package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound reports a prompt id with no backing file.
var ErrNotFound = errors.New("prompt not found")

type Template struct {
	PromptID string
	Content  string
	Version  string
	SHA256   string
}

// Repository resolves prompt templates by id.
type Repository interface {
	Get(promptID string) (*Template, error)
}

// FilesystemRepository looks prompts up as {id}.md, {id}.txt, then {id}
// inside a single directory. The version is derived from the content hash so
// prompt edits are visible in traces without manual bookkeeping.
type FilesystemRepository struct {
	dir string
}

func NewFilesystemRepository(dir string) *FilesystemRepository {
	return &FilesystemRepository{dir: dir}
}

func (r *FilesystemRepository) Get(promptID string) (*Template, error) {
	candidates := []string{
		filepath.Join(r.dir, promptID+".md"),
		filepath.Join(r.dir, promptID+".txt"),
		filepath.Join(r.dir, promptID),
	}
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", promptID, err)
		}
		sum := sha256.Sum256(data)
		contentHash := hex.EncodeToString(sum[:])
		return &Template{
			PromptID: promptID,
			Content:  string(data),
			Version:  contentHash[:12],
			SHA256:   contentHash,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, promptID)
}
