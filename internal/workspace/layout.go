// Package workspace owns the on-disk layout of jobs: uploaded media under
// storage/{jobId} and produced clips under output/{jobId}/clips.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	storageDirName = "storage"
	outputDirName  = "output"
	clipsDirName   = "clips"

	IndexTextFile = "index.txt"
)

// Layout resolves per-job paths below a data directory.
type Layout struct {
	root string
}

func NewLayout(dataDir string) Layout {
	return Layout{root: dataDir}
}

// Root returns the data directory.
func (l Layout) Root() string {
	return l.root
}

// StorageDir holds a job's uploaded media and index text.
func (l Layout) StorageDir(jobID string) string {
	return filepath.Join(l.root, storageDirName, jobID)
}

// OutputDir holds everything a job produced.
func (l Layout) OutputDir(jobID string) string {
	return filepath.Join(l.root, outputDirName, jobID)
}

// ClipDir is the directory clips are cut into.
func (l Layout) ClipDir(jobID string) string {
	return filepath.Join(l.OutputDir(jobID), clipsDirName)
}

// SourcePath is where the uploaded media of a job is stored. The original
// extension is kept so ffmpeg can pick the right demuxer.
func (l Layout) SourcePath(jobID, ext string) string {
	if ext == "" {
		ext = ".mp4"
	}
	return filepath.Join(l.StorageDir(jobID), "original"+ext)
}

// IndexTextPath is where the submitted index text is kept.
func (l Layout) IndexTextPath(jobID string) string {
	return filepath.Join(l.StorageDir(jobID), IndexTextFile)
}

// Ensure creates the top-level directories.
func (l Layout) Ensure() error {
	for _, dir := range []string{
		filepath.Join(l.root, storageDirName),
		filepath.Join(l.root, outputDirName),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// RemoveJob deletes every artifact of a job. Missing directories are not an
// error.
func (l Layout) RemoveJob(jobID string) error {
	if err := os.RemoveAll(l.StorageDir(jobID)); err != nil {
		return fmt.Errorf("remove storage: %w", err)
	}
	if err := os.RemoveAll(l.OutputDir(jobID)); err != nil {
		return fmt.Errorf("remove output: %w", err)
	}
	return nil
}
