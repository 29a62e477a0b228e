package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/heimdex/heimdex-splitter/internal/clipname"
	"github.com/heimdex/heimdex-splitter/internal/jobs"
	"github.com/heimdex/heimdex-splitter/internal/logging"
)

// batchTimeLayout renders yyyyMMdd_HHmmss.
const batchTimeLayout = "20060102_150405"

// ClipDirs resolves the directory holding a job's clips.
type ClipDirs interface {
	ClipDir(jobID string) string
}

// Builder plans archives from the job store and the clip directories.
type Builder struct {
	store  jobs.Store
	dirs   ClipDirs
	logger *slog.Logger
}

func NewBuilder(store jobs.Store, dirs ClipDirs, logger *slog.Logger) *Builder {
	return &Builder{
		store:  store,
		dirs:   dirs,
		logger: logging.WithComponent(logger, "archive"),
	}
}

// PlanSingle plans clips_{jobID}.zip. It fails with ErrNotFound only when the
// clip directory is missing; a job the store no longer knows is still
// archived by listing its directory, titled with its id.
func (b *Builder) PlanSingle(jobID string) (*Plan, error) {
	if !jobs.ValidID(jobID) {
		return nil, ErrNotFound
	}
	clipDir := b.dirs.ClipDir(jobID)
	if !isDir(clipDir) {
		return nil, ErrNotFound
	}

	job, ok := b.store.Get(jobID)
	root := folderTitle(job, jobID)

	p := &Plan{
		fileName:     fmt.Sprintf("clips_%s.zip", jobID),
		manifestName: ManifestName,
	}

	var entries []Entry
	if ok && job.HasSegmentMetadata() {
		entries, _ = segmentEntries(job, clipDir, root)
	}
	if len(entries) == 0 {
		var err error
		entries, err = dirEntries(jobID, clipDir, root)
		if err != nil {
			return nil, fmt.Errorf("list clips: %w", err)
		}
	}
	p.entries = entries

	b.logger.Info("single archive planned",
		"job_id", jobID,
		"files", len(p.entries),
		"size", humanize.Bytes(uint64(p.Size())),
	)
	return p, nil
}

// PlanBatch plans ALL_{now}.zip over jobIDs, in order. It never fails: jobs
// that are unknown, unfinished, or missing clips are reported in
// {root}/_errors.txt.
func (b *Builder) PlanBatch(jobIDs []string, now time.Time) *Plan {
	rootDir := "ALL_" + now.Format(batchTimeLayout)
	p := &Plan{
		fileName:     rootDir + ".zip",
		manifestName: path.Join(rootDir, ManifestName),
	}

	seen := make(map[string]bool)
	usedTitles := make(map[string]bool)

	for _, id := range jobIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		job, ok := b.lookup(id)
		if !ok {
			p.manifest = append(p.manifest, fmt.Sprintf("%s: job not found", id))
			continue
		}
		if job.State != jobs.StateDone {
			p.manifest = append(p.manifest, fmt.Sprintf("%s: state is %s", id, job.State))
			continue
		}

		clipDir := b.dirs.ClipDir(id)
		if !isDir(clipDir) {
			p.manifest = append(p.manifest, fmt.Sprintf("%s: clips not found", id))
			continue
		}

		title := folderTitle(job, id)
		if usedTitles[title] {
			title = title + "_" + id[:8]
		}
		usedTitles[title] = true
		entryRoot := path.Join(rootDir, title)

		if job.HasSegmentMetadata() {
			entries, missing := segmentEntries(job, clipDir, entryRoot)
			p.entries = append(p.entries, entries...)
			switch {
			case len(entries) == 0:
				p.manifest = append(p.manifest, fmt.Sprintf("%s: no clips found", id))
			case missing > 0:
				p.manifest = append(p.manifest, fmt.Sprintf("%s: %d clips missing", id, missing))
			}
			continue
		}

		entries, err := dirEntries(id, clipDir, entryRoot)
		if err != nil {
			b.logger.Warn("failed to list clips", "job_id", id, "error", err)
		}
		if len(entries) == 0 {
			p.manifest = append(p.manifest, fmt.Sprintf("%s: no clips found", id))
			continue
		}
		p.entries = append(p.entries, entries...)
	}

	b.logger.Info("batch archive planned",
		"jobs", len(seen),
		"files", len(p.entries),
		"problems", len(p.manifest),
		"size", humanize.Bytes(uint64(p.Size())),
	)
	return p
}

func (b *Builder) lookup(id string) (jobs.Job, bool) {
	if !jobs.ValidID(id) {
		return jobs.Job{}, false
	}
	return b.store.Get(id)
}

// segmentEntries checks each expected clip name individually and returns the
// present ones plus the number of absent ones.
func segmentEntries(job jobs.Job, clipDir, entryRoot string) ([]Entry, int) {
	var entries []Entry
	missing := 0
	for i, seg := range job.Segments {
		name := clipname.NameFor(seg, i)
		diskPath := filepath.Join(clipDir, name)

		info, err := os.Stat(diskPath)
		if err != nil || !info.Mode().IsRegular() {
			missing++
			continue
		}

		folder := UnflaggedFolder
		if seg.Flagged {
			folder = FlaggedFolder
		}
		entries = append(entries, Entry{
			JobID: job.ID,
			Name:  path.Join(entryRoot, folder, name),
			Path:  diskPath,
			Size:  info.Size(),
		})
	}
	return entries, missing
}

// dirEntries lists the regular files directly inside clipDir, sorted by name.
func dirEntries(jobID, clipDir, entryRoot string) ([]Entry, error) {
	des, err := os.ReadDir(clipDir)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, de := range des {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			JobID: jobID,
			Name:  path.Join(entryRoot, AllFolder, de.Name()),
			Path:  filepath.Join(clipDir, de.Name()),
			Size:  info.Size(),
		})
	}
	return entries, nil
}

// folderTitle is the sanitized source title, or the job id without one.
func folderTitle(job jobs.Job, jobID string) string {
	return clipname.SanitizeOr(job.SourceTitle, clipname.MaxFolderRunes, jobID)
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
