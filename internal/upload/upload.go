package upload

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// hashWorkers bounds concurrent file hashing.
const hashWorkers = 4

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	SessionsSent  int
	SetsInserted  int64
	PersonalBests int
}

// Sender delivers one export to the server.
type Sender interface {
	SendExport(ctx context.Context, name string, data []byte) (*Result, error)
}

// Uploader walks a directory of Alpha Progression exports and POSTs every
// new or changed file to the LiftLog server.
type Uploader struct {
	client Sender
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client Sender, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dir:    dir,
		dryRun: dryRun,
		log:    log,
	}
}

// fileInfo tracks a file's metadata for state DB operations.
type fileInfo struct {
	path    string
	relPath string
	size    int64
	hash    string
	err     error
}

// Run executes the upload pipeline: list, hash concurrently, then upload
// sequentially in name order so the server sees exports oldest first.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := u.scan()
	if err != nil {
		return &u.stats, err
	}
	u.stats.FilesTotal = len(files)

	if err := hashFiles(ctx, files); err != nil {
		return &u.stats, err
	}

	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		if fi.err != nil {
			u.log.Warn("hash failed", "file", fi.relPath, "error", fi.err)
			u.stats.FilesErrored++
			continue
		}
		if err := u.process(ctx, fi); err != nil {
			u.log.Warn("upload failed", "file", fi.relPath, "error", err)
			u.stats.FilesErrored++
		}
	}
	return &u.stats, nil
}

func (u *Uploader) scan() ([]*fileInfo, error) {
	var files []*fileInfo
	err := filepath.WalkDir(u.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := strings.ToLower(d.Name())
		if d.IsDir() || !(strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".csv.gz")) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(u.dir, path)
		files = append(files, &fileInfo{path: path, relPath: rel, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", u.dir, err)
	}
	return files, nil
}

// hashFiles fills in each file's hash. Per-file failures are kept on the
// file; only cancellation aborts.
func hashFiles(ctx context.Context, files []*fileInfo) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(hashWorkers)
	for _, fi := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fi.hash, fi.err = HashFile(fi.path)
			return nil
		})
	}
	return g.Wait()
}

func (u *Uploader) process(ctx context.Context, fi *fileInfo) error {
	uploaded, err := u.state.IsUploaded(ctx, fi.relPath, fi.size, fi.hash)
	if err != nil {
		return err
	}
	if uploaded {
		u.stats.FilesSkipped++
		return nil
	}

	data, err := readExport(fi.path)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		u.stats.FilesSkipped++
		return u.state.MarkUploaded(ctx, fi.relPath, fi.size, fi.hash, 0)
	}

	if u.dryRun {
		u.log.Info("dry-run: would send", "file", fi.relPath, "bytes", len(data))
		u.stats.FilesUploaded++
		return nil
	}

	res, err := u.client.SendExport(ctx, filepath.Base(fi.relPath), data)
	if err != nil {
		return err
	}
	u.stats.FilesUploaded++
	u.stats.SessionsSent += res.SessionsInserted
	u.stats.SetsInserted += res.SetsInserted
	u.stats.PersonalBests += res.PersonalBests
	u.log.Info("uploaded export", "file", fi.relPath, "sessions", res.SessionsInserted, "sets", res.SetsInserted)

	return u.state.MarkUploaded(ctx, fi.relPath, fi.size, fi.hash, res.SessionsInserted)
}

// readExport returns the CSV bytes, decompressing ".gz" files.
func readExport(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gunzip %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
