package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dhowden/tag"

	"github.com/pmills/discobase/internal/artwork"
	"github.com/pmills/discobase/internal/catalog"
	"github.com/pmills/discobase/internal/logger"
	"github.com/pmills/discobase/internal/musicbrainz"
)

// audioExtensions are the file types the scanner treats as audio.
var audioExtensions = map[string]bool{
	".flac": true,
	".mp3":  true,
	".m4a":  true,
	".aiff": true,
	".aif":  true,
	".ogg":  true,
	".wav":  true,
}

// coverNames are the artwork filenames checked inside an album
// directory, in preference order.
var coverNames = []string{
	"cover.jpg", "cover.jpeg",
	"folder.jpg", "folder.jpeg",
	"front.jpg", "front.jpeg",
	"albumart.jpg", "albumart.jpeg",
	"AlbumArt.jpg",
	"cover.png", "folder.png",
}

// FileImporter scans a directory tree for audio files, groups them by
// album directory and imports the albums.
type FileImporter struct {
	Job *JobTracker

	// WatchChanges enables the post-scan filesystem watcher.
	WatchChanges bool

	applier *applier

	watcherMu sync.Mutex
	watcher   *scanWatcher

	// scanDir extracts album data from one directory; replaced in tests.
	scanDir func(dir string) (*ScannedAlbum, error)
}

// NewFileImporter wires the scanner to the services it stores albums
// through.
func NewFileImporter(cat *catalog.Service, art *artwork.Store, mb *musicbrainz.Client) *FileImporter {
	f := &FileImporter{
		Job:     NewJobTracker(),
		applier: &applier{catalog: cat, art: art, mb: mb},
	}
	f.scanDir = scanAlbumDir
	return f
}

// Start begins a background scan of rootPath. Returns ErrJobRunning
// when a scan is already active and an error when rootPath is not an
// accessible directory.
func (f *FileImporter) Start(rootPath string, collectionID *uint) error {
	info, err := os.Stat(rootPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("directory not found or not accessible: %s", rootPath)
	}
	if err := f.Job.Begin(collectionID, rootPath); err != nil {
		return err
	}
	f.stopWatcher()
	go f.run(rootPath)
	return nil
}

func (f *FileImporter) run(rootPath string) {
	ctx := context.Background()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("File import crashed: %v", rec)
			f.Job.Fail(fmt.Sprintf("import crashed: %v", rec))
		}
	}()

	f.Job.SetRunning()

	albumDirs, err := findAlbumDirs(rootPath)
	if err != nil {
		f.Job.Fail(fmt.Sprintf("failed to scan %s: %v", rootPath, err))
		return
	}
	f.Job.SetTotal(len(albumDirs))
	logger.Info("File import: found %d album directories under %s", len(albumDirs), rootPath)

	for _, dir := range albumDirs {
		if f.Job.Cancelled() {
			f.Job.MarkCancelled()
			return
		}
		f.Job.SetCurrent(filepath.Base(dir))

		scanned, err := f.scanDir(dir)
		if err != nil {
			logger.Warn("File import: failed directory '%s': %v", dir, err)
			f.Job.ErrorItem(fmt.Sprintf("%s: %v", filepath.Base(dir), err))
			continue
		}
		if scanned == nil {
			f.Job.Skipped()
			continue
		}

		if err := f.applier.apply(ctx, f.Job, *scanned); err != nil {
			logger.Warn("File import: failed directory '%s': %v", dir, err)
			f.Job.ErrorItem(fmt.Sprintf("%s: %v", filepath.Base(dir), err))
		}
	}

	// The watcher goes up before the job turns terminal so a Start that
	// observes done always finds it through stopWatcher.
	if f.WatchChanges {
		f.startWatcher(rootPath, albumDirs)
	}

	f.Job.Finish()
	snap := f.Job.Snapshot()
	logger.Info("File import complete: imported=%d updated=%d skipped=%d errors=%d",
		snap.Imported, snap.Updated, snap.Skipped, snap.Errors)
}

// findAlbumDirs returns every directory under root that directly
// contains at least one audio file, sorted by path.
func findAlbumDirs(root string) ([]string, error) {
	seen := make(map[string]bool)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			logger.Debug("File import: skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if audioExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			seen[filepath.Dir(path)] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// scanAlbumDir extracts album metadata from a directory of audio
// files. Returns nil when the directory holds no readable audio.
func scanAlbumDir(dir string) (*ScannedAlbum, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var audioFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			audioFiles = append(audioFiles, filepath.Join(dir, entry.Name()))
		}
	}
	if len(audioFiles) == 0 {
		return nil, nil
	}
	sort.Strings(audioFiles)

	scanned := &ScannedAlbum{
		Title:  filepath.Base(dir),
		Artist: "Unknown",
	}

	// Album-level metadata comes from the first audio file.
	first, err := readTags(audioFiles[0])
	if err == nil {
		if album := strings.TrimSpace(first.Album()); album != "" {
			scanned.Title = album
		}
		if artist := strings.TrimSpace(first.AlbumArtist()); artist != "" {
			scanned.Artist = artist
		} else if artist := strings.TrimSpace(first.Artist()); artist != "" {
			scanned.Artist = artist
		}
		if year := first.Year(); year > 0 {
			scanned.ReleaseYear = &year
		}
		scanned.RecordLabel = labelFromRaw(first)
	}

	for _, path := range audioFiles {
		title := fileStem(path)
		meta, err := readTags(path)
		if err == nil {
			if t := strings.TrimSpace(meta.Title()); t != "" {
				title = t
			}
			if scanned.Image == nil {
				if pic := meta.Picture(); pic != nil && len(pic.Data) > 0 {
					scanned.Image = pic.Data
				}
			}
		}
		scanned.Tracks = append(scanned.Tracks, title)
	}

	if scanned.Image == nil {
		scanned.Image = findCoverFile(dir, entries)
	}
	return scanned, nil
}

func readTags(path string) (tag.Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return tag.ReadFrom(file)
}

// labelFromRaw digs the record label out of the raw tag map, which
// uses Vorbis Comment names for FLAC/OGG and ID3 frames for MP3.
func labelFromRaw(meta tag.Metadata) string {
	for _, key := range []string{"ORGANIZATION", "organization", "LABEL", "label", "PUBLISHER", "publisher", "TPUB"} {
		if val, ok := meta.Raw()[key]; ok {
			if s, ok := val.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// findCoverFile looks for known cover filenames, then falls back to
// any JPEG or PNG in the directory.
func findCoverFile(dir string, entries []os.DirEntry) []byte {
	for _, name := range coverNames {
		if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
			return data
		}
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			if data, err := os.ReadFile(filepath.Join(dir, entry.Name())); err == nil {
				return data
			}
		}
	}
	return nil
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
