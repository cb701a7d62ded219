package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/pmills/discobase/internal/artwork"
	"github.com/pmills/discobase/internal/catalog"
	"github.com/pmills/discobase/internal/logger"
	"github.com/pmills/discobase/internal/musicbrainz"
	"github.com/pmills/discobase/internal/roon"
)

// RoonImporter pulls every album from a connected Roon Core into the
// catalogue.
type RoonImporter struct {
	Job *JobTracker

	client  *roon.Client
	applier *applier
}

// NewRoonImporter wires the importer to the Roon client and the
// services it stores albums through.
func NewRoonImporter(client *roon.Client, cat *catalog.Service, art *artwork.Store, mb *musicbrainz.Client) *RoonImporter {
	return &RoonImporter{
		Job:     NewJobTracker(),
		client:  client,
		applier: &applier{catalog: cat, art: art, mb: mb},
	}
}

// Start begins a background import. Returns ErrJobRunning when one is
// already active.
func (r *RoonImporter) Start(collectionID *uint) error {
	status := r.client.Status()
	if !status.Connected {
		return roon.ErrNotConnected
	}
	if !status.Authorized {
		return roon.ErrNotAuthorized
	}
	if err := r.Job.Begin(collectionID, ""); err != nil {
		return err
	}
	go r.run(context.Background())
	return nil
}

func (r *RoonImporter) run(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Roon import crashed: %v", rec)
			r.Job.Fail(fmt.Sprintf("import crashed: %v", rec))
		}
	}()

	r.Job.SetRunning()

	// Phase 1: collect the full album list.
	var all []roon.Item
	offset := 0
	pageSize := r.client.PageSize()
	for {
		if r.Job.Cancelled() {
			r.Job.MarkCancelled()
			return
		}
		items, total, err := r.client.LoadAlbumPage(ctx, offset)
		if err != nil {
			r.Job.Fail(fmt.Sprintf("failed to list albums: %v", err))
			return
		}
		if offset == 0 && total > 0 {
			r.Job.SetTotal(total)
		}
		all = append(all, items...)
		if len(items) < pageSize {
			break
		}
		offset += pageSize
	}

	// The actual item count is more accurate than the Core-reported one.
	r.Job.SetTotal(len(all))
	logger.Info("Roon import: %d albums to process", len(all))

	// Phase 2: import each album.
	for _, item := range all {
		if r.Job.Cancelled() {
			r.Job.MarkCancelled()
			return
		}

		title := strings.TrimSpace(item.Title)
		artist := strings.TrimSpace(item.Subtitle)

		// Action entries like "Play Album" carry no item key.
		if title == "" || item.ItemKey == "" {
			r.Job.Skipped()
			continue
		}
		r.Job.SetCurrent(fmt.Sprintf("%s - %s", artist, title))

		tracks, image, err := r.client.FetchAlbumDetail(ctx, item.ItemKey, item.ImageKey)
		if err != nil {
			logger.Warn("Roon import: failed '%s' by '%s': %v", title, artist, err)
			r.Job.ErrorItem(fmt.Sprintf("%s: %v", title, err))
			continue
		}

		scanned := ScannedAlbum{
			Title:  title,
			Artist: artist,
			Tracks: tracks,
			Image:  image,
		}
		if err := r.applier.apply(ctx, r.Job, scanned); err != nil {
			logger.Warn("Roon import: failed '%s' by '%s': %v", title, artist, err)
			r.Job.ErrorItem(fmt.Sprintf("%s: %v", title, err))
		}
	}

	r.Job.Finish()
	snap := r.Job.Snapshot()
	logger.Info("Roon import complete: imported=%d updated=%d skipped=%d errors=%d",
		snap.Imported, snap.Updated, snap.Skipped, snap.Errors)
}
