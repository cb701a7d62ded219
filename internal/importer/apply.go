package importer

import (
	"context"
	"errors"

	"github.com/pmills/discobase/internal/artwork"
	"github.com/pmills/discobase/internal/catalog"
	"github.com/pmills/discobase/internal/logger"
	"github.com/pmills/discobase/internal/musicbrainz"
)

// ScannedAlbum is the normalized album data both importers produce.
type ScannedAlbum struct {
	Title       string
	Artist      string
	ReleaseYear *int
	RecordLabel string
	Tracks      []string
	Image       []byte
}

// applier upserts scanned albums into the catalogue. Existing albums
// (matched case-insensitively by title and artist) are updated rather
// than skipped: tracks are refreshed, and release year, label and art
// are filled in only when previously absent.
type applier struct {
	catalog *catalog.Service
	art     *artwork.Store
	mb      *musicbrainz.Client
}

// apply stores one album and records the outcome on the tracker. It
// returns an error only when the caller should count the item as
// failed; outcomes are otherwise counted here.
func (a *applier) apply(ctx context.Context, job *JobTracker, scanned ScannedAlbum) error {
	var albumID uint
	var hasArt bool

	existing, err := a.catalog.FindAlbumByTitleArtist(scanned.Title, scanned.Artist)
	switch {
	case err == nil:
		existing.Tracks = scanned.Tracks
		if scanned.ReleaseYear != nil && existing.ReleaseYear == nil {
			existing.ReleaseYear = scanned.ReleaseYear
		}
		if scanned.RecordLabel != "" && existing.RecordLabelID == nil {
			label, err := a.catalog.GetOrCreateRecordLabel(a.catalog.DB(), scanned.RecordLabel)
			if err != nil {
				return err
			}
			existing.RecordLabelID = &label.ID
		}
		if len(scanned.Image) > 0 && existing.ArtPath == nil {
			if name, err := a.art.SaveDownloaded(existing.ID, scanned.Image); err == nil {
				existing.ArtPath = &name
			}
		}
		if err := a.catalog.SaveAlbum(existing); err != nil {
			return err
		}
		if err := a.linkCollection(job, existing.ID); err != nil {
			return err
		}
		albumID = existing.ID
		hasArt = existing.ArtPath != nil
		job.Updated()

	case errors.Is(err, catalog.ErrNotFound):
		input := catalog.AlbumInput{
			Title:       scanned.Title,
			Artist:      scanned.Artist,
			ReleaseYear: scanned.ReleaseYear,
			Tracks:      scanned.Tracks,
		}
		if scanned.RecordLabel != "" {
			label := scanned.RecordLabel
			input.RecordLabel = &label
		}
		created, err := a.catalog.CreateAlbum(input)
		if err != nil {
			return err
		}
		albumID = created.ID
		if len(scanned.Image) > 0 {
			if name, err := a.art.SaveDownloaded(created.ID, scanned.Image); err == nil {
				if err := a.catalog.SetAlbumArt(created.ID, name); err == nil {
					hasArt = true
				}
			}
		}
		if err := a.linkCollection(job, created.ID); err != nil {
			return err
		}
		job.Imported()

	default:
		return err
	}

	if !hasArt {
		a.coverArtFallback(ctx, albumID, scanned.Title, scanned.Artist)
	}
	return nil
}

func (a *applier) linkCollection(job *JobTracker, albumID uint) error {
	collectionID := job.CollectionID()
	if collectionID == nil {
		return nil
	}
	return a.catalog.LinkAlbumToCollection(*collectionID, albumID)
}

// coverArtFallback searches MusicBrainz for the album and downloads
// front cover art from the Cover Art Archive. Best effort: failures
// are logged at debug and do not fail the item.
func (a *applier) coverArtFallback(ctx context.Context, albumID uint, title, artist string) {
	candidates, err := a.mb.SearchReleases(ctx, title, artist)
	if err != nil || len(candidates) == 0 {
		if err != nil {
			logger.Debug("Cover art search failed for album %d: %v", albumID, err)
		}
		return
	}
	mbid := candidates[0].MBID
	if mbid == "" {
		return
	}
	data, err := a.mb.DownloadCoverArt(ctx, mbid)
	if err != nil {
		logger.Debug("Cover art download failed for album %d: %v", albumID, err)
		return
	}
	name, err := a.art.SaveDownloaded(albumID, data)
	if err != nil {
		logger.Debug("Cover art save failed for album %d: %v", albumID, err)
		return
	}
	if err := a.catalog.SetAlbumArt(albumID, name); err != nil {
		logger.Debug("Cover art record failed for album %d: %v", albumID, err)
		return
	}
	logger.Debug("Cover art saved for album %d (%s)", albumID, title)
}
