// Package enrich fills in album credits from MusicBrainz release data.
//
// Enrichment is additive, merge and append only:
//   - Producer, release year and label are set only when currently absent.
//   - Tracks are set only when the album has none.
//   - Musicians are appended only when the name is not already credited.
//     Dedup is by name only so one musician never appears twice.
//   - Personnel are appended only for new (name, role) pairs.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/pmills/discobase/internal/catalog"
	"github.com/pmills/discobase/internal/importer"
	"github.com/pmills/discobase/internal/logger"
	"github.com/pmills/discobase/internal/musicbrainz"
)

// Enricher runs background enrichment jobs over the catalogue.
type Enricher struct {
	Job *importer.JobTracker

	catalog *catalog.Service
	mb      *musicbrainz.Client
}

// NewEnricher wires the enricher to the catalogue and the MusicBrainz
// client.
func NewEnricher(cat *catalog.Service, mb *musicbrainz.Client) *Enricher {
	return &Enricher{
		Job:     importer.NewJobTracker(),
		catalog: cat,
		mb:      mb,
	}
}

// StartAlbum begins a background enrichment of a single album.
func (e *Enricher) StartAlbum(albumID uint) error {
	album, err := e.catalog.GetAlbum(albumID)
	if err != nil {
		return err
	}
	if err := e.Job.Begin(nil, ""); err != nil {
		return err
	}
	go e.run(context.Background(), []catalog.AlbumSummary{{
		ID:     album.ID,
		Title:  album.Title,
		Artist: album.Artist,
	}})
	return nil
}

// StartCollection begins a background enrichment of every album in the
// collection, processed sequentially.
func (e *Enricher) StartCollection(collectionID, userID uint) error {
	view, err := e.catalog.GetCollection(collectionID, userID)
	if err != nil {
		return err
	}
	if err := e.Job.Begin(nil, ""); err != nil {
		return err
	}
	go e.run(context.Background(), view.Albums)
	return nil
}

func (e *Enricher) run(ctx context.Context, albums []catalog.AlbumSummary) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Enrichment crashed: %v", rec)
			e.Job.Fail(fmt.Sprintf("enrichment crashed: %v", rec))
		}
	}()

	e.Job.SetRunning()
	e.Job.SetTotal(len(albums))

	for _, album := range albums {
		if e.Job.Cancelled() {
			e.Job.MarkCancelled()
			return
		}
		e.Job.SetCurrent(fmt.Sprintf("%s - %s", album.Title, album.Artist))

		enriched, err := e.enrichOne(ctx, album.ID)
		switch {
		case err != nil:
			logger.Warn("Enrichment failed for album %d (%s): %v", album.ID, album.Title, err)
			e.Job.ErrorItem(fmt.Sprintf("%s: %v", album.Title, err))
		case enriched:
			e.Job.Updated()
		default:
			e.Job.Skipped()
		}
	}

	e.Job.Finish()
	snap := e.Job.Snapshot()
	logger.Info("Enrichment complete: enriched=%d skipped=%d errors=%d",
		snap.Updated, snap.Skipped, snap.Errors)
}

// enrichOne looks the album up on MusicBrainz and merges the release
// data in. Returns false when no release matched or nothing new was
// found.
func (e *Enricher) enrichOne(ctx context.Context, albumID uint) (bool, error) {
	album, err := e.catalog.GetAlbum(albumID)
	if err != nil {
		return false, err
	}

	candidates, err := e.mb.SearchReleases(ctx, album.Title, album.Artist)
	if err != nil {
		return false, err
	}
	if len(candidates) == 0 || candidates[0].MBID == "" {
		return false, nil
	}
	release, err := e.mb.GetRelease(ctx, candidates[0].MBID)
	if err != nil {
		return false, err
	}

	update, changed := buildUpdate(album, release)
	if !changed {
		return false, nil
	}
	if _, err := e.catalog.UpdateAlbum(albumID, update); err != nil {
		return false, err
	}
	return true, nil
}

// buildUpdate computes the additive update for an album from a
// MusicBrainz release.
func buildUpdate(album *catalog.AlbumView, release *musicbrainz.ReleaseDetail) (catalog.AlbumUpdate, bool) {
	var update catalog.AlbumUpdate
	changed := false

	if album.ReleaseYear == nil && release.Year != nil {
		update.ReleaseYear = release.Year
		changed = true
	}
	if album.RecordLabel == nil && release.Label != "" {
		label := release.Label
		update.RecordLabel = &label
		changed = true
	}
	if len(album.Tracks) == 0 && len(release.Tracks) > 0 {
		tracks := release.Tracks
		update.Tracks = &tracks
		changed = true
	}

	musicians, personnel, producer := splitRelations(release.Relations)

	if album.Producer == nil && producer != "" {
		update.Producer = &producer
		changed = true
	}
	if merged, grew := mergeMusicians(album.Musicians, musicians); grew {
		update.Musicians = &merged
		changed = true
	}
	if merged, grew := mergePersonnel(album.Personnel, personnel); grew {
		update.Personnel = &merged
		changed = true
	}
	return update, changed
}

// splitRelations sorts release artist relations into performer credits
// and crew credits, and picks the first producer name.
func splitRelations(relations []musicbrainz.Relation) ([]catalog.AlbumMusicianInput, []catalog.AlbumPersonnelInput, string) {
	var musicians []catalog.AlbumMusicianInput
	var personnel []catalog.AlbumPersonnelInput
	producer := ""

	for _, rel := range relations {
		if rel.Artist == nil || rel.Artist.Name == "" {
			continue
		}
		switch rel.Type {
		case "instrument":
			instrument := strings.Join(rel.Attributes, ", ")
			if instrument == "" {
				instrument = "performer"
			}
			musicians = append(musicians, catalog.AlbumMusicianInput{
				MusicianName: rel.Artist.Name,
				Instrument:   instrument,
			})
		case "vocal":
			instrument := strings.Join(rel.Attributes, ", ")
			if instrument == "" {
				instrument = "vocals"
			}
			musicians = append(musicians, catalog.AlbumMusicianInput{
				MusicianName: rel.Artist.Name,
				Instrument:   instrument,
			})
		case "producer":
			if producer == "" {
				producer = rel.Artist.Name
			}
			personnel = append(personnel, catalog.AlbumPersonnelInput{
				PersonName: rel.Artist.Name,
				Role:       "Producer",
			})
		default:
			personnel = append(personnel, catalog.AlbumPersonnelInput{
				PersonName: rel.Artist.Name,
				Role:       roleFromType(rel.Type, rel.Attributes),
			})
		}
	}
	return musicians, personnel, producer
}

// roleFromType turns a MusicBrainz relation type like "mix" or
// "mastering" into a display role.
func roleFromType(relType string, attributes []string) string {
	role := capitalize(relType)
	switch relType {
	case "mix":
		role = "Mix Engineer"
	case "mastering":
		role = "Mastering Engineer"
	case "recording":
		role = "Recording Engineer"
	case "engineer":
		role = "Engineer"
	}
	if len(attributes) > 0 {
		role = capitalize(strings.Join(attributes, ", ")) + " " + role
	}
	return role
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// mergeMusicians appends credits whose musician name is not already
// present, comparing case-insensitively. Reports whether the list
// grew.
func mergeMusicians(existing []catalog.MusicianCredit, additions []catalog.AlbumMusicianInput) ([]catalog.AlbumMusicianInput, bool) {
	merged := make([]catalog.AlbumMusicianInput, 0, len(existing)+len(additions))
	seen := make(map[string]bool)
	for _, credit := range existing {
		merged = append(merged, catalog.AlbumMusicianInput{
			MusicianName: credit.Musician.Name,
			Instrument:   credit.Instrument,
		})
		seen[strings.ToLower(credit.Musician.Name)] = true
	}
	grew := false
	for _, add := range additions {
		key := strings.ToLower(add.MusicianName)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, add)
		grew = true
	}
	return merged, grew
}

// mergePersonnel appends credits for new (name, role) pairs, comparing
// case-insensitively. Reports whether the list grew.
func mergePersonnel(existing []catalog.PersonnelCredit, additions []catalog.AlbumPersonnelInput) ([]catalog.AlbumPersonnelInput, bool) {
	merged := make([]catalog.AlbumPersonnelInput, 0, len(existing)+len(additions))
	seen := make(map[string]bool)
	for _, credit := range existing {
		merged = append(merged, catalog.AlbumPersonnelInput{
			PersonName: credit.Person.Name,
			Role:       credit.Role,
		})
		seen[strings.ToLower(credit.Person.Name)+"|"+strings.ToLower(credit.Role)] = true
	}
	grew := false
	for _, add := range additions {
		key := strings.ToLower(add.PersonName) + "|" + strings.ToLower(add.Role)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, add)
		grew = true
	}
	return merged, grew
}
