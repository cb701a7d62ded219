package catalog

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pmills/discobase/internal/database"
)

// CreateAlbum inserts an album with its credit links inside one transaction.
func (s *Service) CreateAlbum(input AlbumInput) (*AlbumView, error) {
	var albumID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		album := database.Album{
			Title:       input.Title,
			Artist:      input.Artist,
			ReleaseYear: input.ReleaseYear,
			Producer:    input.Producer,
			Tracks:      database.TrackList(input.Tracks),
		}
		if input.RecordLabel != nil && *input.RecordLabel != "" {
			label, err := s.GetOrCreateRecordLabel(tx, *input.RecordLabel)
			if err != nil {
				return err
			}
			album.RecordLabelID = &label.ID
		}
		if err := tx.Create(&album).Error; err != nil {
			return err
		}
		if err := s.setMusicianLinks(tx, album.ID, input.Musicians); err != nil {
			return err
		}
		if err := s.setPersonnelLinks(tx, album.ID, input.Personnel); err != nil {
			return err
		}
		if err := s.setDetailLinks(tx, album.ID, input.OtherDetails); err != nil {
			return err
		}
		albumID = album.ID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create album: %w", err)
	}
	return s.GetAlbum(albumID)
}

// UpdateAlbum applies a partial update; credit lists replace links wholesale.
func (s *Service) UpdateAlbum(id uint, update AlbumUpdate) (*AlbumView, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var album database.Album
		if err := tx.First(&album, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if update.Title != nil {
			album.Title = *update.Title
		}
		if update.Artist != nil {
			album.Artist = *update.Artist
		}
		if update.ReleaseYear != nil {
			album.ReleaseYear = update.ReleaseYear
		}
		if update.Producer != nil {
			album.Producer = update.Producer
		}
		if update.RecordLabel != nil {
			label, err := s.GetOrCreateRecordLabel(tx, *update.RecordLabel)
			if err != nil {
				return err
			}
			album.RecordLabelID = &label.ID
		}
		if update.Tracks != nil {
			album.Tracks = database.TrackList(*update.Tracks)
		}
		if err := tx.Save(&album).Error; err != nil {
			return err
		}

		if update.Musicians != nil {
			if err := s.replaceMusicianLinks(tx, id, *update.Musicians); err != nil {
				return err
			}
		}
		if update.Personnel != nil {
			if err := s.replacePersonnelLinks(tx, id, *update.Personnel); err != nil {
				return err
			}
		}
		if update.OtherDetails != nil {
			if err := s.replaceDetailLinks(tx, id, *update.OtherDetails); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update album %d: %w", id, err)
	}
	return s.GetAlbum(id)
}

func (s *Service) setMusicianLinks(tx *gorm.DB, albumID uint, inputs []AlbumMusicianInput) error {
	for _, in := range inputs {
		musician, err := s.GetOrCreateMusician(tx, in.MusicianName)
		if err != nil {
			return err
		}
		link := database.AlbumMusician{AlbumID: albumID, MusicianID: musician.ID, Instrument: in.Instrument}
		if err := tx.Where(&link).FirstOrCreate(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) replaceMusicianLinks(tx *gorm.DB, albumID uint, inputs []AlbumMusicianInput) error {
	if err := tx.Where("album_id = ?", albumID).Delete(&database.AlbumMusician{}).Error; err != nil {
		return err
	}
	return s.setMusicianLinks(tx, albumID, inputs)
}

func (s *Service) setPersonnelLinks(tx *gorm.DB, albumID uint, inputs []AlbumPersonnelInput) error {
	for _, in := range inputs {
		person, err := s.GetOrCreatePerson(tx, in.PersonName)
		if err != nil {
			return err
		}
		link := database.AlbumPersonnel{AlbumID: albumID, PersonID: person.ID, Role: in.Role}
		if err := tx.Where(&link).FirstOrCreate(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) replacePersonnelLinks(tx *gorm.DB, albumID uint, inputs []AlbumPersonnelInput) error {
	if err := tx.Where("album_id = ?", albumID).Delete(&database.AlbumPersonnel{}).Error; err != nil {
		return err
	}
	return s.setPersonnelLinks(tx, albumID, inputs)
}

func (s *Service) setDetailLinks(tx *gorm.DB, albumID uint, inputs []AlbumDetailInput) error {
	for _, in := range inputs {
		detail, err := s.GetOrCreateDetail(tx, in.DetailName)
		if err != nil {
			return err
		}
		link := database.AlbumDetail{AlbumID: albumID, DetailID: detail.ID, DetailType: in.DetailType}
		if err := tx.Where(&link).FirstOrCreate(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) replaceDetailLinks(tx *gorm.DB, albumID uint, inputs []AlbumDetailInput) error {
	if err := tx.Where("album_id = ?", albumID).Delete(&database.AlbumDetail{}).Error; err != nil {
		return err
	}
	return s.setDetailLinks(tx, albumID, inputs)
}

// GetAlbum loads an album and its credit links into an AlbumView.
func (s *Service) GetAlbum(id uint) (*AlbumView, error) {
	var album database.Album
	err := s.db.Preload("RecordLabel").First(&album, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.buildAlbumView(&album)
}

func (s *Service) buildAlbumView(album *database.Album) (*AlbumView, error) {
	view := &AlbumView{
		ID:           album.ID,
		Title:        album.Title,
		Artist:       album.Artist,
		ReleaseYear:  album.ReleaseYear,
		Producer:     album.Producer,
		Tracks:       []string(album.Tracks),
		Musicians:    []MusicianCredit{},
		Personnel:    []PersonnelCredit{},
		OtherDetails: []DetailEntry{},
		ArtPath:      album.ArtPath,
		CreatedAt:    album.CreatedAt,
	}
	if view.Tracks == nil {
		view.Tracks = []string{}
	}
	if album.RecordLabel != nil {
		view.RecordLabel = &album.RecordLabel.Name
	}

	var musicianLinks []database.AlbumMusician
	if err := s.db.Where("album_id = ?", album.ID).Find(&musicianLinks).Error; err != nil {
		return nil, err
	}
	for _, link := range musicianLinks {
		var m database.Musician
		if err := s.db.First(&m, link.MusicianID).Error; err != nil {
			continue
		}
		view.Musicians = append(view.Musicians, MusicianCredit{
			Musician:   NamedRef{ID: m.ID, Name: m.Name},
			Instrument: link.Instrument,
		})
	}

	var personnelLinks []database.AlbumPersonnel
	if err := s.db.Where("album_id = ?", album.ID).Find(&personnelLinks).Error; err != nil {
		return nil, err
	}
	for _, link := range personnelLinks {
		var p database.Person
		if err := s.db.First(&p, link.PersonID).Error; err != nil {
			continue
		}
		view.Personnel = append(view.Personnel, PersonnelCredit{
			Person: NamedRef{ID: p.ID, Name: p.Name},
			Role:   link.Role,
		})
	}

	var detailLinks []database.AlbumDetail
	if err := s.db.Where("album_id = ?", album.ID).Find(&detailLinks).Error; err != nil {
		return nil, err
	}
	for _, link := range detailLinks {
		var d database.Detail
		if err := s.db.First(&d, link.DetailID).Error; err != nil {
			continue
		}
		view.OtherDetails = append(view.OtherDetails, DetailEntry{
			Detail:     NamedRef{ID: d.ID, Name: d.Name},
			DetailType: link.DetailType,
		})
	}
	return view, nil
}

// ListAlbums returns album views matching the filter; all filter fields are
// combined with AND.
func (s *Service) ListAlbums(filter AlbumFilter) ([]AlbumView, error) {
	q := s.db.Model(&database.Album{}).Preload("RecordLabel").Distinct("albums.*")

	if filter.MusicianID != nil {
		q = q.Joins("JOIN album_musicians ON album_musicians.album_id = albums.id").
			Where("album_musicians.musician_id = ?", *filter.MusicianID)
		if filter.Instrument != "" {
			q = q.Where("album_musicians.instrument = ?", filter.Instrument)
		}
	} else if filter.Instrument != "" {
		q = q.Joins("JOIN album_musicians ON album_musicians.album_id = albums.id").
			Where("album_musicians.instrument = ?", filter.Instrument)
	}

	if filter.Artist != "" {
		q = q.Where("LOWER(albums.artist) LIKE ?", "%"+strings.ToLower(filter.Artist)+"%")
	}
	if filter.Label != "" {
		q = q.Joins("JOIN record_labels ON record_labels.id = albums.record_label_id").
			Where("LOWER(record_labels.name) LIKE ?", "%"+strings.ToLower(filter.Label)+"%")
	}
	if filter.Search != "" {
		needle := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(albums.title) LIKE ? OR LOWER(albums.artist) LIKE ?", needle, needle)
	}

	var albums []database.Album
	if err := q.Order("albums.id").Find(&albums).Error; err != nil {
		return nil, err
	}

	views := make([]AlbumView, 0, len(albums))
	for i := range albums {
		view, err := s.buildAlbumView(&albums[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// FindAlbumByTitleArtist matches an album case-insensitively, used by the
// bulk importers to decide between create and update.
func (s *Service) FindAlbumByTitleArtist(title, artist string) (*database.Album, error) {
	var album database.Album
	err := s.db.
		Where("LOWER(title) = ? AND LOWER(artist) = ?", strings.ToLower(title), strings.ToLower(artist)).
		First(&album).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &album, nil
}

// SaveAlbum persists changes made to an album row.
func (s *Service) SaveAlbum(album *database.Album) error {
	return s.db.Save(album).Error
}

// SetAlbumArt records the stored artwork filename on an album.
func (s *Service) SetAlbumArt(id uint, filename string) error {
	res := s.db.Model(&database.Album{}).Where("id = ?", id).Update("art_path", filename)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAlbum removes an album, its credit and membership links, and its
// stored artwork.
func (s *Service) DeleteAlbum(id uint) error {
	var album database.Album
	if err := s.db.First(&album, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.deleteAlbumRow(tx, &album)
	})
	if err != nil {
		return fmt.Errorf("failed to delete album %d: %w", id, err)
	}
	return nil
}

// deleteAlbumRow removes an album and its links inside an open transaction.
func (s *Service) deleteAlbumRow(tx *gorm.DB, album *database.Album) error {
	if err := tx.Where("album_id = ?", album.ID).Delete(&database.AlbumMusician{}).Error; err != nil {
		return err
	}
	if err := tx.Where("album_id = ?", album.ID).Delete(&database.AlbumPersonnel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("album_id = ?", album.ID).Delete(&database.AlbumDetail{}).Error; err != nil {
		return err
	}
	if err := tx.Where("album_id = ?", album.ID).Delete(&database.CollectionAlbum{}).Error; err != nil {
		return err
	}
	if err := tx.Delete(&database.Album{}, album.ID).Error; err != nil {
		return err
	}
	if album.ArtPath != nil && s.artwork != nil {
		s.artwork.Remove(*album.ArtPath)
	}
	return nil
}

// DeleteAllAlbums removes every album in the database, returning the count.
func (s *Service) DeleteAllAlbums() (int, error) {
	var albums []database.Album
	if err := s.db.Find(&albums).Error; err != nil {
		return 0, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range albums {
			if err := s.deleteAlbumRow(tx, &albums[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete albums: %w", err)
	}
	return len(albums), nil
}
