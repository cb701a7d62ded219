package catalog

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/pmills/discobase/internal/database"
)

// Service implements catalogue operations over the relational store.
type Service struct {
	db      *gorm.DB
	artwork ArtworkRemover
}

// NewService creates a catalog service. artwork may be nil; album deletions
// then leave any stored art files behind.
func NewService(db *gorm.DB, artwork ArtworkRemover) *Service {
	return &Service{db: db, artwork: artwork}
}

// DB exposes the underlying handle for composing queries elsewhere.
func (s *Service) DB() *gorm.DB {
	return s.db
}

// GetOrCreateMusician finds a musician by exact name or creates it.
func (s *Service) GetOrCreateMusician(tx *gorm.DB, name string) (*database.Musician, error) {
	var m database.Musician
	err := tx.Where("name = ?", name).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		m = database.Musician{Name: name}
		err = tx.Create(&m).Error
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetOrCreatePerson finds a person by exact name or creates it.
func (s *Service) GetOrCreatePerson(tx *gorm.DB, name string) (*database.Person, error) {
	var p database.Person
	err := tx.Where("name = ?", name).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = database.Person{Name: name}
		err = tx.Create(&p).Error
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOrCreateDetail finds a detail by exact name or creates it.
func (s *Service) GetOrCreateDetail(tx *gorm.DB, name string) (*database.Detail, error) {
	var d database.Detail
	err := tx.Where("name = ?", name).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d = database.Detail{Name: name}
		err = tx.Create(&d).Error
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetOrCreateRecordLabel finds a record label by exact name or creates it.
func (s *Service) GetOrCreateRecordLabel(tx *gorm.DB, name string) (*database.RecordLabel, error) {
	var l database.RecordLabel
	err := tx.Where("name = ?", name).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l = database.RecordLabel{Name: name}
		err = tx.Create(&l).Error
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListMusicians returns musicians ordered by name, optionally filtered by a
// case-insensitive substring.
func (s *Service) ListMusicians(search string) ([]database.Musician, error) {
	q := s.db.Order("name")
	if search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var out []database.Musician
	return out, q.Find(&out).Error
}

// ListPersons returns persons ordered by name, optionally filtered.
func (s *Service) ListPersons(search string) ([]database.Person, error) {
	q := s.db.Order("name")
	if search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var out []database.Person
	return out, q.Find(&out).Error
}

// ListDetails returns details ordered by name, optionally filtered.
func (s *Service) ListDetails(search string) ([]database.Detail, error) {
	q := s.db.Order("name")
	if search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var out []database.Detail
	return out, q.Find(&out).Error
}

// MusicianAlbums groups a musician's albums with the instruments played.
type MusicianAlbums struct {
	Album       AlbumView `json:"album"`
	Instruments []string  `json:"instruments"`
}

// GetMusician returns a musician and every album they perform on.
func (s *Service) GetMusician(id uint) (*database.Musician, []MusicianAlbums, error) {
	var m database.Musician
	if err := s.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var links []database.AlbumMusician
	if err := s.db.Where("musician_id = ?", id).Find(&links).Error; err != nil {
		return nil, nil, err
	}

	grouped := map[uint][]string{}
	order := []uint{}
	for _, link := range links {
		if _, seen := grouped[link.AlbumID]; !seen {
			order = append(order, link.AlbumID)
		}
		grouped[link.AlbumID] = append(grouped[link.AlbumID], link.Instrument)
	}

	out := make([]MusicianAlbums, 0, len(order))
	for _, albumID := range order {
		view, err := s.GetAlbum(albumID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, nil, err
		}
		out = append(out, MusicianAlbums{Album: *view, Instruments: grouped[albumID]})
	}
	return &m, out, nil
}

// PersonAlbums groups a person's albums with their roles.
type PersonAlbums struct {
	Album AlbumView `json:"album"`
	Roles []string  `json:"roles"`
}

// GetPerson returns a person and every album they are credited on.
func (s *Service) GetPerson(id uint) (*database.Person, []PersonAlbums, error) {
	var p database.Person
	if err := s.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var links []database.AlbumPersonnel
	if err := s.db.Where("person_id = ?", id).Find(&links).Error; err != nil {
		return nil, nil, err
	}

	grouped := map[uint][]string{}
	order := []uint{}
	for _, link := range links {
		if _, seen := grouped[link.AlbumID]; !seen {
			order = append(order, link.AlbumID)
		}
		grouped[link.AlbumID] = append(grouped[link.AlbumID], link.Role)
	}

	out := make([]PersonAlbums, 0, len(order))
	for _, albumID := range order {
		view, err := s.GetAlbum(albumID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, nil, err
		}
		out = append(out, PersonAlbums{Album: *view, Roles: grouped[albumID]})
	}
	return &p, out, nil
}

// DetailAlbums groups a detail's albums with the detail types it appears as.
type DetailAlbums struct {
	Album AlbumView `json:"album"`
	Types []string  `json:"types"`
}

// GetDetail returns a detail and every album that references it.
func (s *Service) GetDetail(id uint) (*database.Detail, []DetailAlbums, error) {
	var d database.Detail
	if err := s.db.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var links []database.AlbumDetail
	if err := s.db.Where("detail_id = ?", id).Find(&links).Error; err != nil {
		return nil, nil, err
	}

	grouped := map[uint][]string{}
	order := []uint{}
	for _, link := range links {
		if _, seen := grouped[link.AlbumID]; !seen {
			order = append(order, link.AlbumID)
		}
		grouped[link.AlbumID] = append(grouped[link.AlbumID], link.DetailType)
	}

	out := make([]DetailAlbums, 0, len(order))
	for _, albumID := range order {
		view, err := s.GetAlbum(albumID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, nil, err
		}
		out = append(out, DetailAlbums{Album: *view, Types: grouped[albumID]})
	}
	return &d, out, nil
}
