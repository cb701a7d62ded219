// Package catalog implements the music-library services: albums,
// collections, musicians, personnel and shared lookup entities.
package catalog

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned on unique constraint conflicts.
var ErrDuplicate = errors.New("already exists")

// AlbumMusicianInput names a performer and the instrument played.
type AlbumMusicianInput struct {
	MusicianName string `json:"musician_name" binding:"required"`
	Instrument   string `json:"instrument" binding:"required"`
}

// AlbumPersonnelInput names a crew member and their role.
type AlbumPersonnelInput struct {
	PersonName string `json:"person_name" binding:"required"`
	Role       string `json:"role" binding:"required"`
}

// AlbumDetailInput names a detail value and its category.
type AlbumDetailInput struct {
	DetailName string `json:"detail_name" binding:"required"`
	DetailType string `json:"detail_type" binding:"required"`
}

// AlbumInput carries the fields for creating an album.
type AlbumInput struct {
	Title        string                `json:"title" binding:"required"`
	Artist       string                `json:"artist" binding:"required"`
	ReleaseYear  *int                  `json:"release_year"`
	Producer     *string               `json:"producer"`
	RecordLabel  *string               `json:"record_label"`
	Tracks       []string              `json:"tracks"`
	Musicians    []AlbumMusicianInput  `json:"musicians"`
	Personnel    []AlbumPersonnelInput `json:"personnel"`
	OtherDetails []AlbumDetailInput    `json:"other_details"`
}

// AlbumUpdate carries a partial update; nil fields are left untouched.
// The musician/personnel/detail lists replace the album's links wholesale
// when present.
type AlbumUpdate struct {
	Title        *string                `json:"title"`
	Artist       *string                `json:"artist"`
	ReleaseYear  *int                   `json:"release_year"`
	Producer     *string                `json:"producer"`
	RecordLabel  *string                `json:"record_label"`
	Tracks       *[]string              `json:"tracks"`
	Musicians    *[]AlbumMusicianInput  `json:"musicians"`
	Personnel    *[]AlbumPersonnelInput `json:"personnel"`
	OtherDetails *[]AlbumDetailInput    `json:"other_details"`
}

// AlbumFilter restricts ListAlbums; all set fields are combined with AND.
type AlbumFilter struct {
	MusicianID *uint
	Instrument string
	Artist     string
	Label      string
	Search     string
}

// NamedRef is an id/name pair used for musicians, persons and details.
type NamedRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// MusicianCredit is a performer entry on an album view.
type MusicianCredit struct {
	Musician   NamedRef `json:"musician"`
	Instrument string   `json:"instrument"`
}

// PersonnelCredit is a crew entry on an album view.
type PersonnelCredit struct {
	Person NamedRef `json:"person"`
	Role   string   `json:"role"`
}

// DetailEntry is a detail entry on an album view.
type DetailEntry struct {
	Detail     NamedRef `json:"detail"`
	DetailType string   `json:"detail_type"`
}

// AlbumView is the full API representation of an album.
type AlbumView struct {
	ID           uint              `json:"id"`
	Title        string            `json:"title"`
	Artist       string            `json:"artist"`
	ReleaseYear  *int              `json:"release_year"`
	Producer     *string           `json:"producer"`
	RecordLabel  *string           `json:"record_label"`
	Tracks       []string          `json:"tracks"`
	Musicians    []MusicianCredit  `json:"musicians"`
	Personnel    []PersonnelCredit `json:"personnel"`
	OtherDetails []DetailEntry     `json:"other_details"`
	ArtPath      *string           `json:"art_path"`
	CreatedAt    time.Time         `json:"created_at"`
}

// AlbumSummary is the compact representation used in collection listings.
type AlbumSummary struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	ReleaseYear *int    `json:"release_year"`
	RecordLabel *string `json:"record_label"`
	ArtPath     *string `json:"art_path"`
}

// CollectionInput carries the fields for creating a collection.
type CollectionInput struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// CollectionUpdate carries a partial collection update.
type CollectionUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CollectionView is the API representation of a collection with its albums.
type CollectionView struct {
	ID          uint           `json:"id"`
	UserID      uint           `json:"user_id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	Albums      []AlbumSummary `json:"albums"`
}

// ArtworkRemover deletes stored artwork files when albums are removed.
type ArtworkRemover interface {
	Remove(name string)
}
