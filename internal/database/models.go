package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User represents an account in the system
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // Don't include password hash in JSON responses
	CreatedAt    time.Time `json:"created_at"`
}

// RecordLabel is shared across albums and created on demand
type RecordLabel struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// Musician is a performer credited on albums
type Musician struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Person is a crew member (producer, engineer, ...) credited on albums
type Person struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Detail is a free-form album fact such as a recording studio
type Detail struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// TrackList stores an ordered list of track titles as a JSON column
type TrackList []string

// Value implements driver.Valuer
func (t TrackList) Value() (driver.Value, error) {
	if t == nil {
		t = TrackList{}
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (t *TrackList) Scan(value interface{}) error {
	if value == nil {
		*t = TrackList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported track list column type %T", value)
	}
}

// Album represents a catalogued release
type Album struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Title         string       `gorm:"not null;index" json:"title"`
	Artist        string       `gorm:"not null;index" json:"artist"`
	ReleaseYear   *int         `json:"release_year"`
	Producer      *string      `json:"producer"`
	RecordLabelID *uint        `json:"-"`
	RecordLabel   *RecordLabel `gorm:"constraint:OnDelete:SET NULL" json:"record_label,omitempty"`
	Tracks        TrackList    `gorm:"type:text" json:"tracks"`
	ArtPath       *string      `json:"art_path"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// AlbumMusician links an album to a musician with the instrument played
type AlbumMusician struct {
	AlbumID    uint   `gorm:"primaryKey;autoIncrement:false" json:"album_id"`
	MusicianID uint   `gorm:"primaryKey;autoIncrement:false" json:"musician_id"`
	Instrument string `gorm:"primaryKey" json:"instrument"`
}

// AlbumPersonnel links an album to a person with a crew role
type AlbumPersonnel struct {
	AlbumID  uint   `gorm:"primaryKey;autoIncrement:false" json:"album_id"`
	PersonID uint   `gorm:"primaryKey;autoIncrement:false" json:"person_id"`
	Role     string `gorm:"primaryKey" json:"role"`
}

// AlbumDetail links an album to a detail with a category
type AlbumDetail struct {
	AlbumID    uint   `gorm:"primaryKey;autoIncrement:false" json:"album_id"`
	DetailID   uint   `gorm:"primaryKey;autoIncrement:false" json:"detail_id"`
	DetailType string `gorm:"primaryKey" json:"detail_type"`
}

// Collection is a named, user-owned grouping of albums
type Collection struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:uq_collection_user_name" json:"user_id"`
	Name        string    `gorm:"not null;uniqueIndex:uq_collection_user_name" json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CollectionAlbum records album membership in a collection
type CollectionAlbum struct {
	CollectionID uint      `gorm:"primaryKey;autoIncrement:false" json:"collection_id"`
	AlbumID      uint      `gorm:"primaryKey;autoIncrement:false" json:"album_id"`
	AddedAt      time.Time `gorm:"autoCreateTime" json:"added_at"`
}

// AllModels lists every model for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&RecordLabel{},
		&Musician{},
		&Person{},
		&Detail{},
		&Album{},
		&AlbumMusician{},
		&AlbumPersonnel{},
		&AlbumDetail{},
		&Collection{},
		&CollectionAlbum{},
	}
}
