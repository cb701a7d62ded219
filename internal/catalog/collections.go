package catalog

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pmills/discobase/internal/database"
)

// CreateCollection inserts a collection owned by the given user.
func (s *Service) CreateCollection(userID uint, input CollectionInput) (*database.Collection, error) {
	collection := database.Collection{
		UserID:      userID,
		Name:        input.Name,
		Description: input.Description,
	}
	if err := s.db.Create(&collection).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return &collection, nil
}

// ListCollections returns all of a user's collections with album summaries.
func (s *Service) ListCollections(userID uint) ([]CollectionView, error) {
	var collections []database.Collection
	if err := s.db.Where("user_id = ?", userID).Order("id").Find(&collections).Error; err != nil {
		return nil, err
	}
	views := make([]CollectionView, 0, len(collections))
	for i := range collections {
		view, err := s.buildCollectionView(&collections[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// GetCollection returns one collection with album summaries, scoped to owner.
func (s *Service) GetCollection(id, userID uint) (*CollectionView, error) {
	collection, err := s.findOwned(id, userID)
	if err != nil {
		return nil, err
	}
	return s.buildCollectionView(collection)
}

func (s *Service) findOwned(id, userID uint) (*database.Collection, error) {
	var collection database.Collection
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

func (s *Service) buildCollectionView(collection *database.Collection) (*CollectionView, error) {
	view := &CollectionView{
		ID:          collection.ID,
		UserID:      collection.UserID,
		Name:        collection.Name,
		Description: collection.Description,
		CreatedAt:   collection.CreatedAt,
		Albums:      []AlbumSummary{},
	}

	var albums []database.Album
	err := s.db.Preload("RecordLabel").
		Joins("JOIN collection_albums ON collection_albums.album_id = albums.id").
		Where("collection_albums.collection_id = ?", collection.ID).
		Order("collection_albums.added_at").
		Find(&albums).Error
	if err != nil {
		return nil, err
	}

	for i := range albums {
		summary := AlbumSummary{
			ID:          albums[i].ID,
			Title:       albums[i].Title,
			Artist:      albums[i].Artist,
			ReleaseYear: albums[i].ReleaseYear,
			ArtPath:     albums[i].ArtPath,
		}
		if albums[i].RecordLabel != nil {
			summary.RecordLabel = &albums[i].RecordLabel.Name
		}
		view.Albums = append(view.Albums, summary)
	}
	return view, nil
}

// UpdateCollection applies a partial update, scoped to owner.
func (s *Service) UpdateCollection(id, userID uint, update CollectionUpdate) (*database.Collection, error) {
	collection, err := s.findOwned(id, userID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		collection.Name = *update.Name
	}
	if update.Description != nil {
		collection.Description = update.Description
	}
	if err := s.db.Save(collection).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update collection %d: %w", id, err)
	}
	return collection, nil
}

// DeleteCollection removes the collection and its membership rows. Member
// albums are never touched.
func (s *Service) DeleteCollection(id, userID uint) error {
	collection, err := s.findOwned(id, userID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", collection.ID).Delete(&database.CollectionAlbum{}).Error; err != nil {
			return err
		}
		return tx.Delete(&database.Collection{}, collection.ID).Error
	})
}

// AddAlbumToCollection creates a membership row; adding an album twice is a
// no-op.
func (s *Service) AddAlbumToCollection(collectionID, albumID, userID uint) error {
	if _, err := s.findOwned(collectionID, userID); err != nil {
		return err
	}
	var album database.Album
	if err := s.db.First(&album, albumID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	link := database.CollectionAlbum{CollectionID: collectionID, AlbumID: albumID}
	return s.db.Where("collection_id = ? AND album_id = ?", collectionID, albumID).
		FirstOrCreate(&link).Error
}

// LinkAlbumToCollection creates a membership row without ownership
// checks. Import jobs use it after the starting handler has already
// verified the collection belongs to the caller.
func (s *Service) LinkAlbumToCollection(collectionID, albumID uint) error {
	link := database.CollectionAlbum{CollectionID: collectionID, AlbumID: albumID}
	return s.db.Where("collection_id = ? AND album_id = ?", collectionID, albumID).
		FirstOrCreate(&link).Error
}

// RemoveAlbumFromCollection deletes only the membership row; the album row
// is untouched.
func (s *Service) RemoveAlbumFromCollection(collectionID, albumID, userID uint) error {
	if _, err := s.findOwned(collectionID, userID); err != nil {
		return err
	}
	res := s.db.Where("collection_id = ? AND album_id = ?", collectionID, albumID).
		Delete(&database.CollectionAlbum{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAlbumsInCollection permanently deletes every album that belongs to
// the collection: the album rows themselves, not just the membership. This
// is deliberately asymmetric with RemoveAlbumFromCollection.
func (s *Service) DeleteAlbumsInCollection(collectionID, userID uint) (int, error) {
	if _, err := s.findOwned(collectionID, userID); err != nil {
		return 0, err
	}

	var albums []database.Album
	err := s.db.Joins("JOIN collection_albums ON collection_albums.album_id = albums.id").
		Where("collection_albums.collection_id = ?", collectionID).
		Find(&albums).Error
	if err != nil {
		return 0, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i := range albums {
			if err := s.deleteAlbumRow(tx, &albums[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete albums in collection %d: %w", collectionID, err)
	}
	return len(albums), nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
