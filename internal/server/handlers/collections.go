package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pmills/discobase/internal/auth"
	"github.com/pmills/discobase/internal/catalog"
	"github.com/pmills/discobase/internal/logger"
)

// Collections serves the per-user collection endpoints.
type Collections struct {
	Catalog *catalog.Service
}

// List returns the caller's collections with album summaries.
func (h *Collections) List(c *gin.Context) {
	user := auth.CurrentUser(c)
	views, err := h.Catalog.ListCollections(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list collections"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// Create adds a collection; names are unique per user.
func (h *Collections) Create(c *gin.Context) {
	user := auth.CurrentUser(c)
	var input catalog.CollectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	collection, err := h.Catalog.CreateCollection(user.ID, input)
	if errors.Is(err, catalog.ErrDuplicate) {
		c.JSON(http.StatusConflict, gin.H{"error": "a collection with that name already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create collection"})
		return
	}
	c.JSON(http.StatusCreated, collection)
}

// Get returns one collection with its albums.
func (h *Collections) Get(c *gin.Context) {
	user := auth.CurrentUser(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	view, err := h.Catalog.GetCollection(id, user.ID)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load collection"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Update renames or re-describes a collection.
func (h *Collections) Update(c *gin.Context) {
	user := auth.CurrentUser(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var update catalog.CollectionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	collection, err := h.Catalog.UpdateCollection(id, user.ID, update)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
	case errors.Is(err, catalog.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "a collection with that name already exists"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update collection"})
	default:
		c.JSON(http.StatusOK, collection)
	}
}

// Delete removes the collection and its membership rows. The albums
// themselves are untouched.
func (h *Collections) Delete(c *gin.Context) {
	user := auth.CurrentUser(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.Catalog.DeleteCollection(id, user.ID)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete collection"})
		return
	}
	c.Status(http.StatusNoContent)
}

// AddAlbum adds an album to the collection; adding twice is a no-op.
func (h *Collections) AddAlbum(c *gin.Context) {
	user := auth.CurrentUser(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	albumID, ok := parseID(c, "albumId")
	if !ok {
		return
	}
	err := h.Catalog.AddAlbumToCollection(id, albumID, user.ID)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection or album not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add album"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "added"})
}

// RemoveAlbum removes only the membership row.
func (h *Collections) RemoveAlbum(c *gin.Context) {
	user := auth.CurrentUser(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	albumID, ok := parseID(c, "albumId")
	if !ok {
		return
	}
	err := h.Catalog.RemoveAlbumFromCollection(id, albumID, user.ID)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection or album not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove album"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAlbums permanently deletes every album in the collection, not
// just the memberships.
func (h *Collections) DeleteAlbums(c *gin.Context) {
	user := auth.CurrentUser(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	count, err := h.Catalog.DeleteAlbumsInCollection(id, user.ID)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete albums"})
		return
	}
	logger.Info("Deleted %d albums from collection %d", count, id)
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}
