package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pmills/discobase/internal/artwork"
	"github.com/pmills/discobase/internal/catalog"
	"github.com/pmills/discobase/internal/logger"
)

// Albums serves the album CRUD and artwork upload endpoints.
type Albums struct {
	Catalog *catalog.Service
	Artwork *artwork.Store
}

// List returns albums matching the query filters, AND-combined.
func (h *Albums) List(c *gin.Context) {
	filter := catalog.AlbumFilter{
		Instrument: c.Query("instrument"),
		Artist:     c.Query("artist"),
		Label:      c.Query("label"),
		Search:     c.Query("search"),
	}
	if raw := c.Query("musician_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid musician_id"})
			return
		}
		musicianID := uint(id)
		filter.MusicianID = &musicianID
	}

	albums, err := h.Catalog.ListAlbums(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list albums"})
		return
	}
	c.JSON(http.StatusOK, albums)
}

// Create adds a new album with its credit links.
func (h *Albums) Create(c *gin.Context) {
	var input catalog.AlbumInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	album, err := h.Catalog.CreateAlbum(input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create album"})
		return
	}
	c.JSON(http.StatusCreated, album)
}

// Get returns one album with full credits.
func (h *Albums) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	album, err := h.Catalog.GetAlbum(id)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "album not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load album"})
		return
	}
	c.JSON(http.StatusOK, album)
}

// Update applies a partial album update. Credit lists replace the
// album's links wholesale when present.
func (h *Albums) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var update catalog.AlbumUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	album, err := h.Catalog.UpdateAlbum(id, update)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "album not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update album"})
		return
	}
	c.JSON(http.StatusOK, album)
}

// Delete removes an album, its credit links and its artwork.
func (h *Albums) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.Catalog.DeleteAlbum(id)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "album not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete album"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAll wipes the whole album catalogue.
func (h *Albums) DeleteAll(c *gin.Context) {
	count, err := h.Catalog.DeleteAllAlbums()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete albums"})
		return
	}
	logger.Info("Deleted all %d albums", count)
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

// UploadArt accepts a multipart cover image for an album.
func (h *Albums) UploadArt(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	album, err := h.Catalog.GetAlbum(id)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "album not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load album"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}

	name, err := h.Artwork.SaveUpload(data)
	if errors.Is(err, artwork.ErrTooLarge) || errors.Is(err, artwork.ErrUnsupportedType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store artwork"})
		return
	}

	if err := h.Catalog.SetAlbumArt(id, name); err != nil {
		h.Artwork.Remove(name)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record artwork"})
		return
	}
	// Drop the previous file once the new one is recorded.
	if album.ArtPath != nil && *album.ArtPath != name {
		h.Artwork.Remove(*album.ArtPath)
	}
	c.JSON(http.StatusOK, gin.H{"art_path": name})
}
