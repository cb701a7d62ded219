package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pmills/discobase/internal/catalog"
)

// Lookups serves the shared entity endpoints: musicians, persons and
// details, each with a list and a detail view grouping the albums they
// appear on.
type Lookups struct {
	Catalog *catalog.Service
}

// ListMusicians returns musicians, optionally filtered by name substring.
func (h *Lookups) ListMusicians(c *gin.Context) {
	musicians, err := h.Catalog.ListMusicians(c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list musicians"})
		return
	}
	c.JSON(http.StatusOK, musicians)
}

// GetMusician returns a musician and the albums they played on, with
// instruments grouped per album.
func (h *Lookups) GetMusician(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	musician, albums, err := h.Catalog.GetMusician(id)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "musician not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load musician"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     musician.ID,
		"name":   musician.Name,
		"albums": albums,
	})
}

// ListPersons returns crew members, optionally filtered by name substring.
func (h *Lookups) ListPersons(c *gin.Context) {
	persons, err := h.Catalog.ListPersons(c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list persons"})
		return
	}
	c.JSON(http.StatusOK, persons)
}

// GetPerson returns a person and the albums they worked on, with roles
// grouped per album.
func (h *Lookups) GetPerson(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	person, albums, err := h.Catalog.GetPerson(id)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load person"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     person.ID,
		"name":   person.Name,
		"albums": albums,
	})
}

// ListDetails returns detail values, optionally filtered by name substring.
func (h *Lookups) ListDetails(c *gin.Context) {
	details, err := h.Catalog.ListDetails(c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list details"})
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetDetail returns a detail value and the albums carrying it.
func (h *Lookups) GetDetail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, albums, err := h.Catalog.GetDetail(id)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "detail not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load detail"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     detail.ID,
		"name":   detail.Name,
		"albums": albums,
	})
}
