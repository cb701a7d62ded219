package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pmills/discobase/internal/auth"
	"github.com/pmills/discobase/internal/catalog"
	"github.com/pmills/discobase/internal/enrich"
	"github.com/pmills/discobase/internal/importer"
)

// Enrich serves the metadata enrichment endpoints.
type Enrich struct {
	Enricher *enrich.Enricher
}

// Album starts a background enrichment of one album.
func (h *Enrich) Album(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.Enricher.StartAlbum(id)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "album not found"})
	case errors.Is(err, importer.ErrJobRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "Enrichment already in progress"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start enrichment"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"status": "starting"})
	}
}

// Collection starts a sequential enrichment of every album in a
// collection.
func (h *Enrich) Collection(c *gin.Context) {
	user := auth.CurrentUser(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	err := h.Enricher.StartCollection(id, user.ID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
	case errors.Is(err, importer.ErrJobRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "Enrichment already in progress"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start enrichment"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"status": "starting"})
	}
}

// Progress returns the current enrichment job snapshot.
func (h *Enrich) Progress(c *gin.Context) {
	c.JSON(http.StatusOK, h.Enricher.Job.Snapshot())
}

// Cancel requests cooperative cancellation of the running enrichment.
func (h *Enrich) Cancel(c *gin.Context) {
	h.Enricher.Job.Cancel()
	c.JSON(http.StatusAccepted, gin.H{"status": "cancellation requested"})
}
