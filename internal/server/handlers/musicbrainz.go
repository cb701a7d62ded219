package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pmills/discobase/internal/logger"
	"github.com/pmills/discobase/internal/musicbrainz"
)

// MusicBrainz proxies release search and lookup so the album form can
// be pre-populated.
type MusicBrainz struct {
	Client *musicbrainz.Client
}

// Search returns up to 10 release candidates for a title and artist.
func (h *MusicBrainz) Search(c *gin.Context) {
	title := c.Query("title")
	artist := c.Query("artist")
	if title == "" || artist == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and artist are required"})
		return
	}

	candidates, err := h.Client.SearchReleases(c.Request.Context(), title, artist)
	if err != nil {
		logger.Warn("MusicBrainz search failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "MusicBrainz search failed"})
		return
	}
	c.JSON(http.StatusOK, candidates)
}

// Release returns the simplified release detail for one MBID.
func (h *MusicBrainz) Release(c *gin.Context) {
	mbid := c.Param("mbid")
	if mbid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mbid is required"})
		return
	}

	release, err := h.Client.GetRelease(c.Request.Context(), mbid)
	if err != nil {
		logger.Warn("MusicBrainz release lookup failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "MusicBrainz lookup failed"})
		return
	}
	c.JSON(http.StatusOK, release)
}
