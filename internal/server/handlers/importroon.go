package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pmills/discobase/internal/auth"
	"github.com/pmills/discobase/internal/catalog"
	"github.com/pmills/discobase/internal/config"
	"github.com/pmills/discobase/internal/importer"
	"github.com/pmills/discobase/internal/roon"
)

// RoonImport serves the Roon connection and bulk import endpoints.
type RoonImport struct {
	Client   *roon.Client
	Importer *importer.RoonImporter
	Catalog  *catalog.Service
	Config   *config.RoonConfig
}

type roonConnectRequest struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type startImportRequest struct {
	CollectionID *uint `json:"collection_id"`
}

// Connect initiates a non-blocking connection to the Roon Core. The
// user then approves the extension in Roon > Settings > Extensions and
// polls Status until authorized.
func (h *RoonImport) Connect(c *gin.Context) {
	var req roonConnectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	host := req.Host
	if host == "" {
		host = h.Config.Host
	}
	port := req.Port
	if port == 0 {
		port = h.Config.Port
	}
	if host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Roon Core host is required"})
		return
	}

	h.Client.Connect(host, port)
	c.JSON(http.StatusAccepted, gin.H{
		"status": "connecting",
		"host":   host,
		"port":   port,
	})
}

// Status returns the current connection and authorization state.
func (h *RoonImport) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.Client.Status())
}

// Probe returns raw browse data for the first few albums so the
// available fields can be reviewed before a full import.
func (h *RoonImport) Probe(c *gin.Context) {
	count := 3
	if raw := c.Query("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			count = n
		}
	}

	result, err := h.Client.Probe(c.Request.Context(), count)
	switch {
	case errors.Is(err, roon.ErrNotConnected), errors.Is(err, roon.ErrNotAuthorized):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": "Roon probe failed: " + err.Error()})
	default:
		c.JSON(http.StatusOK, result)
	}
}

// Start begins a background import of the whole Roon library.
func (h *RoonImport) Start(c *gin.Context) {
	user := auth.CurrentUser(c)
	var req startImportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if req.CollectionID != nil {
		if _, err := h.Catalog.GetCollection(*req.CollectionID, user.ID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
			return
		}
	}

	err := h.Importer.Start(req.CollectionID)
	switch {
	case errors.Is(err, importer.ErrJobRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "Import already in progress"})
	case errors.Is(err, roon.ErrNotConnected), errors.Is(err, roon.ErrNotAuthorized):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start import"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"status": "starting"})
	}
}

// Progress returns the current job snapshot.
func (h *RoonImport) Progress(c *gin.Context) {
	c.JSON(http.StatusOK, h.Importer.Job.Snapshot())
}

// Cancel requests cooperative cancellation of the running import.
func (h *RoonImport) Cancel(c *gin.Context) {
	h.Importer.Job.Cancel()
	c.JSON(http.StatusAccepted, gin.H{"status": "cancellation requested"})
}
