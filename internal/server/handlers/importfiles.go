package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pmills/discobase/internal/auth"
	"github.com/pmills/discobase/internal/catalog"
	"github.com/pmills/discobase/internal/importer"
)

// FileImport serves the local file-scan import endpoints.
type FileImport struct {
	Importer *importer.FileImporter
	Catalog  *catalog.Service
}

type startFileImportRequest struct {
	RootPath     string `json:"root_path"`
	CollectionID *uint  `json:"collection_id"`
}

// Start begins a background scan of a directory tree.
func (h *FileImport) Start(c *gin.Context) {
	user := auth.CurrentUser(c)
	var req startFileImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.RootPath = strings.TrimSpace(req.RootPath)
	if req.RootPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "root_path is required"})
		return
	}

	if req.CollectionID != nil {
		if _, err := h.Catalog.GetCollection(*req.CollectionID, user.ID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
			return
		}
	}

	err := h.Importer.Start(req.RootPath, req.CollectionID)
	switch {
	case errors.Is(err, importer.ErrJobRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "Import already in progress"})
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, gin.H{"status": "starting"})
	}
}

// Progress returns the current job snapshot, including the number of
// filesystem changes noticed since the last completed scan.
func (h *FileImport) Progress(c *gin.Context) {
	c.JSON(http.StatusOK, h.Importer.Job.Snapshot())
}

// Cancel requests cooperative cancellation of the running scan.
func (h *FileImport) Cancel(c *gin.Context) {
	h.Importer.Job.Cancel()
	c.JSON(http.StatusAccepted, gin.H{"status": "cancellation requested"})
}
