package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"gorm.io/gorm"
)

// System serves health, database and host status endpoints.
type System struct {
	DB      *gorm.DB
	DataDir string
	Started time.Time
}

// Health returns the basic health status of the service.
func (h *System) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "discobase",
	})
}

// DBStatus checks and returns the database connection status.
func (h *System) DBStatus(c *gin.Context) {
	sqlDB, err := h.DB.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Failed to get database instance: " + err.Error(),
		})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Database ping failed: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "connected",
		"database": "ready",
	})
}

// Status returns host and process statistics.
func (h *System) Status(c *gin.Context) {
	ctx := c.Request.Context()
	status := gin.H{
		"service":    "discobase",
		"uptime":     time.Since(h.Started).Round(time.Second).String(),
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		status["cpu_percent"] = percents[0]
	}
	if memStats, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		status["memory"] = gin.H{
			"total":        memStats.Total,
			"available":    memStats.Available,
			"used_percent": memStats.UsedPercent,
		}
	}
	if usage, err := disk.UsageWithContext(ctx, h.DataDir); err == nil {
		status["disk"] = gin.H{
			"path":         h.DataDir,
			"total":        usage.Total,
			"free":         usage.Free,
			"used_percent": usage.UsedPercent,
		}
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		status["host"] = gin.H{
			"hostname": info.Hostname,
			"os":       info.OS,
			"platform": info.Platform,
			"uptime":   info.Uptime,
		}
	}

	c.JSON(http.StatusOK, status)
}
