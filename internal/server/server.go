// Package server wires the HTTP router over the application services.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pmills/discobase/internal/artwork"
	"github.com/pmills/discobase/internal/auth"
	"github.com/pmills/discobase/internal/catalog"
	"github.com/pmills/discobase/internal/config"
	"github.com/pmills/discobase/internal/enrich"
	"github.com/pmills/discobase/internal/importer"
	"github.com/pmills/discobase/internal/musicbrainz"
	"github.com/pmills/discobase/internal/roon"
	"github.com/pmills/discobase/internal/server/handlers"
)

// Deps carries the services the router exposes.
type Deps struct {
	Config       *config.Config
	DB           *gorm.DB
	Auth         *auth.Service
	Catalog      *catalog.Service
	Artwork      *artwork.Store
	MusicBrainz  *musicbrainz.Client
	Roon         *roon.Client
	RoonImporter *importer.RoonImporter
	FileImporter *importer.FileImporter
	Enricher     *enrich.Enricher
}

// SetupRouter configures and returns the main router.
func SetupRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	if deps.Config.Server.EnableCORS {
		r.Use(corsMiddleware())
	}

	authH := &handlers.Auth{Service: deps.Auth, DB: deps.DB}
	albumsH := &handlers.Albums{Catalog: deps.Catalog, Artwork: deps.Artwork}
	collectionsH := &handlers.Collections{Catalog: deps.Catalog}
	lookupsH := &handlers.Lookups{Catalog: deps.Catalog}
	mbH := &handlers.MusicBrainz{Client: deps.MusicBrainz}
	roonH := &handlers.RoonImport{
		Client:   deps.Roon,
		Importer: deps.RoonImporter,
		Catalog:  deps.Catalog,
		Config:   &deps.Config.Roon,
	}
	filesH := &handlers.FileImport{Importer: deps.FileImporter, Catalog: deps.Catalog}
	enrichH := &handlers.Enrich{Enricher: deps.Enricher}
	systemH := &handlers.System{
		DB:      deps.DB,
		DataDir: deps.Config.Database.DataDir,
		Started: time.Now(),
	}

	r.GET("/api/health", systemH.Health)
	r.POST("/api/auth/register", authH.Register)
	r.POST("/api/auth/login", authH.Login)

	api := r.Group("/api")
	api.Use(auth.Middleware(deps.Auth, deps.DB))
	{
		api.GET("/auth/me", authH.Me)

		api.GET("/albums", albumsH.List)
		api.POST("/albums", albumsH.Create)
		api.DELETE("/albums", albumsH.DeleteAll)
		api.GET("/albums/:id", albumsH.Get)
		api.PATCH("/albums/:id", albumsH.Update)
		api.DELETE("/albums/:id", albumsH.Delete)
		api.POST("/albums/:id/art", albumsH.UploadArt)

		api.GET("/collections", collectionsH.List)
		api.POST("/collections", collectionsH.Create)
		api.GET("/collections/:id", collectionsH.Get)
		api.PATCH("/collections/:id", collectionsH.Update)
		api.DELETE("/collections/:id", collectionsH.Delete)
		api.POST("/collections/:id/albums/:albumId", collectionsH.AddAlbum)
		api.DELETE("/collections/:id/albums/:albumId", collectionsH.RemoveAlbum)
		api.DELETE("/collections/:id/albums", collectionsH.DeleteAlbums)

		api.GET("/musicians", lookupsH.ListMusicians)
		api.GET("/musicians/:id", lookupsH.GetMusician)
		api.GET("/persons", lookupsH.ListPersons)
		api.GET("/persons/:id", lookupsH.GetPerson)
		api.GET("/details", lookupsH.ListDetails)
		api.GET("/details/:id", lookupsH.GetDetail)

		api.GET("/musicbrainz/search", mbH.Search)
		api.GET("/musicbrainz/release/:mbid", mbH.Release)

		api.POST("/import/roon/connect", roonH.Connect)
		api.GET("/import/roon/status", roonH.Status)
		api.GET("/import/roon/probe", roonH.Probe)
		api.POST("/import/roon/start", roonH.Start)
		api.GET("/import/roon/progress", roonH.Progress)
		api.POST("/import/roon/cancel", roonH.Cancel)

		api.POST("/import/files/start", filesH.Start)
		api.GET("/import/files/progress", filesH.Progress)
		api.POST("/import/files/cancel", filesH.Cancel)

		api.POST("/enrich/album/:id", enrichH.Album)
		api.POST("/enrich/collection/:id", enrichH.Collection)
		api.GET("/enrich/progress", enrichH.Progress)
		api.POST("/enrich/cancel", enrichH.Cancel)

		api.GET("/dbstatus", systemH.DBStatus)
		api.GET("/system/status", systemH.Status)
	}

	// Stored album art and the static frontend.
	r.Static("/art", deps.Artwork.Dir())
	r.StaticFile("/", "./web/index.html")
	r.Static("/static", "./web/static")

	return r
}

// corsMiddleware allows the frontend dev server to reach the API.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
