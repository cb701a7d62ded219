package main

import (
	"fmt"
	"os"

	"github.com/pmills/discobase/internal/artwork"
	"github.com/pmills/discobase/internal/auth"
	"github.com/pmills/discobase/internal/catalog"
	"github.com/pmills/discobase/internal/config"
	"github.com/pmills/discobase/internal/database"
	"github.com/pmills/discobase/internal/enrich"
	"github.com/pmills/discobase/internal/importer"
	"github.com/pmills/discobase/internal/logger"
	"github.com/pmills/discobase/internal/musicbrainz"
	"github.com/pmills/discobase/internal/roon"
	"github.com/pmills/discobase/internal/server"
)

func main() {
	configPath := os.Getenv("DISCOBASE_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	if err := database.Initialize(&cfg.Database); err != nil {
		logger.Error("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	db := database.GetDB()

	artStore, err := artwork.NewStore(cfg.Artwork.Dir, cfg.Artwork.MaxUploadSize)
	if err != nil {
		logger.Error("Failed to initialize artwork store: %v", err)
		os.Exit(1)
	}

	catalogSvc := catalog.NewService(db, artStore)
	authSvc := auth.NewService(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	mbClient := musicbrainz.NewClient()
	roonClient := roon.NewClient(cfg.Roon.TokenPath)

	fileImporter := importer.NewFileImporter(catalogSvc, artStore, mbClient)
	fileImporter.WatchChanges = cfg.Import.WatchChanges
	roonImporter := importer.NewRoonImporter(roonClient, catalogSvc, artStore, mbClient)
	enricher := enrich.NewEnricher(catalogSvc, mbClient)

	r := server.SetupRouter(server.Deps{
		Config:       cfg,
		DB:           db,
		Auth:         authSvc,
		Catalog:      catalogSvc,
		Artwork:      artStore,
		MusicBrainz:  mbClient,
		Roon:         roonClient,
		RoonImporter: roonImporter,
		FileImporter: fileImporter,
		Enricher:     enricher,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting discobase server on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Error("Server exited: %v", err)
		os.Exit(1)
	}
}
