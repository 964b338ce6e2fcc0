// Package wire provides dependency injection for the crmsync CLI.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/crmsync/internal/adapters/memory"
	"github.com/example/crmsync/internal/adapters/remote"
	"github.com/example/crmsync/internal/adapters/sqlite"
	"github.com/example/crmsync/internal/app"
	"github.com/example/crmsync/internal/config"
	"github.com/example/crmsync/internal/core/linked"
	"github.com/example/crmsync/internal/db"
	"github.com/example/crmsync/internal/ports/primary"
	"github.com/example/crmsync/internal/ports/secondary"
)

var (
	cfg                *config.Config
	identityProjector  primary.IdentityProjector
	syncErrorService   primary.SyncErrorService
	linkService        primary.LinkService
	maintenanceService primary.MaintenanceService
	once               sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// IdentityProjector returns the singleton IdentityProjector instance.
func IdentityProjector() primary.IdentityProjector {
	once.Do(initServices)
	return identityProjector
}

// SyncErrorService returns the singleton SyncErrorService instance.
func SyncErrorService() primary.SyncErrorService {
	once.Do(initServices)
	return syncErrorService
}

// LinkService returns the singleton LinkService instance.
func LinkService() primary.LinkService {
	once.Do(initServices)
	return linkService
}

// MaintenanceService returns the singleton MaintenanceService instance.
func MaintenanceService() primary.MaintenanceService {
	once.Do(initServices)
	return maintenanceService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("failed to get home directory: %v", err)
	}

	cfg, err = config.Load(home)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Single-process adapters for the cache and lock ports. Multi-node
	// deployments swap these for adapters backed by a shared service.
	cache := memory.NewCache()
	locks := memory.NewLockManager()

	userRepo := sqlite.NewUserRepository(database)
	errorRepo := sqlite.NewSyncErrorRepository(database)
	linkRepo := sqlite.NewLinkRepository(database)

	providers := snapshotProviders(filepath.Join(home, ".crmsync", "remote"))

	identityProjector = app.NewProjectorService(userRepo, cache, locks, cfg)
	syncErrorService = app.NewSyncErrorService(errorRepo, locks, cfg)
	linkService = app.NewLinkService(linkRepo, providers)
	maintenanceService = app.NewMaintenanceService(providers[linked.CompanyProvider], linkRepo, nil)
}

// snapshotProviders wires one file-backed provider per provider key,
// reading exported remote snapshots from dir.
func snapshotProviders(dir string) map[linked.ProviderKey]secondary.RemoteProvider {
	files := map[linked.ProviderKey]string{
		linked.CompanyProvider:     "companies.json",
		linked.OpportunityProvider: "opportunities.json",
		linked.DirectoryProvider:   "directory.json",
		linked.AppointmentProvider: "appointments.json",
		linked.TaskProvider:        "tasks.json",
		linked.NoteProvider:        "notes.json",
	}

	providers := make(map[linked.ProviderKey]secondary.RemoteProvider, len(files))
	for key, name := range files {
		providers[key] = remote.NewSnapshotProvider(filepath.Join(dir, name))
	}
	return providers
}
