package providers

import (
	"github.com/samber/do/v2"

	"github.com/libris-app/libris-server/internal/config"
	"github.com/libris-app/libris-server/internal/logger"
	"github.com/libris-app/libris-server/internal/pubsub"
	"github.com/libris-app/libris-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.DatabasePath()
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// HubHandle wraps the pubsub hub with shutdown capability.
type HubHandle struct {
	*pubsub.Hub
}

// Shutdown implements do.Shutdownable.
func (h *HubHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideBroadcaster provides the in-process event hub used by
// subscriptions.
func ProvideBroadcaster(i do.Injector) (*HubHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return &HubHandle{Hub: pubsub.NewHub(log.Logger)}, nil
}
