// Package dashboard ties a products store to a set of filters, one per
// signed-in user.
package dashboard

import (
	"context"
	"fmt"
	"sync"

	"product-dashboard/internal/client"
	"product-dashboard/internal/store"
	"product-dashboard/internal/viewmodel"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the products workspace of one user
type Dashboard struct {
	Store   *store.Store
	Filters *viewmodel.Filters
	logger  *zap.Logger
}

// Snapshot is the products state together with the page derived from it
type Snapshot struct {
	State store.State    `json:"state"`
	View  viewmodel.View `json:"view"`
}

// New creates an empty dashboard backed by api
func New(api client.ProductAPI, pageSize int, logger *zap.Logger) *Dashboard {
	return &Dashboard{
		Store:   store.New(api, store.WithLogger(logger)),
		Filters: viewmodel.NewFilters(pageSize),
		logger:  logger,
	}
}

// View derives the current page from a fresh snapshot of the store
func (d *Dashboard) View() Snapshot {
	state := d.Store.Snapshot()
	return Snapshot{State: state, View: d.Filters.View(state.Items)}
}

// Reload refetches the list and, when a product is selected, the selection.
// Both requests run concurrently and a failure of one does not cancel the
// other; the first error is returned.
func (d *Dashboard) Reload(ctx context.Context) error {
	selected := d.Store.Snapshot().Selected

	var g errgroup.Group
	g.Go(func() error {
		_, err := d.Store.FetchProducts(ctx)
		return err
	})
	if selected != nil {
		id := selected.ID
		g.Go(func() error {
			_, err := d.Store.FetchProduct(ctx, id)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to reload dashboard: %w", err)
	}
	return nil
}

// Registry keeps one Dashboard per user id
type Registry struct {
	api      client.ProductAPI
	pageSize int
	logger   *zap.Logger

	mu         sync.Mutex
	dashboards map[string]*Dashboard
}

func NewRegistry(api client.ProductAPI, pageSize int, logger *zap.Logger) *Registry {
	return &Registry{
		api:        api,
		pageSize:   pageSize,
		logger:     logger,
		dashboards: make(map[string]*Dashboard),
	}
}

// Get returns the dashboard of userID, creating it on first use
func (r *Registry) Get(userID string) *Dashboard {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.dashboards[userID]
	if !ok {
		d = New(r.api, r.pageSize, r.logger.With(zap.String("user_id", userID)))
		r.dashboards[userID] = d
		r.logger.Debug("Dashboard created", zap.String("user_id", userID))
	}
	return d
}

// Drop forgets the dashboard of userID
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	delete(r.dashboards, userID)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dashboards)
}
