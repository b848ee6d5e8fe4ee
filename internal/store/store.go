package store

import (
	"context"
	"sync"
	"time"

	"product-dashboard/internal/client"
	"product-dashboard/internal/domain"

	"go.uber.org/zap"
)

// createdAtLayout matches the ISO-8601 form browsers produce
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Store owns the products state and applies the outcome of every remote
// operation to it. Requests run outside the lock, so operations of different
// categories never block each other. When two mutations of the same id race,
// whichever response arrives last wins.
type Store struct {
	api    client.ProductAPI
	logger *zap.Logger
	now    func() time.Time

	mu          sync.RWMutex
	state       State
	subscribers map[int]func(State)
	nextSub     int
}

type Option func(*Store)

// WithClock overrides the clock used to stamp created products
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates an empty Store backed by api
func New(api client.ProductAPI, opts ...Option) *Store {
	s := &Store{
		api:         api,
		logger:      zap.NewNop(),
		now:         time.Now,
		subscribers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive a snapshot after every transition.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// FetchProducts reloads the whole list
func (s *Store) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	s.apply(func(st *State) { st.begin(CategoryList) })

	items, err := s.api.ListProducts(ctx)
	if err != nil {
		s.failed(CategoryList, "", err)
		return nil, err
	}

	s.apply(func(st *State) { st.listLoaded(cloneAll(items)) })
	s.logger.Debug("Products loaded", zap.Int("count", len(items)))
	return items, nil
}

// FetchProduct loads id into the selection
func (s *Store) FetchProduct(ctx context.Context, id string) (domain.Product, error) {
	s.apply(func(st *State) { st.begin(CategoryItem) })

	product, err := s.api.GetProduct(ctx, id)
	if err != nil {
		s.failed(CategoryItem, id, err)
		return domain.Product{}, err
	}

	s.apply(func(st *State) { st.itemLoaded(product.Clone()) })
	return product, nil
}

// CreateProduct creates a product and prepends it to the list. A missing
// creation time is stamped with the current time.
func (s *Store) CreateProduct(ctx context.Context, req client.CreateProductRequest) (domain.Product, error) {
	s.apply(func(st *State) { st.begin(CategoryCreate) })

	product, err := s.api.CreateProduct(ctx, req)
	if err != nil {
		s.failed(CategoryCreate, "", err)
		return domain.Product{}, err
	}

	if product.CreatedAt == "" {
		product.CreatedAt = s.now().UTC().Format(createdAtLayout)
	}

	s.apply(func(st *State) { st.created(product.Clone()) })
	s.logger.Info("Product created", zap.String("product_id", product.ID))
	return product, nil
}

// UpdateProduct applies a partial update and reconciles both the list entry
// and the selection with the returned product
func (s *Store) UpdateProduct(ctx context.Context, req client.UpdateProductRequest) (domain.Product, error) {
	s.apply(func(st *State) { st.begin(CategoryUpdate) })

	product, err := s.api.UpdateProduct(ctx, req)
	if err != nil {
		s.failed(CategoryUpdate, req.ID, err)
		return domain.Product{}, err
	}

	s.apply(func(st *State) { st.updated(product.Clone()) })
	s.logger.Info("Product updated", zap.String("product_id", product.ID))
	return product, nil
}

// DeleteProduct removes id remotely, then locally
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.apply(func(st *State) { st.begin(CategoryDelete) })

	deletedID, err := s.api.DeleteProduct(ctx, id)
	if err != nil {
		s.failed(CategoryDelete, id, err)
		return err
	}

	s.apply(func(st *State) { st.deleted(deletedID) })
	s.logger.Info("Product deleted", zap.String("product_id", deletedID))
	return nil
}

func (s *Store) failed(c Category, id string, err error) {
	message := client.Message(err, fallbackFor(c))
	s.logger.Warn("Product operation failed",
		zap.String("category", c.String()),
		zap.String("product_id", id),
		zap.Error(err),
	)
	s.apply(func(st *State) { st.fail(c, message) })
}

// apply runs one transition under the lock and notifies subscribers
// outside of it
func (s *Store) apply(transition func(*State)) {
	s.mu.Lock()
	transition(&s.state)
	snapshot := s.state.Clone()
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot.Clone())
	}
}

func fallbackFor(c Category) string {
	switch c {
	case CategoryList:
		return client.OpList.FallbackMessage()
	case CategoryItem:
		return client.OpGet.FallbackMessage()
	case CategoryCreate:
		return client.OpCreate.FallbackMessage()
	case CategoryUpdate:
		return client.OpUpdate.FallbackMessage()
	default:
		return client.OpDelete.FallbackMessage()
	}
}

func cloneAll(items []domain.Product) []domain.Product {
	out := make([]domain.Product, len(items))
	for i, p := range items {
		out[i] = p.Clone()
	}
	return out
}
