package store

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"product-dashboard/internal/client"
	"product-dashboard/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeAPI is an in-memory ProductAPI. A non-nil gate blocks every call until
// it is closed.
type fakeAPI struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	gate     chan struct{}
	started  chan string
	nextID   int
}

func newFakeAPI(products ...domain.Product) *fakeAPI {
	return &fakeAPI{products: products, nextID: 100}
}

func (f *fakeAPI) wait(op string) error {
	if f.started != nil {
		f.started <- op
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeAPI) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if err := f.wait("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Product(nil), f.products...), nil
}

func (f *fakeAPI) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if err := f.wait("get"); err != nil {
		return domain.Product{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, &client.Error{Op: client.OpGet, Kind: client.KindNotFound, Message: "Oject with id=" + id + " was not found."}
}

func (f *fakeAPI) CreateProduct(ctx context.Context, req client.CreateProductRequest) (domain.Product, error) {
	if err := f.wait("create"); err != nil {
		return domain.Product{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p := domain.Product{ID: strconv.Itoa(f.nextID), Name: req.Name, Data: req.Data}
	f.products = append(f.products, p)
	return p, nil
}

func (f *fakeAPI) UpdateProduct(ctx context.Context, req client.UpdateProductRequest) (domain.Product, error) {
	if err := f.wait("update"); err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{ID: req.ID, Data: req.Data}
	if req.Name != nil {
		p.Name = *req.Name
	}
	return p, nil
}

func (f *fakeAPI) DeleteProduct(ctx context.Context, id string) (string, error) {
	if err := f.wait("delete"); err != nil {
		return "", err
	}
	return id, nil
}

func product(id, name, category string, stock float64) domain.Product {
	return domain.Product{ID: id, Name: name, Data: domain.Attributes{
		domain.AttrCategory: domain.String(category),
		domain.AttrStock:    domain.Number(stock),
	}}
}

func ids(items []domain.Product) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func TestFetchProductsReplacesItems(t *testing.T) {
	api := newFakeAPI(product("1", "A", "Tools", 0), product("2", "B", "Toys", 5))
	s := New(api)
	ctx := context.Background()

	_, err := s.CreateProduct(ctx, client.CreateProductRequest{Name: "Local"})
	require.NoError(t, err)

	api.mu.Lock()
	api.products = []domain.Product{product("9", "Z", "Tools", 1)}
	api.mu.Unlock()

	_, err = s.FetchProducts(ctx)
	require.NoError(t, err)

	st := s.Snapshot()
	assert.Equal(t, []string{"9"}, ids(st.Items))
	assert.Equal(t, OpStatus{}, st.List)
}

func TestCreateSynthesizesCreatedAt(t *testing.T) {
	fixed := time.Date(2026, 10, 15, 9, 30, 0, 123000000, time.UTC)
	s := New(newFakeAPI(product("1", "A", "Tools", 0)), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	_, err := s.FetchProducts(ctx)
	require.NoError(t, err)
	_, err = s.FetchProduct(ctx, "1")
	require.NoError(t, err)

	created, err := s.CreateProduct(ctx, client.CreateProductRequest{Name: "Widget"})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15T09:30:00.123Z", created.CreatedAt)

	st := s.Snapshot()
	require.Len(t, st.Items, 2)
	assert.Equal(t, created.ID, st.Items[0].ID, "created items are prepended")
	assert.Equal(t, "1", st.Selected.ID, "create must not touch the selection")
}

func TestCreatedAtIsNotAfterNow(t *testing.T) {
	s := New(newFakeAPI())

	created, err := s.CreateProduct(context.Background(), client.CreateProductRequest{Name: "Widget"})
	require.NoError(t, err)

	stamp, err := time.Parse(time.RFC3339Nano, created.CreatedAt)
	require.NoError(t, err)
	assert.False(t, stamp.After(time.Now()))
}

func TestUpdateReconcilesListAndSelection(t *testing.T) {
	s := New(newFakeAPI(product("1", "A", "Tools", 0), product("2", "B", "Toys", 5)))
	ctx := context.Background()

	_, err := s.FetchProducts(ctx)
	require.NoError(t, err)
	_, err = s.FetchProduct(ctx, "2")
	require.NoError(t, err)

	name := "B2"
	_, err = s.UpdateProduct(ctx, client.UpdateProductRequest{ID: "2", Name: &name})
	require.NoError(t, err)

	st := s.Snapshot()
	assert.Equal(t, "B2", st.Items[1].Name)
	assert.Equal(t, "B2", st.Selected.Name)

	// An id outside the list only touches a matching selection
	other := "Ghost"
	_, err = s.UpdateProduct(ctx, client.UpdateProductRequest{ID: "77", Name: &other})
	require.NoError(t, err)

	st = s.Snapshot()
	assert.Len(t, st.Items, 2)
	assert.Equal(t, "B2", st.Selected.Name)
}

func TestUpdateOfSelectionOutsideList(t *testing.T) {
	s := New(newFakeAPI(product("5", "Detail only", "Tools", 1)))
	ctx := context.Background()

	_, err := s.FetchProduct(ctx, "5")
	require.NoError(t, err)

	name := "Renamed"
	_, err = s.UpdateProduct(ctx, client.UpdateProductRequest{ID: "5", Name: &name})
	require.NoError(t, err)

	st := s.Snapshot()
	assert.Empty(t, st.Items)
	assert.Equal(t, "Renamed", st.Selected.Name)
}

func TestDeleteClearsSelectionOnlyWhenMatching(t *testing.T) {
	s := New(newFakeAPI(product("1", "A", "Tools", 0), product("2", "B", "Toys", 5)))
	ctx := context.Background()

	_, err := s.FetchProducts(ctx)
	require.NoError(t, err)
	_, err = s.FetchProduct(ctx, "2")
	require.NoError(t, err)

	require.NoError(t, s.DeleteProduct(ctx, "1"))
	st := s.Snapshot()
	assert.Equal(t, []string{"2"}, ids(st.Items))
	require.NotNil(t, st.Selected)

	require.NoError(t, s.DeleteProduct(ctx, "2"))
	st = s.Snapshot()
	assert.Empty(t, st.Items)
	assert.Nil(t, st.Selected)
}

func TestFailureKeepsDataAndScopesError(t *testing.T) {
	api := newFakeAPI(product("1", "A", "Tools", 0))
	s := New(api)
	ctx := context.Background()

	_, err := s.FetchProducts(ctx)
	require.NoError(t, err)

	api.err = &client.Error{Op: client.OpList, Kind: client.KindTransport, Message: "Failed to load products"}
	_, err = s.FetchProducts(ctx)
	require.Error(t, err)

	api.err = errors.New("")
	_, err = s.FetchProduct(ctx, "1")
	require.Error(t, err)

	st := s.Snapshot()
	assert.Equal(t, []string{"1"}, ids(st.Items), "a failed refresh keeps the previous list")
	assert.Equal(t, "Failed to load products", st.List.Err)
	assert.Equal(t, "Failed to load product", st.Item.Err, "empty messages fall back per category")
	assert.True(t, st.List.Failed())
	assert.Empty(t, st.Create.Err)

	// The error persists until the next operation of the same category starts
	api.gate = make(chan struct{})
	api.err = nil
	done := make(chan struct{})
	states := make(chan State, 8)
	cancel := s.Subscribe(func(st State) { states <- st })
	go func() {
		defer close(done)
		s.FetchProducts(ctx)
	}()

	pending := <-states
	assert.True(t, pending.List.Loading)
	assert.Empty(t, pending.List.Err)
	assert.Equal(t, "Failed to load product", pending.Item.Err)

	close(api.gate)
	<-done
	cancel()
}

func TestMutationFailureDoesNotTouchData(t *testing.T) {
	api := newFakeAPI(product("1", "A", "Tools", 0))
	s := New(api)
	ctx := context.Background()

	_, err := s.FetchProducts(ctx)
	require.NoError(t, err)
	_, err = s.FetchProduct(ctx, "1")
	require.NoError(t, err)

	api.err = &client.Error{Op: client.OpDelete, Kind: client.KindTransport, Message: "Failed to delete product"}
	require.Error(t, s.DeleteProduct(ctx, "1"))

	name := "Nope"
	_, err = s.UpdateProduct(ctx, client.UpdateProductRequest{ID: "1", Name: &name})
	require.Error(t, err)

	st := s.Snapshot()
	assert.Equal(t, []string{"1"}, ids(st.Items))
	assert.Equal(t, "A", st.Items[0].Name)
	assert.Equal(t, "A", st.Selected.Name)
	assert.Equal(t, "Failed to delete product", st.Delete.Err)
	assert.NotEmpty(t, st.Update.Err)
}

func TestListAndItemLoadIndependently(t *testing.T) {
	api := newFakeAPI(product("1", "A", "Tools", 0))
	api.gate = make(chan struct{})
	api.started = make(chan string, 2)
	s := New(api)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); s.FetchProducts(ctx) }()
	go func() { defer wg.Done(); s.FetchProduct(ctx, "1") }()

	<-api.started
	<-api.started

	st := s.Snapshot()
	assert.True(t, st.List.Loading)
	assert.True(t, st.Item.Loading)

	close(api.gate)
	wg.Wait()

	st = s.Snapshot()
	assert.False(t, st.List.Loading)
	assert.False(t, st.Item.Loading)
	assert.Len(t, st.Items, 1)
	assert.Equal(t, "1", st.Selected.ID)
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := New(newFakeAPI(product("1", "A", "Tools", 3)))
	_, err := s.FetchProducts(context.Background())
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Items[0].Name = "mutated"
	snap.Items[0].Data[domain.AttrStock] = domain.Number(0)

	again := s.Snapshot()
	assert.Equal(t, "A", again.Items[0].Name)
	stock, _ := again.Items[0].Stock()
	assert.Equal(t, float64(3), stock)
}

// After any sequence of deletes and updates the list holds unique ids,
// deleted ids are gone and updates never change its length
func TestProperty_MutationsKeepListConsistent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("deletes remove, updates replace in place", prop.ForAll(
		func(ops []int) bool {
			seed := []domain.Product{
				product("1", "A", "Tools", 0), product("2", "B", "Toys", 1),
				product("3", "C", "Tools", 2), product("4", "D", "Toys", 3),
			}
			s := New(newFakeAPI(seed...))
			ctx := context.Background()
			if _, err := s.FetchProducts(ctx); err != nil {
				return false
			}

			deleted := map[string]bool{}
			for _, op := range ops {
				id := seed[(op/2)%len(seed)].ID
				before := len(s.Snapshot().Items)

				if op%2 == 0 {
					if err := s.DeleteProduct(ctx, id); err != nil {
						return false
					}
					deleted[id] = true
				} else {
					name := "updated-" + id
					if _, err := s.UpdateProduct(ctx, client.UpdateProductRequest{ID: id, Name: &name}); err != nil {
						return false
					}
					if len(s.Snapshot().Items) != before {
						return false
					}
				}
			}

			seen := map[string]bool{}
			for _, p := range s.Snapshot().Items {
				if seen[p.ID] || deleted[p.ID] {
					return false
				}
				seen[p.ID] = true
			}
			return len(seen)+len(deleted) == len(seed)
		},
		gen.SliceOf(gen.IntRange(0, 7)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
