package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"product-dashboard/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			json.Unmarshal(raw, &rec.Body)
		}
		requests = append(requests, rec)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	return srv, &requests
}

func TestListProducts(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusOK, `[
		{"id":"1","name":"Google Pixel 6 Pro","data":{"color":"Cloudy White","capacity":"128 GB"}},
		{"id":"2","name":"Apple iPhone 12 Mini, 256GB, Blue","data":null}
	]`)

	products, err := New(srv.URL + "/objects").ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "1", products[0].ID)
	assert.Nil(t, products[1].Data)
	assert.Equal(t, http.MethodGet, (*reqs)[0].Method)
	assert.Equal(t, "/objects", (*reqs)[0].Path)
}

func TestListProductsEmptyCollection(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `null`)

	products, err := New(srv.URL).ListProducts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestGetProductNotFoundPrefersServerMessage(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNotFound, `{"error":"Oject with id=42 was not found."}`)

	_, err := New(srv.URL).GetProduct(context.Background(), "42")
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrTransport))
	assert.Equal(t, "Oject with id=42 was not found.", err.Error())

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, OpGet, apiErr.Op)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestFallbackMessages(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) error
		want string
	}{
		{"list", func(c *Client) error { _, err := c.ListProducts(context.Background()); return err }, "Failed to load products"},
		{"get", func(c *Client) error { _, err := c.GetProduct(context.Background(), "1"); return err }, "Failed to load product"},
		{"create", func(c *Client) error {
			_, err := c.CreateProduct(context.Background(), CreateProductRequest{Name: "Widget"})
			return err
		}, "Failed to create product"},
		{"update", func(c *Client) error {
			name := "Widget"
			_, err := c.UpdateProduct(context.Background(), UpdateProductRequest{ID: "1", Name: &name})
			return err
		}, "Failed to update product"},
		{"delete", func(c *Client) error { _, err := c.DeleteProduct(context.Background(), "1"); return err }, "Failed to delete product"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusInternalServerError, `<html>oops</html>`)

			err := tt.call(New(srv.URL))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTransport))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestConflictIsTransportError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusConflict, `{"error":"Object was modified"}`)

	name := "Widget"
	_, err := New(srv.URL).UpdateProduct(context.Background(), UpdateProductRequest{ID: "1", Name: &name})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, "Object was modified", err.Error())
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).ListProducts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, "Failed to load products", err.Error())
}

func TestCreateProductNeverSendsCreatedAt(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusOK, `{"id":"abc","name":"Widget","createdAt":"2026-10-15T10:00:00.000+00:00","data":{"price":9.5}}`)

	product, err := New(srv.URL).CreateProduct(context.Background(), CreateProductRequest{
		Name: "  Widget ",
		Data: domain.Attributes{domain.AttrPrice: domain.Number(9.5)},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", product.ID)

	require.Len(t, *reqs, 1)
	sent := (*reqs)[0]
	assert.Equal(t, http.MethodPost, sent.Method)
	assert.Equal(t, "Widget", sent.Body["name"])
	assert.NotContains(t, sent.Body, "createdAt")
	assert.NotContains(t, sent.Body, "id")
}

func TestUpdateProductIsPartial(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusOK, `{"id":"7","name":"Renamed","updatedAt":"2026-10-15T10:00:00.000+00:00"}`)

	name := "Renamed"
	product, err := New(srv.URL).UpdateProduct(context.Background(), UpdateProductRequest{ID: "7", Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", product.Name)

	sent := (*reqs)[0]
	assert.Equal(t, http.MethodPut, sent.Method)
	assert.Equal(t, "/7", sent.Path)
	assert.Equal(t, "Renamed", sent.Body["name"])
	assert.NotContains(t, sent.Body, "data")
}

func TestDeleteProductReturnsID(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusOK, `{"message":"Object with id = 7 has been deleted."}`)

	id, err := New(srv.URL).DeleteProduct(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "7", id)
	assert.Equal(t, http.MethodDelete, (*reqs)[0].Method)
}

func TestValidationErrorsAreNeverSent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.CreateProduct(ctx, CreateProductRequest{Name: "   "})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = c.CreateProduct(ctx, CreateProductRequest{Name: "Widget", Data: domain.Attributes{domain.AttrStock: domain.Number(-1)}})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "stock cannot be negative", err.Error())

	empty := ""
	_, err = c.UpdateProduct(ctx, UpdateProductRequest{ID: "1", Name: &empty})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = c.UpdateProduct(ctx, UpdateProductRequest{Name: &empty})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = c.GetProduct(ctx, "")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = c.DeleteProduct(ctx, " ")
	assert.True(t, errors.Is(err, ErrValidation))

	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `[]`)

	c := New(srv.URL, WithRateLimit(0.001, 1))
	_, err := c.ListProducts(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ListProducts(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
}
