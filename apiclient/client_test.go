package apiclient_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coffeelink/apiclient"
	"coffeelink/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.HandlerFunc) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := apiclient.New(srv.URL + "/api")
	require.NoError(t, err)
	return c
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := apiclient.New("/api")
	assert.Error(t, err)
}

func TestBearerTokenAttachedOnlyWhenPresent(t *testing.T) {
	var got []string
	var mu sync.Mutex
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.Header.Get("Authorization"))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := t.Context()

	require.NoError(t, c.Delete(ctx, "/productos/1", nil))
	require.NoError(t, c.WithToken(apiclient.TokenFunc(func() string { return "" })).Delete(ctx, "/productos/1", nil))
	require.NoError(t, c.WithToken(apiclient.TokenFunc(func() string { return "abc" })).Delete(ctx, "/productos/1", nil))

	assert.Equal(t, []string{"", "", "Bearer abc"}, got)
}

func TestStatusKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    apiclient.Kind
		message string
	}{
		{name: "400 validation", status: http.StatusBadRequest, body: `{"message":"precio inválido"}`, kind: apiclient.KindValidation, message: "precio inválido"},
		{name: "401 auth", status: http.StatusUnauthorized, kind: apiclient.KindAuth},
		{name: "403 auth", status: http.StatusForbidden, body: `{"error":"forbidden"}`, kind: apiclient.KindAuth, message: "forbidden"},
		{name: "409 conflict text", status: http.StatusConflict, body: "El email ya está registrado", kind: apiclient.KindConflict, message: "El email ya está registrado"},
		{name: "409 conflict json string", status: http.StatusConflict, body: `"sin stock"`, kind: apiclient.KindConflict, message: "sin stock"},
		{name: "500 server", status: http.StatusInternalServerError, body: "boom", kind: apiclient.KindServer, message: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := c.Get(t.Context(), "/productos", nil, nil)
			require.Error(t, err)

			var apiErr *apiclient.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.kind, apiclient.KindOf(err))
			assert.Equal(t, tt.message, apiclient.MessageOf(err))
		})
	}
}

func TestNetworkFailureIsServerKind(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := apiclient.New(base)
	require.NoError(t, err)

	err = c.Get(t.Context(), "/productos", nil, nil)
	require.Error(t, err)
	assert.Equal(t, apiclient.KindServer, apiclient.KindOf(err))
	assert.False(t, apiclient.IsAuth(err))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, apiclient.KindServer, apiclient.KindOf(errors.New("x")))
	assert.False(t, apiclient.IsConflict(nil))
}

func TestLogin(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, models.LoginRequest{Email: "ana@coffeelink.cl", Password: "Secreta#1"}, req)

		_, _ = io.WriteString(w, `{"token":"jwt","rol":"admin"}`)
	})

	resp, err := c.Login(t.Context(), "ana@coffeelink.cl", "Secreta#1")
	require.NoError(t, err)
	assert.Equal(t, models.LoginResponse{Token: "jwt", Rol: "admin"}, resp)
}

func TestListProductsPaged(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/productos", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "9", q.Get("size"))
		assert.Equal(t, "precio,asc", q.Get("sort"))
		assert.Equal(t, "etiop", q.Get("nombre"))
		assert.Equal(t, "1000", q.Get("precioMin"))
		assert.Empty(t, q.Get("precioMax"))

		_, _ = io.WriteString(w, `{"content":[{"id":1,"nombre":"Etiopía Yirgacheffe","precio":12990,"stock":4}],"totalPages":3,"number":2}`)
	})

	page, err := c.ListProducts(t.Context(), models.ProductQuery{
		Page: 2, Size: 9, Sort: "precio,asc", Nombre: "etiop", PrecioMin: "1000",
	})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Number)
	assert.True(t, page.Content[0].Precio.Equal(decimal.NewFromInt(12990)))
	assert.True(t, page.HasPrev())
	assert.False(t, page.HasNext())
}

func TestListProductsBareArray(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"nombre":"A","precio":1000,"stock":1},{"id":2,"nombre":"B","precio":2000,"stock":0}]`)
	})

	page, err := c.ListProducts(t.Context(), models.ProductQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.Content[1].InStock())
}

func TestListProductsCoalescesIdenticalQueries(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		_, _ = io.WriteString(w, `[]`)
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ListProducts(t.Context(), models.ProductQuery{Nombre: "kenia"})
			assert.NoError(t, err)
		}()
	}
	// let the callers pile up on the first request
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestListProductsDoesNotShareAcrossTokens(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `[{"id":1,"nombre":"Kenia AA","precio":900,"stock":1}]`)
	})
	good := c.WithToken(apiclient.TokenFunc(func() string { return "good" }))
	expired := c.WithToken(apiclient.TokenFunc(func() string { return "expired" }))
	q := models.ProductQuery{Nombre: "kenia"}

	var wg sync.WaitGroup
	var goodErr, expiredErr error
	var goodPage models.ProductPage
	wg.Add(2)
	go func() {
		defer wg.Done()
		goodPage, goodErr = good.ListProducts(t.Context(), q)
	}()
	go func() {
		defer wg.Done()
		_, expiredErr = expired.ListProducts(t.Context(), q)
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(2), calls.Load())
	require.NoError(t, goodErr)
	require.Len(t, goodPage.Content, 1)
	assert.True(t, apiclient.IsAuth(expiredErr))
}

func TestProductCRUDAndPurchase(t *testing.T) {
	type call struct{ method, path, auth string }
	var calls []call
	var mu sync.Mutex

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, call{r.Method, r.URL.Path, r.Header.Get("Authorization")})
		mu.Unlock()

		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/api/comprar/7":
			var req models.PurchaseRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, 1, req.Cantidad)
			_, _ = io.WriteString(w, `{"id":501}`)
		default:
			var in models.ProductInput
			_ = json.NewDecoder(r.Body).Decode(&in)
			_ = json.NewEncoder(w).Encode(models.Product{ID: 7, Nombre: in.Nombre, Precio: in.Precio, Stock: in.Stock})
		}
	}).WithToken(apiclient.TokenFunc(func() string { return "admin-token" }))
	ctx := t.Context()

	in := models.ProductInput{Nombre: "Brasil Santos", Precio: decimal.NewFromInt(8990), Stock: 10}
	created, err := c.CreateProduct(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Brasil Santos", created.Nombre)

	updated, err := c.UpdateProduct(ctx, 7, models.ProductInput{Nombre: "Brasil Cerrado", Precio: decimal.NewFromInt(9990), Stock: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)

	require.NoError(t, c.DeleteProduct(ctx, 7))

	order, err := c.Purchase(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(501), order.ID)

	assert.Equal(t, []call{
		{http.MethodPost, "/api/productos", "Bearer admin-token"},
		{http.MethodPut, "/api/productos/7", "Bearer admin-token"},
		{http.MethodDelete, "/api/productos/7", "Bearer admin-token"},
		{http.MethodPost, "/api/comprar/7", "Bearer admin-token"},
	}, calls)
}
