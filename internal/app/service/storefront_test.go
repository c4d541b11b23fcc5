package service

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gamexpress/storefront/internal/api/apitest"
	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/internal/app/repository"
	"github.com/gamexpress/storefront/internal/db"
	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "player@example.com"
	testPassword = "password123"
)

func uintPtr(v uint) *uint { return &v }

func seedCatalog(srv *apitest.Server) {
	srv.AddCategory(model.Category{ID: 1, Name: "Consoles", Slug: "consoles"})
	srv.AddProduct(model.Product{ID: 7, Name: "Retro Console", Description: "Plays everything from the 90s",
		Price: decimal.RequireFromString("149.99"), Stock: 12, Status: model.StatusAvailable, CategoryID: uintPtr(1),
		Images: []model.ProductImage{{ID: 1, ImageURL: "products/console.png", IsPrimary: true}}})
	srv.AddProduct(model.Product{ID: 8, Name: "Arcade Stick", Description: "Tournament grade stick",
		Price: decimal.RequireFromString("12.50"), Stock: 3, Status: model.StatusAvailable, CategoryID: uintPtr(1)})
	srv.AddProduct(model.Product{ID: 9, Name: "Limited Edition Cartridge", Description: "Gold plated",
		Price: decimal.RequireFromString("80"), Stock: 0, Status: model.StatusOutOfStock})
}

type storefrontFixture struct {
	srv   *apitest.Server
	repo  repository.StateRepository
	state *repository.ScopedState
	sf    *Storefront
	user  model.Principal
}

func newFixtureStorefront(t *testing.T, f *storefrontFixture, namespace string) *Storefront {
	sf, err := NewStorefront(namespace, StorefrontDeps{
		API:        f.srv.Config(),
		State:      f.repo,
		StorageURL: "https://cdn.example.com/storage",
		Logger:     logger.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(sf.Close)
	return sf
}

// gatedTransport holds GET requests for the current user until release is
// closed and signals arrival on entered.
type gatedTransport struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodGet && strings.HasSuffix(req.URL.Path, "/user") {
		g.once.Do(func() { close(g.entered) })
		<-g.release
	}
	return http.DefaultTransport.RoundTrip(req)
}

func setupStorefrontTest(t *testing.T) *storefrontFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	seedCatalog(srv)

	f := &storefrontFixture{
		srv:  srv,
		repo: repository.NewStateRepository(testDB),
		user: srv.AddUser("Player One", testEmail, testPassword, model.RoleCustomer),
	}
	f.state = repository.NewScopedState(f.repo, "profile:test")
	f.sf = newFixtureStorefront(t, f, "profile:test")
	return f
}

func TestStorefront_StartAsGuest(t *testing.T) {
	f := setupStorefrontTest(t)
	ctx := context.Background()

	require.NoError(t, f.sf.Start(ctx))

	assert.False(t, f.sf.Auth.IsAuthenticated())
	assert.False(t, f.sf.Auth.Loading())
	snap := f.sf.Cart.Snapshot()
	assert.Equal(t, PhaseGuestActive, snap.Phase)
	assert.Equal(t, GuestIdentity(""), snap.Identity)
	assert.Empty(t, snap.Cart.Items)
	// a guest without a session has no server cart to ask for
	assert.Empty(t, f.srv.RequestsTo("GET", "/v2/cart/items"))
}

func TestStorefront_RestoresSessionAcrossRestart(t *testing.T) {
	f := setupStorefrontTest(t)
	ctx := context.Background()

	require.NoError(t, f.sf.Start(ctx))
	_, err := f.sf.Auth.Login(ctx, apiCredentials())
	require.NoError(t, err)
	require.NoError(t, f.sf.Cart.AddToCart(ctx, 8, 1))

	restarted := newFixtureStorefront(t, f, "profile:test")
	require.NoError(t, restarted.Start(ctx))

	assert.True(t, restarted.Auth.IsAuthenticated())
	assert.Equal(t, testEmail, restarted.Auth.Principal().Email)
	snap := restarted.Cart.Snapshot()
	assert.Equal(t, PhaseUserActive, snap.Phase)
	require.Len(t, snap.Cart.Items, 1)
	assert.Equal(t, uint(8), snap.Cart.Items[0].ProductID)
}

func TestStorefront_NamespacesAreIsolated(t *testing.T) {
	f := setupStorefrontTest(t)
	ctx := context.Background()

	require.NoError(t, f.sf.Start(ctx))
	_, err := f.sf.Auth.Login(ctx, apiCredentials())
	require.NoError(t, err)

	other := newFixtureStorefront(t, f, "profile:other")
	require.NoError(t, other.Start(ctx))
	assert.False(t, other.Auth.IsAuthenticated())
}

func TestStorefront_CartWaitsForSessionRestore(t *testing.T) {
	f := setupStorefrontTest(t)
	ctx := context.Background()
	require.NoError(t, f.state.Set(ctx, model.StateKeyToken, f.srv.IssueToken(testEmail)))
	f.srv.SetUserCart(f.user.ID, map[uint]int{7: 1})

	gate := &gatedTransport{entered: make(chan struct{}), release: make(chan struct{})}
	config := f.srv.Config()
	config.Transport = gate
	sf, err := NewStorefront("profile:test", StorefrontDeps{
		API:        config,
		State:      f.repo,
		StorageURL: "https://cdn.example.com/storage",
		Logger:     logger.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(sf.Close)

	started := make(chan error, 1)
	go func() { started <- sf.Start(ctx) }()
	<-gate.entered

	fetched := make(chan error, 1)
	go func() { fetched <- sf.Cart.FetchCart(ctx) }()

	select {
	case <-fetched:
		t.Fatal("cart resolved its identity before the session check finished")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, PhaseUninitialized, sf.Cart.Snapshot().Phase)

	close(gate.release)
	for _, done := range []chan error{fetched, started} {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("storefront never settled")
		}
	}

	assert.True(t, sf.Auth.IsAuthenticated())
	snap := sf.Cart.Snapshot()
	assert.Equal(t, PhaseUserActive, snap.Phase)
	assert.Equal(t, UserIdentity(), snap.Identity)
	assert.Equal(t, 1, snap.Cart.TotalItemCount)
	assert.Empty(t, f.srv.RequestsTo("POST", "/v2/cart/merge"))
}
