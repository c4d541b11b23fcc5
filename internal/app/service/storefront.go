package service

import (
	"context"
	"fmt"

	"github.com/gamexpress/storefront/internal/api"
	"github.com/gamexpress/storefront/internal/app/repository"
	"github.com/gamexpress/storefront/pkg/logger"
)

// StorefrontDeps are the process wide pieces shared by every session.
type StorefrontDeps struct {
	API        api.Config
	State      repository.StateRepository
	StorageURL string
	Images     ImageOpener
	// Catalog is shared between sessions when set; otherwise each session
	// keeps its own.
	Catalog CatalogService
	Logger  *logger.Logger
}

// Storefront is the service bundle of one client session: a gateway
// visitor or a CLI profile.
type Storefront struct {
	Namespace string
	Client    *api.Client
	Auth      AuthService
	Cart      CartService
	Catalog   CatalogService
	Checkout  CheckoutService
	Admin     AdminService
}

func NewStorefront(namespace string, deps StorefrontDeps) (*Storefront, error) {
	log := deps.Logger
	if log == nil {
		log = logger.Get()
	}
	log = log.WithContext(logger.Fields{"namespace": namespace})

	apiConfig := deps.API
	apiConfig.Logger = log
	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	state := repository.NewScopedState(deps.State, namespace)

	catalog := deps.Catalog
	if catalog == nil {
		catalog = NewCatalogService(client, log)
	}

	auth := NewAuthService(client, state, log)
	cart := NewCartService(client, state, auth, catalog, log)
	auth.OnIdentityChange(cart.IdentityChanged)

	return &Storefront{
		Namespace: namespace,
		Client:    client,
		Auth:      auth,
		Cart:      cart,
		Catalog:   catalog,
		Checkout:  NewCheckoutService(auth, cart, deps.StorageURL, log),
		Admin:     NewAdminService(client, auth, deps.Images, log),
	}, nil
}

// Start restores the stored session and loads the cart. A cart that fails
// to load is reported but leaves the storefront usable.
func (s *Storefront) Start(ctx context.Context) error {
	s.Auth.CheckSession(ctx)
	return s.Cart.Init(ctx)
}

// Close detaches the cart from its subscribers.
func (s *Storefront) Close() {
	s.Cart.Close()
}
