package service

import (
	"context"
	"errors"
	"sync"

	"github.com/gamexpress/storefront/internal/api"
	"github.com/gamexpress/storefront/internal/app/model"
	apperrors "github.com/gamexpress/storefront/internal/errors"
	"github.com/gamexpress/storefront/pkg/logger"
)

var (
	ErrCartClosed = errors.New("cart service closed")
)

const (
	msgInvalidQuantity = "Quantity must be at least 1"
	msgSoldOut         = "This product is sold out"
	msgStaleItem       = "This item is no longer in your cart. The cart has been refreshed."

	fallbackFetchCart  = "Failed to fetch cart"
	fallbackAddItem    = "Failed to add item to cart"
	fallbackUpdateItem = "Failed to update quantity"
	fallbackRemoveItem = "Failed to remove item from cart"
	fallbackClearCart  = "Failed to clear cart"
)

// CartAPI is the part of the API client the cart engine talks to.
type CartAPI interface {
	CartItems(ctx context.Context, sessionID string) ([]model.CartItem, error)
	AddToCart(ctx context.Context, req api.CartItemRequest) (*api.AddToCartResponse, error)
	UpdateCartItem(ctx context.Context, req api.CartItemRequest) error
	RemoveCartItem(ctx context.Context, itemID uint) error
	ClearCart(ctx context.Context, sessionID string) error
	MergeCart(ctx context.Context, sessionID string) error
}

// StateStore is the durable key/value state of one client.
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ProductLookup resolves products already known to the catalog.
type ProductLookup interface {
	Lookup(productID uint) (*model.Product, bool)
}

// AuthState is the read only view of the authentication signal.
type AuthState interface {
	IsAuthenticated() bool
	// WaitReady blocks until the stored session has been checked.
	WaitReady(ctx context.Context) error
}

// CartService keeps the cart projection in sync with the server cart of the
// current identity. Every mutation is followed by a refetch.
type CartService interface {
	Init(ctx context.Context) error
	FetchCart(ctx context.Context) error
	AddToCart(ctx context.Context, productID uint, quantity int) error
	UpdateQuantity(ctx context.Context, itemID uint, quantity int) error
	RemoveFromCart(ctx context.Context, itemID uint) error
	ClearCart(ctx context.Context) error
	IdentityChanged(ctx context.Context, authenticated bool)
	Snapshot() CartSnapshot
	// Subscribe registers fn for every state change. fn must not call back
	// into the service synchronously.
	Subscribe(fn func(CartSnapshot)) (unsubscribe func())
	Close()
}

type cartSubscriber struct {
	id int
	fn func(CartSnapshot)
}

type cartService struct {
	api      CartAPI
	state    StateStore
	auth     AuthState
	products ProductLookup
	log      *logger.Logger

	// serializes mutations and identity transitions
	mutateMu sync.Mutex

	mu       sync.RWMutex
	phase    CartPhase
	identity CartIdentity
	cart     model.Cart
	errMsg   string
	inflight int
	closed   bool
	// fetch results carry the sequence number they were issued with and
	// the identity epoch they were issued under
	issued  uint64
	applied uint64
	epoch   uint64

	notifyMu    sync.Mutex
	subscribers []cartSubscriber
	nextSubID   int
}

func NewCartService(
	cartAPI CartAPI,
	state StateStore,
	auth AuthState,
	products ProductLookup,
	log *logger.Logger,
) CartService {
	if log == nil {
		log = logger.Get()
	}
	return &cartService{
		api:      cartAPI,
		state:    state,
		auth:     auth,
		products: products,
		log:      log,
		phase:    PhaseUninitialized,
		identity: GuestIdentity(""),
		cart:     model.NewCart(nil),
	}
}

func (s *cartService) Init(ctx context.Context) error {
	if err := s.awaitAuth(ctx); err != nil {
		return err
	}

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	if s.currentPhase() != PhaseUninitialized {
		return nil
	}
	if err := s.resolveIdentity(ctx); err != nil {
		return err
	}
	return s.fetch(ctx)
}

func (s *cartService) FetchCart(ctx context.Context) error {
	if s.currentPhase() == PhaseUninitialized {
		return s.Init(ctx)
	}
	return s.fetch(ctx)
}

func (s *cartService) AddToCart(ctx context.Context, productID uint, quantity int) error {
	if quantity < 1 {
		s.log.Warn("Rejected add to cart: invalid quantity", logger.Fields{
			"product_id": productID,
			"quantity":   quantity,
		})
		return apperrors.New(apperrors.ValidationInvalidQuantity, msgInvalidQuantity)
	}
	if s.products != nil {
		if product, ok := s.products.Lookup(productID); ok && product.SoldOut() {
			s.log.Warn("Rejected add to cart: product sold out", logger.Fields{
				"product_id": productID,
			})
			return apperrors.New(apperrors.ValidationSoldOut, msgSoldOut)
		}
	}

	if err := s.awaitAuth(ctx); err != nil {
		return err
	}

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	if err := s.ensureIdentity(ctx); err != nil {
		return err
	}
	identity := s.currentIdentity()

	s.log.Info("Adding item to cart", logger.Fields{
		"product_id": productID,
		"quantity":   quantity,
		"identity":   identity.Kind,
	})

	s.beginCall()
	resp, err := s.api.AddToCart(ctx, api.CartItemRequest{
		ProductID: productID,
		Quantity:  quantity,
		SessionID: identity.RequestSessionID(),
	})
	s.endCall()
	if err != nil {
		return s.mutationFailed(err, fallbackAddItem, logger.Fields{"product_id": productID})
	}

	if identity.IsGuest() && resp.SessionID != "" && resp.SessionID != identity.SessionID {
		s.applySession(ctx, resp.SessionID)
	}

	s.refetch(ctx)
	return nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, itemID uint, quantity int) error {
	if quantity < 1 {
		s.log.Warn("Rejected quantity update: invalid quantity", logger.Fields{
			"cart_item_id": itemID,
			"quantity":     quantity,
		})
		return apperrors.New(apperrors.ValidationInvalidQuantity, msgInvalidQuantity)
	}

	if err := s.awaitAuth(ctx); err != nil {
		return err
	}

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	if err := s.ensureIdentity(ctx); err != nil {
		return err
	}

	item, ok := s.findItem(itemID)
	if !ok {
		return s.staleItem(ctx, itemID)
	}
	identity := s.currentIdentity()

	s.log.Info("Updating cart item quantity", logger.Fields{
		"cart_item_id": itemID,
		"product_id":   item.ProductID,
		"quantity":     quantity,
	})

	s.beginCall()
	err := s.api.UpdateCartItem(ctx, api.CartItemRequest{
		ProductID: item.ProductID,
		Quantity:  quantity,
		SessionID: identity.RequestSessionID(),
	})
	s.endCall()
	if err != nil {
		return s.mutationFailed(err, fallbackUpdateItem, logger.Fields{"cart_item_id": itemID})
	}

	s.refetch(ctx)
	return nil
}

func (s *cartService) RemoveFromCart(ctx context.Context, itemID uint) error {
	if err := s.awaitAuth(ctx); err != nil {
		return err
	}

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	if err := s.ensureIdentity(ctx); err != nil {
		return err
	}

	if _, ok := s.findItem(itemID); !ok {
		return s.staleItem(ctx, itemID)
	}

	s.log.Info("Removing item from cart", logger.Fields{
		"cart_item_id": itemID,
	})

	s.beginCall()
	err := s.api.RemoveCartItem(ctx, itemID)
	s.endCall()
	if err != nil {
		return s.mutationFailed(err, fallbackRemoveItem, logger.Fields{"cart_item_id": itemID})
	}

	s.refetch(ctx)
	return nil
}

func (s *cartService) ClearCart(ctx context.Context) error {
	if err := s.awaitAuth(ctx); err != nil {
		return err
	}

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	if err := s.ensureIdentity(ctx); err != nil {
		return err
	}
	identity := s.currentIdentity()

	if identity.IsGuest() && !identity.HasSession() {
		s.log.Debug("Guest has no server cart, nothing to clear")
		s.setEmpty()
		return nil
	}

	s.log.Info("Clearing cart", logger.Fields{
		"identity": identity.Kind,
	})

	s.beginCall()
	err := s.api.ClearCart(ctx, identity.RequestSessionID())
	s.endCall()
	if err != nil {
		return s.mutationFailed(err, fallbackClearCart, nil)
	}

	s.setEmpty()
	return nil
}

// IdentityChanged moves the cart to the identity implied by the new
// authentication state. A held guest session is merged into the user cart
// exactly once; a merge failure only loses the guest lines.
func (s *cartService) IdentityChanged(ctx context.Context, authenticated bool) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	if s.isClosed() {
		return
	}

	prev := s.currentIdentity()
	if s.currentPhase() == PhaseUninitialized {
		sessionID, err := s.state.Get(ctx, model.StateKeyCartSessionID)
		if err != nil {
			s.log.Error("Failed to read guest cart session", err)
		}
		prev = GuestIdentity(sessionID)
	}

	if authenticated {
		if !prev.IsGuest() {
			return
		}
		next, mergeID := prev.Authenticated()
		if mergeID == "" {
			s.setIdentity(next, next.ActivePhase())
		} else {
			s.merge(ctx, next, mergeID)
		}
	} else {
		if prev.IsGuest() && s.currentPhase() != PhaseUninitialized {
			return
		}
		s.log.Info("Cart identity reset to a fresh guest")
		next := prev.LoggedOut()
		s.setIdentity(next, next.ActivePhase())
	}

	s.refetch(ctx)
}

func (s *cartService) merge(ctx context.Context, next CartIdentity, sessionID string) {
	s.setIdentity(next, PhaseMergePending)

	// the guest id is consumed before the request so it can never be sent twice
	if err := s.state.Delete(ctx, model.StateKeyCartSessionID); err != nil {
		s.log.Error("Failed to discard guest cart session", err)
	}

	s.log.Info("Merging guest cart into user cart")

	s.beginCall()
	err := s.api.MergeCart(ctx, sessionID)
	s.endCall()
	if err != nil {
		s.log.Warn("Guest cart merge failed, continuing with user cart", logger.Fields{
			"code":  apperrors.CartMergeFailed,
			"error": err.Error(),
		})
	}

	s.mu.Lock()
	if s.phase == PhaseMergePending {
		s.phase = PhaseUserActive
	}
	s.mu.Unlock()
	s.notify()
}

func (s *cartService) Snapshot() CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *cartService) Subscribe(fn func(CartSnapshot)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, cartSubscriber{id: id, fn: fn})

	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (s *cartService) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.notifyMu.Lock()
	s.subscribers = nil
	s.notifyMu.Unlock()
}

// awaitAuth holds an uninitialized engine until the auth manager has settled
// the stored session, so the first identity is never guessed. It must not be
// called with mutateMu held: the session check notifies IdentityChanged.
func (s *cartService) awaitAuth(ctx context.Context) error {
	if s.auth == nil || s.currentPhase() != PhaseUninitialized {
		return nil
	}
	if err := s.auth.WaitReady(ctx); err != nil {
		s.log.Warn("Gave up waiting for the session check", logger.Fields{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// resolveIdentity derives the identity from the auth signal and the stored
// guest session. A guest session still stored for an authenticated user is
// merged here, since the identity listener will see a user identity and skip
// it. Callers hold mutateMu.
func (s *cartService) resolveIdentity(ctx context.Context) error {
	sessionID, err := s.state.Get(ctx, model.StateKeyCartSessionID)
	if err != nil {
		s.log.Error("Failed to read guest cart session", err)
		return apperrors.Wrap(err, apperrors.InternalStateStore, fallbackFetchCart)
	}

	if s.auth != nil && s.auth.IsAuthenticated() {
		if sessionID != "" {
			s.merge(ctx, UserIdentity(), sessionID)
			return nil
		}
		s.setIdentity(UserIdentity(), PhaseUserActive)
		return nil
	}

	s.setIdentity(GuestIdentity(sessionID), PhaseGuestActive)
	return nil
}

func (s *cartService) ensureIdentity(ctx context.Context) error {
	if s.isClosed() {
		return ErrCartClosed
	}
	if s.currentPhase() != PhaseUninitialized {
		return nil
	}
	return s.resolveIdentity(ctx)
}

// applySession records the session id minted by the first guest add. The id
// is persisted before any later request uses it.
func (s *cartService) applySession(ctx context.Context, sessionID string) {
	if err := s.state.Set(ctx, model.StateKeyCartSessionID, sessionID); err != nil {
		s.log.Error("Failed to persist guest cart session, keeping it in memory", err)
	}

	s.mu.Lock()
	s.identity = s.identity.WithSession(sessionID)
	s.mu.Unlock()

	s.log.Debug("Guest cart session assigned")
}

// fetch loads the cart of the current identity. Results older than the last
// applied one, or issued under a previous identity, are dropped.
func (s *cartService) fetch(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrCartClosed
	}
	s.issued++
	seq := s.issued
	epoch := s.epoch
	identity := s.identity
	s.inflight++
	s.mu.Unlock()
	s.notify()

	var items []model.CartItem
	var err error
	if identity.IsGuest() && !identity.HasSession() {
		items = nil
	} else {
		items, err = s.api.CartItems(ctx, identity.RequestSessionID())
	}

	s.mu.Lock()
	s.inflight--
	if s.closed {
		s.mu.Unlock()
		return ErrCartClosed
	}
	if seq <= s.applied || epoch != s.epoch {
		s.mu.Unlock()
		s.log.Debug("Discarding outdated cart fetch", logger.Fields{"seq": seq})
		s.notify()
		return nil
	}
	s.applied = seq

	if err != nil {
		appErr := apperrors.FromAPI(err, fallbackFetchCart)
		s.phase = PhaseError
		s.errMsg = appErr.Message
		s.mu.Unlock()
		s.log.Error("Failed to fetch cart", err, logger.Fields{
			"identity": identity.Kind,
		})
		s.notify()
		return appErr
	}

	s.cart = model.NewCart(items)
	s.phase = identity.ActivePhase()
	s.errMsg = ""
	s.mu.Unlock()

	s.log.Debug("Cart fetched", logger.Fields{
		"identity": identity.Kind,
		"count":    len(items),
	})
	s.notify()
	return nil
}

// refetch follows a successful mutation. Its failure leaves the engine in
// the error phase but does not undo the mutation.
func (s *cartService) refetch(ctx context.Context) {
	if err := s.fetch(ctx); err != nil && !errors.Is(err, ErrCartClosed) {
		s.log.Warn("Cart refetch failed", logger.Fields{
			"error": err.Error(),
		})
	}
}

func (s *cartService) staleItem(ctx context.Context, itemID uint) error {
	s.log.Warn("Cart item not in current projection, refetching", logger.Fields{
		"cart_item_id": itemID,
	})
	s.refetch(ctx)
	return apperrors.New(apperrors.CartStaleItem, msgStaleItem)
}

func (s *cartService) mutationFailed(err error, fallback string, fields logger.Fields) error {
	appErr := apperrors.FromAPI(err, fallback)
	s.log.Error(fallback, err, fields)

	s.mu.Lock()
	if !s.closed {
		s.phase = PhaseError
		s.errMsg = appErr.Message
	}
	s.mu.Unlock()
	s.notify()
	return appErr
}

func (s *cartService) setEmpty() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	// in flight fetches were issued before the clear
	s.issued++
	s.applied = s.issued
	s.cart = model.NewCart(nil)
	s.phase = s.identity.ActivePhase()
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()
}

func (s *cartService) setIdentity(identity CartIdentity, phase CartPhase) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.identity = identity
	s.phase = phase
	s.epoch++
	s.mu.Unlock()
	s.notify()
}

func (s *cartService) findItem(itemID uint) (model.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Find(itemID)
}

func (s *cartService) currentIdentity() CartIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *cartService) currentPhase() CartPhase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *cartService) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *cartService) beginCall() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
	s.notify()
}

func (s *cartService) endCall() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

func (s *cartService) snapshotLocked() CartSnapshot {
	return CartSnapshot{
		Phase:    s.phase,
		Identity: s.identity,
		Cart:     s.cart.Clone(),
		Err:      s.errMsg,
		Loading:  s.inflight > 0,
	}
}

func (s *cartService) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return
	}
	snap := s.snapshotLocked()
	s.mu.RUnlock()

	for _, sub := range s.subscribers {
		sub.fn(snap)
	}
}
