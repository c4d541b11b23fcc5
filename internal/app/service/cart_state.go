package service

import "github.com/gamexpress/storefront/internal/app/model"

// CartPhase is the engine's position in the cart state machine.
type CartPhase string

const (
	PhaseUninitialized CartPhase = "uninitialized"
	PhaseGuestActive   CartPhase = "guest_active"
	PhaseMergePending  CartPhase = "merge_pending"
	PhaseUserActive    CartPhase = "user_active"
	PhaseError         CartPhase = "error"
)

type IdentityKind string

const (
	IdentityGuest IdentityKind = "guest"
	IdentityUser  IdentityKind = "user"
)

// CartIdentity addresses the server side cart. A guest holds a session id
// once the server minted one; a user is addressed by the bearer token.
type CartIdentity struct {
	Kind      IdentityKind `json:"kind" yaml:"kind"`
	SessionID string       `json:"session_id,omitempty" yaml:"session_id,omitempty"`
}

func GuestIdentity(sessionID string) CartIdentity {
	return CartIdentity{Kind: IdentityGuest, SessionID: sessionID}
}

func UserIdentity() CartIdentity {
	return CartIdentity{Kind: IdentityUser}
}

func (id CartIdentity) IsGuest() bool {
	return id.Kind == IdentityGuest
}

// HasSession reports whether a guest already has a server cart.
func (id CartIdentity) HasSession() bool {
	return id.IsGuest() && id.SessionID != ""
}

// WithSession records a session id minted by the server. Users never hold one.
func (id CartIdentity) WithSession(sessionID string) CartIdentity {
	if !id.IsGuest() || sessionID == "" {
		return id
	}
	return GuestIdentity(sessionID)
}

// Authenticated returns the user identity and the guest session id that has
// to be merged, if any.
func (id CartIdentity) Authenticated() (CartIdentity, string) {
	if id.HasSession() {
		return UserIdentity(), id.SessionID
	}
	return UserIdentity(), ""
}

// LoggedOut returns a fresh guest identity with no session.
func (id CartIdentity) LoggedOut() CartIdentity {
	return GuestIdentity("")
}

// RequestSessionID is the session id sent with cart requests, empty for users.
func (id CartIdentity) RequestSessionID() string {
	if id.IsGuest() {
		return id.SessionID
	}
	return ""
}

// ActivePhase is the phase a successful fetch settles in.
func (id CartIdentity) ActivePhase() CartPhase {
	if id.IsGuest() {
		return PhaseGuestActive
	}
	return PhaseUserActive
}

// CartSnapshot is an immutable copy of the engine state.
type CartSnapshot struct {
	Phase    CartPhase    `json:"phase" yaml:"phase"`
	Identity CartIdentity `json:"identity" yaml:"identity"`
	Cart     model.Cart   `json:"cart" yaml:"cart"`
	Err      string       `json:"error,omitempty" yaml:"error,omitempty"`
	Loading  bool         `json:"loading" yaml:"loading"`
}
