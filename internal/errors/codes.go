package errors

// Error code constants, CATEGORY_SPECIFIC_DETAIL. Front ends map these codes
// to presentation, the message field is already user displayable.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email or password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // stored token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // stored token rejected by the server
	AuthCSRFFailed         = "AUTH_CSRF_FAILED"         // csrf preflight or token mismatch

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput    = "VALIDATION_INVALID_INPUT"
	ValidationInvalidQuantity = "VALIDATION_INVALID_QUANTITY" // quantity below 1
	ValidationSoldOut         = "VALIDATION_SOLD_OUT"         // product out of stock
	ValidationInvalidFile     = "VALIDATION_INVALID_FILE"     // image type or size

	// ==================== Cart (CART_) ====================
	CartStaleItem   = "CART_STALE_ITEM"   // item no longer in the projection
	CartMergeFailed = "CART_MERGE_FAILED" // guest cart could not be merged

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"

	// ==================== Network (NETWORK_) ====================
	NetworkError = "NETWORK_ERROR"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError        = "INTERNAL_SERVER_ERROR"
	InternalUnexpectedResponse = "INTERNAL_UNEXPECTED_RESPONSE"
	InternalStateStore         = "INTERNAL_STATE_STORE"
)
