// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyInternalError = "error.internal"
	KeyRateLimited   = "error.rate_limited"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"

	// Listings
	KeyListingCreated           = "listing.created"
	KeyListingNotFound          = "listing.not_found"
	KeyListingUploadFailed      = "listing.upload_failed"
	KeyListingPersistenceFailed = "listing.persistence_failed"

	// Orders
	KeyOrderCreated          = "order.created"
	KeyOrderNotFound         = "order.not_found"
	KeyPaymentFailed         = "payment.failed"
	KeyPaymentsUnavailable   = "payment.unavailable"
	KeyPaymentMethodRequired = "payment.method_required"

	// Validation
	KeyValidationInvalid = "validation.invalid"
	KeyTooManyImages     = "validation.too_many_images"

	// File Upload
	KeyFileInvalidType = "file.invalid_type"
	KeyFileTooLarge    = "file.too_large"

	// Search
	KeySearchFailed    = "search.failed"
	KeySearchNoResults = "search.no_results"
)
