package errors

// Error codes returned in the "error" field of JSON responses.
// Format: CATEGORY_SPECIFIC_DETAIL

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"

	// ==================== Migration (MIGRATION_) ====================
	MigrationConnectionFailed = "MIGRATION_CONNECTION_FAILED"
	MigrationInProgress       = "MIGRATION_IN_PROGRESS"
	MigrationFailed           = "MIGRATION_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
)

// Destination write failure classes.
const (
	WriteKindForeignKey   = "foreign_key"
	WriteKindDuplicateKey = "duplicate_key"
	WriteKindNotNull      = "not_null"
	WriteKindCheck        = "check"
	WriteKindInvalidInput = "invalid_input"
	WriteKindTransport    = "transport"
	WriteKindOther        = "other"
)
