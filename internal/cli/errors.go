package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Config errors
	ErrConfigInvalid = "CONFIG_INVALID"

	// Document errors
	ErrDocNotFound    = "DOC_NOT_FOUND"
	ErrDocNotSelected = "DOC_NOT_SELECTED"
	ErrFileWriteError = "FILE_WRITE_ERROR"

	// Position errors
	ErrInvalidPosition = "INVALID_POSITION"

	// Marker errors
	ErrMarkerNotFound  = "MARKER_NOT_FOUND"
	ErrKeyNotInMarker  = "KEY_NOT_IN_MARKER"
	ErrUnknownKind     = "UNKNOWN_KIND"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// Resolution errors
	ErrNoSources   = "NO_SOURCES"
	ErrKeyNotFound = "KEY_NOT_FOUND"

	// Docs errors
	ErrDocsTopicNotFound = "DOCS_TOPIC_NOT_FOUND"
)
