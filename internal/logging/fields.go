package logging

// Field name constants for structured logging.
// Using constants prevents typos and enables IDE autocomplete.
const (
	// Common fields.
	FieldError = "error"
	FieldPath  = "path"
	FieldInput = "input"
	FieldTitle = "title"

	// Pipeline fields.
	FieldSeq      = "seq"
	FieldBytes    = "bytes"
	FieldWarnings = "warnings"
	FieldDecision = "decision"
	FieldChunks   = "chunks"

	// Configuration fields.
	FieldTheme  = "theme"
	FieldFlavor = "flavor"
	FieldMode   = "mode"
	FieldOutput = "output"

	// Server fields.
	FieldAddr = "addr"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
