package decoder

import "errors"

// Sentinel errors surfaced by a decoder run. Callers check against these
// using errors.Is.
var (
	// ErrInvalidOptions indicates malformed decoder options: a missing
	// input path, an empty or duplicated column map, or an unknown output
	// mode. Always fatal, reported before any filesystem work starts.
	ErrInvalidOptions = errors.New("invalid decoder options")

	// ErrMissingColumn indicates a successfully decoded tabular file that
	// lacks one of the mapped source columns.
	ErrMissingColumn = errors.New("mapped column not present in input")

	// ErrDecode indicates that no text encoding in the fallback list could
	// decode a delimited file. The final encoding in the list is a
	// single-byte one that cannot fail on decode, so this is fatal for the
	// file and, at present, for the traversal.
	ErrDecode = errors.New("could not decode file content")
)
