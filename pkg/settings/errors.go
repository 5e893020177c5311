package settings

import "errors"

// Sentinel errors returned by the settings framework. Callers can check
// against these using errors.Is.
var (
	// ErrConfiguration indicates a malformed option declaration or caller
	// misuse, such as supplying zero or multiple value sources to Resolve,
	// or declaring two options with the same key. Always fatal.
	ErrConfiguration = errors.New("invalid setting configuration")

	// ErrParse indicates that a raw input value could not be coerced into
	// the option's declared kind. Recoverable in interactive mode (retry),
	// fatal otherwise.
	ErrParse = errors.New("could not parse input value")

	// ErrRequired indicates a required option that ended a resolution cycle
	// without an explicitly set value and no way to prompt for one.
	ErrRequired = errors.New("required setting not provided")

	// ErrValidation indicates that an assigned value was rejected by the
	// option's validation predicate or post-set hook.
	ErrValidation = errors.New("setting value rejected")

	// ErrInterrupted indicates that the interactive input source ended
	// before the resolution pass completed (EOF on the console).
	ErrInterrupted = errors.New("prompt interrupted")
)
