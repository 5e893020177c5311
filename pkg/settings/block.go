package settings

import "fmt"

// Block is a named, conditionally visible group of options, rendered and
// resolved together. A hidden block skips every option it contains; their
// cells remain unset and downstream predicates must treat them as absent.
type Block struct {
	// Label heads the block in interactive output.
	Label string
	// Condition, when declared, gates the whole block. Evaluated once per
	// resolution pass, before iterating the options.
	Condition func(*Settings) bool
	// Options resolve in declaration order.
	Options []*Option
}

// visible evaluates the block-level predicate.
func (b *Block) visible(s *Settings) bool {
	return b.Condition == nil || b.Condition(s)
}

// Settings is the top-level container: an ordered sequence of blocks plus a
// shared scratch map for cross-option resources (for example a lazily
// constructed cloud client handed from one option's hook to another's).
//
// Scratch state is mutated by hooks and read by later options with no
// locking; this is safe only because resolution is strictly single-threaded
// and ordered.
type Settings struct {
	Blocks []*Block

	// Custom is the shared scratch store.
	Custom map[string]any

	byKey map[string]*Option
}

// New builds a container from blocks, wiring every option back to it and
// indexing keys. Duplicate keys across the container are a declaration
// error.
func New(blocks ...*Block) (*Settings, error) {
	s := &Settings{
		Blocks: blocks,
		Custom: make(map[string]any),
		byKey:  make(map[string]*Option),
	}
	for _, b := range blocks {
		for _, o := range b.Options {
			if o.Key == "" {
				return nil, fmt.Errorf("%w: option in block %q has no key", ErrConfiguration, b.Label)
			}
			if _, dup := s.byKey[o.Key]; dup {
				return nil, fmt.Errorf("%w: duplicate option key %q", ErrConfiguration, o.Key)
			}
			o.settings = s
			s.byKey[o.Key] = o
		}
	}
	return s, nil
}

// Option returns the option registered under key, or nil.
func (s *Settings) Option(key string) *Option {
	return s.byKey[key]
}

// Value returns the resolved value for key, or nil when the key is unknown
// or unresolved. Predicates use this to reference not-yet-visible siblings
// without erroring.
func (s *Settings) Value(key string) any {
	o := s.byKey[key]
	if o == nil {
		return nil
	}
	return o.Value()
}

// Bool returns the resolved value for key as a boolean; unset and unknown
// keys are falsy.
func (s *Settings) Bool(key string) bool {
	o := s.byKey[key]
	return o != nil && o.Bool()
}

// String returns the resolved value for key rendered as a string, or "".
func (s *Settings) String(key string) string {
	o := s.byKey[key]
	if o == nil {
		return ""
	}
	return o.String()
}

// Int returns the resolved value for key as an integer, or 0.
func (s *Settings) Int(key string) int {
	o := s.byKey[key]
	if o == nil {
		return 0
	}
	return o.Int()
}
