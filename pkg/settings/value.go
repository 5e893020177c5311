package settings

// Value is the storage primitive behind every Option: a single mutable typed
// slot where "unset" is distinguishable from every stored value, including
// falsy ones (an explicit false is set; an untouched cell is not).
//
// No validation lives here. Mutation happens only through the Option
// assignment contract; external code reads through Option accessors.
type Value struct {
	raw any
	set bool
}

// Set stores v and transitions the cell to explicitly-set. It always
// succeeds.
func (v *Value) Set(raw any) {
	v.raw = raw
	v.set = true
}

// Get returns the stored value, or nil while the cell is unset. Reading an
// unset cell is not an error: downstream visibility predicates routinely
// reference options that were never resolved.
func (v *Value) Get() any {
	if !v.set {
		return nil
	}
	return v.raw
}

// IsSet reports whether the cell was explicitly set. This is distinct from
// the truthiness of the stored value.
func (v *Value) IsSet() bool {
	return v.set
}

// Clear returns the cell to the unset state, discarding any stored value.
// Used to unwind an assignment whose post-set hook failed.
func (v *Value) Clear() {
	v.raw = nil
	v.set = false
}
