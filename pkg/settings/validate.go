package settings

import "fmt"

// runValidation applies the option's validation predicate to the value just
// assigned. Validation is a pure predicate layer: it runs after the post-set
// hook succeeded and has no side effects of its own. A failure is reported
// through the console and wrapped in ErrValidation for non-interactive
// callers; the stored value is left in place for the retry to overwrite.
func (o *Option) runValidation(console Console) error {
	if o.Validate == nil {
		return nil
	}
	if err := o.Validate(o); err != nil {
		if console != nil {
			console.Notice("%v", err)
		}
		return fmt.Errorf("%w: %s: %v", ErrValidation, o.Key, err)
	}
	return nil
}
