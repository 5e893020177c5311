package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags how an option's raw input is coerced before storage.
type Kind int

const (
	// KindString stores raw input unchanged.
	KindString Kind = iota
	// KindBool interprets "1"/"true" as boolean presence.
	KindBool
	// KindInt coerces input to an integer, failing with ErrParse otherwise.
	KindInt
)

// Option is one configurable field: declaration (key, help, default, kind,
// requirement, predicates, hooks) plus the value cell resolved at runtime.
//
// Declared fields are set once via a struct literal and not mutated
// afterwards; the cell and scratch store are the only runtime state.
type Option struct {
	// Key identifies the option inside its container. Unique per container.
	Key string
	// Help is the leading prompt text.
	Help string
	// Default, when non-nil, substitutes for empty interactive input and is
	// shown in the composed prompt.
	Default any
	// Kind selects the coercion applied to raw input.
	Kind Kind
	// Optional inverts the default requirement: an option is required
	// unless Optional is true.
	Optional bool
	// SkipPrompt excludes the option from interactive prompting. It still
	// resolves from a pre-supplied value or its default, like a flag-only
	// option.
	SkipPrompt bool
	// Condition, when declared, gates visibility. It is evaluated lazily at
	// visibility-check time, never at declaration time, so closing over
	// sibling options that resolve later in the pass is legal.
	Condition func(*Settings) bool
	// Validate, when declared, runs after every successful assignment and
	// hook invocation. A non-nil error retries the prompt.
	Validate func(*Option) error
	// Decorate, when declared, contributes a dynamic suffix to the prompt.
	// It is invoked fresh on every retry: its output may depend on mutable
	// scratch state and is never cached.
	Decorate func(*Option) string
	// After, when declared, runs after a value commits. A non-nil error
	// unwinds the assignment (the cell returns to unset) and retries.
	After func(*Option) error

	settings *Settings
	cell     Value
	failed   bool
	scratch  map[string]any
}

// Source selects exactly one way of feeding a value into Resolve: a direct
// raw value, an interactive prompt, or a programmatic init.
type Source struct {
	value       *string
	interactive bool
	init        any
	hasInit     bool
}

// FromValue resolves with a direct raw value, coerced and run through hooks
// and validation exactly once. Failures are returned, not retried.
func FromValue(v string) Source { return Source{value: &v} }

// FromPrompt resolves interactively, retrying on parse, hook, validation,
// and required-field failures.
func FromPrompt() Source { return Source{interactive: true} }

// FromInit resolves programmatically: the value is stored as-is, bypassing
// coercion, hooks, and validation. A nil value is a deliberate no-op that
// leaves the cell unset.
func FromInit(v any) Source { return Source{init: v, hasInit: true} }

// Settings returns the container this option belongs to. Nil until the
// option is registered via New.
func (o *Option) Settings() *Settings { return o.settings }

// Value returns the resolved value, or nil while the cell is unset.
func (o *Option) Value() any { return o.cell.Get() }

// IsSet reports whether the option was explicitly resolved.
func (o *Option) IsSet() bool { return o.cell.IsSet() }

// SetValue overwrites the stored value without re-running coercion, hooks,
// or validation. Intended for post-set hooks that canonicalize their own
// option's value (for example replacing a numeric menu choice with the
// resource name it selected).
func (o *Option) SetValue(v any) { o.cell.Set(v) }

// String returns the resolved value rendered as a string, or "" while
// unset.
func (o *Option) String() string {
	v := o.cell.Get()
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Bool returns the resolved value as a boolean. Unset cells and non-boolean
// values are falsy, so predicates can reference hidden siblings safely.
func (o *Option) Bool() bool {
	b, ok := o.cell.Get().(bool)
	return ok && b
}

// Int returns the resolved value as an integer, or 0 while unset.
func (o *Option) Int() int {
	n, _ := o.cell.Get().(int)
	return n
}

// Scratch returns the option's key-value scratch store, used to hand state
// from the prompt decorator to the post-set hook within one resolution.
func (o *Option) Scratch() map[string]any {
	if o.scratch == nil {
		o.scratch = make(map[string]any)
	}
	return o.scratch
}

// required reports the effective requirement flag.
func (o *Option) required() bool { return !o.Optional }

// hasExplicitValue is the truthiness contract behind the required check: an
// empty string, zero, or uncommitted false does not satisfy a required
// option, so empty input on a defaultless required option loops with a
// notice rather than failing coercion.
func (o *Option) hasExplicitValue() bool {
	switch v := o.cell.Get().(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case int:
		return v != 0
	default:
		return true
	}
}

// visible evaluates the option-level visibility predicate. Called
// immediately before each prompt, never memoized: an earlier option in the
// same pass may have just changed the referenced value.
func (o *Option) visible() bool {
	return o.Condition == nil || o.Condition(o.settings)
}

// promptText composes the interactive prompt: help text, key, default (if
// any), and the dynamic decorator suffix (if declared).
func (o *Option) promptText() string {
	def := ""
	if o.Default != nil {
		def = fmt.Sprintf(" [%v]", o.Default)
	}
	suffix := ""
	if o.Decorate != nil {
		suffix = "\n" + o.Decorate(o) + "\nInput"
	}
	return fmt.Sprintf("%s (%s)%s%s: ", o.Help, o.Key, def, suffix)
}

// Resolve drives the option through one resolution according to src. The
// console carries prompts and diagnostics; it must be non-nil for
// interactive sources.
//
// Exactly one source must be populated. Interactive resolution loops until
// the option holds an acceptable value: parse failures, hook failures
// (which unwind the assignment), validation failures, and required-field
// violations each re-prompt with a diagnostic. Direct-value resolution
// performs a single cycle and returns the first failure.
func (o *Option) Resolve(src Source, console Console) error {
	sources := 0
	if src.value != nil {
		sources++
	}
	if src.interactive {
		sources++
	}
	if src.hasInit {
		sources++
	}
	if sources != 1 {
		return fmt.Errorf("%w: option %q needs exactly one of value, prompt, or init", ErrConfiguration, o.Key)
	}
	if src.hasInit {
		if src.init == nil {
			return nil
		}
		o.cell.Set(src.init)
		return nil
	}
	if console == nil {
		console = NopConsole{}
	}
	for {
		var raw string
		if src.interactive {
			line, err := console.Prompt(o.promptText())
			if err != nil {
				return err
			}
			if line == "" && o.Default != nil {
				raw = fmt.Sprint(o.Default)
			} else {
				raw = line
			}
		} else {
			raw = *src.value
		}

		if err := o.assign(raw, console); err != nil {
			if src.interactive {
				console.Notice("%v", err)
				continue
			}
			return err
		}
		if o.failed {
			o.cell.Clear()
			if src.interactive {
				continue
			}
			return fmt.Errorf("%w: option %q post-set hook failed", ErrValidation, o.Key)
		}
		if err := o.runValidation(console); err != nil {
			if src.interactive {
				continue
			}
			return err
		}
		if o.hasExplicitValue() || !o.required() {
			return nil
		}
		if !src.interactive {
			return fmt.Errorf("%w: %s", ErrRequired, o.Key)
		}
		console.Notice("Required Field")
	}
}

// assign coerces raw per the option kind, commits it to the cell, and runs
// the post-set hook. The hook outcome lands in the option's error flag; the
// caller decides whether to unwind.
func (o *Option) assign(raw string, console Console) error {
	var val any = raw
	switch o.Kind {
	case KindBool:
		switch raw {
		case "1", "true":
			val = true
		case "0", "false":
			// A textual false never commits: the cell stays unset and the
			// post-set hook does not run. Asymmetric with the true case;
			// kept as-is deliberately.
			return nil
		}
	case KindInt:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: %q is not an integer", ErrParse, raw)
		}
		val = n
	}
	o.cell.Set(val)
	o.failed = false
	if o.After != nil {
		if err := o.After(o); err != nil {
			o.failed = true
			if console != nil {
				console.Notice("%v", err)
			}
		}
	}
	return nil
}
