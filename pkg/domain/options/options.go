// Package options provides the generic functional options used by every
// component in the module.
package options

// Option modifies some options type T
type Option[T any] interface {
	ApplyOption(*T) error
}

// OptionFunc adapts a plain function to the Option interface
type OptionFunc[T any] func(*T) error

// ApplyOption implements Option. A nil OptionFunc is a no-op.
func (f OptionFunc[T]) ApplyOption(o *T) error {
	if f == nil {
		return nil
	}
	return f(o)
}

// Apply applies opts to target in order, stopping at the first error.
// Nil options are skipped.
func Apply[T any](target *T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.ApplyOption(target); err != nil {
			return err
		}
	}
	return nil
}

// Build starts from defaults and applies opts, returning the result.
func Build[T any](defaults T, opts ...Option[T]) (T, error) {
	out := defaults
	if err := Apply(&out, opts...); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
