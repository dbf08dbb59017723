package domain

// Optional distinguishes a field that was left out from one explicitly set,
// including explicitly set to null.
type Optional[T any] struct {
	value   T
	present bool
	null    bool
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

func Null[T any]() Optional[T] {
	return Optional[T]{present: true, null: true}
}

func (o Optional[T]) Present() bool {
	return o.present
}

func (o Optional[T]) IsNull() bool {
	return o.present && o.null
}

// Get returns the value when it is present and not null.
func (o Optional[T]) Get() (T, bool) {
	if !o.present || o.null {
		var zero T
		return zero, false
	}
	return o.value, true
}
