package reactive

import "reflect"

// Signal is a reactive value container.
// Reading a Signal's value while a computation is evaluating subscribes that
// computation to the signal. Writes are stored immediately, so code running
// after a write in the same tick reads the new value, but subscribers are
// invalidated only when the write settles.
type Signal[T any] struct {
	rt *Runtime
	n  *node

	// value is the current value; committed is the value subscribers were
	// last invalidated for.
	value     T
	committed T

	// equal is the equality function used to determine if the value changed.
	// If nil, uses default equality checking.
	equal func(T, T) bool

	always bool
}

// NewSignal creates a new signal with the given initial value in the
// runtime's current scope.
func NewSignal[T any](rt *Runtime, initial T) *Signal[T] {
	s := &Signal[T]{
		rt:        rt,
		value:     initial,
		committed: initial,
	}
	s.n = rt.newNode(KindSignal, "")
	s.n.settle = s.settle
	return s
}

// Get returns the current value and subscribes the running computation.
// It panics with an ErrInvalidHandle error if the signal was destroyed.
func (s *Signal[T]) Get() T {
	v, err := s.Read()
	if err != nil {
		panic(err)
	}
	return v
}

// Read is Get returning an error instead of panicking.
func (s *Signal[T]) Read() (T, error) {
	if s.n.disposed {
		var zero T
		return zero, invalidHandle(s.n.id)
	}
	s.rt.recordRead(s.n)
	return s.value, nil
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	if s.n.disposed {
		panic(invalidHandle(s.n.id))
	}
	return s.value
}

// Set updates the value. Writes to a destroyed signal are dropped.
func (s *Signal[T]) Set(value T) {
	if err := s.Write(value); err != nil {
		s.rt.logger.Debug("write to destroyed signal dropped", "node", s.n.info().String())
	}
}

// Write updates the value and reports an error if the signal was destroyed.
// A value equal to the current one is a no-op.
func (s *Signal[T]) Write(value T) error {
	if s.n.disposed {
		return invalidHandle(s.n.id)
	}
	if !s.always && s.equals(s.value, value) {
		return nil
	}
	s.value = value
	s.rt.enqueue(s.n)
	return nil
}

// Update replaces the value with fn applied to the current value.
// It does nothing on a destroyed signal.
func (s *Signal[T]) Update(fn func(T) T) {
	if s.n.disposed {
		return
	}
	s.Set(fn(s.value))
}

// WithEquals returns the signal configured with a custom equality function.
// This is useful for custom types where reflect.DeepEqual is too expensive
// or has incorrect semantics.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// AlwaysNotify makes every write invalidate subscribers, even when the new
// value equals the old one.
func (s *Signal[T]) AlwaysNotify() *Signal[T] {
	s.always = true
	return s
}

// Named sets a label shown in diagnostics.
func (s *Signal[T]) Named(label string) *Signal[T] {
	s.n.label = label
	return s
}

// ID returns the node ID of this signal.
func (s *Signal[T]) ID() NodeID {
	return s.n.id
}

// Disposed reports whether the signal was destroyed.
func (s *Signal[T]) Disposed() bool {
	return s.n.disposed
}

func (s *Signal[T]) settle() bool {
	if s.always {
		s.committed = s.value
		return true
	}
	if s.equals(s.committed, s.value) {
		return false
	}
	s.committed = s.value
	return true
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals provides type-appropriate equality checking.
// Uses == for basic types and reflect.DeepEqual for others.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
