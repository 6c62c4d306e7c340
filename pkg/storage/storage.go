// Package storage provides the key-value store capability the game engine
// runs against. State is kept in named, typed cells so that every engine
// operation can be reconstructed from persisted fields alone: scalar items,
// keyed maps (where absence is an explicit signal, distinct from a zero
// value), and ordered lists. Values are JSON-encoded.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrEmptyCell is returned when a scalar cell is loaded before it has ever
// been written.
var ErrEmptyCell = errors.New("storage: cell is empty")

// IsEmptyCell reports whether err signals an unwritten cell.
func IsEmptyCell(err error) bool {
	return errors.Is(err, ErrEmptyCell)
}

// Backend is the raw key-value interface. Get reports absence explicitly;
// implementations must never return a zero-length value as a stand-in for
// a missing key.
type Backend interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Item is a descriptor for a single typed scalar cell.
type Item[T any] struct {
	key string
}

// NewItem creates a scalar cell descriptor stored under key.
func NewItem[T any](key string) Item[T] {
	return Item[T]{key: key}
}

// Load reads the cell. Returns ErrEmptyCell if it was never written.
func (it Item[T]) Load(s Backend) (T, error) {
	var v T
	raw, ok, err := s.Get(it.key)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("%w: %s", ErrEmptyCell, it.key)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("storage: decode %s: %w", it.key, err)
	}
	return v, nil
}

// Save writes the cell.
func (it Item[T]) Save(s Backend, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", it.key, err)
	}
	return s.Set(it.key, raw)
}

// Map is a descriptor for a keyed mapping. A missing key is reported as
// absent rather than as a zero value.
type Map[T any] struct {
	prefix string
}

// NewMap creates a keyed mapping descriptor under the given namespace.
func NewMap[T any](prefix string) Map[T] {
	return Map[T]{prefix: prefix}
}

func (m Map[T]) storageKey(key string) string {
	return m.prefix + "/" + key
}

// Get reads the entry for key. ok is false when the entry is absent.
func (m Map[T]) Get(s Backend, key string) (T, bool, error) {
	var v T
	raw, ok, err := s.Get(m.storageKey(key))
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("storage: decode %s: %w", m.storageKey(key), err)
	}
	return v, true, nil
}

// Has reports whether an entry exists for key.
func (m Map[T]) Has(s Backend, key string) (bool, error) {
	_, ok, err := s.Get(m.storageKey(key))
	return ok, err
}

// Set writes the entry for key.
func (m Map[T]) Set(s Backend, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", m.storageKey(key), err)
	}
	return s.Set(m.storageKey(key), raw)
}

// Delete removes the entry for key. Deleting an absent entry is a no-op.
func (m Map[T]) Delete(s Backend, key string) error {
	return s.Delete(m.storageKey(key))
}

// List is a descriptor for an ordered collection. Elements are stored under
// indexed keys with the length tracked in a companion cell.
type List[T any] struct {
	prefix string
	length Item[int]
}

// NewList creates an ordered collection descriptor under the given namespace.
func NewList[T any](prefix string) List[T] {
	return List[T]{
		prefix: prefix,
		length: NewItem[int](prefix + "#len"),
	}
}

func (l List[T]) elemKey(i int) string {
	return l.prefix + "#" + strconv.Itoa(i)
}

// Len returns the number of elements; an unwritten list has length zero.
func (l List[T]) Len(s Backend) (int, error) {
	n, err := l.length.Load(s)
	if errors.Is(err, ErrEmptyCell) {
		return 0, nil
	}
	return n, err
}

// Get returns the element at index i.
func (l List[T]) Get(s Backend, i int) (T, error) {
	var v T
	raw, ok, err := s.Get(l.elemKey(i))
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("%w: %s", ErrEmptyCell, l.elemKey(i))
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("storage: decode %s: %w", l.elemKey(i), err)
	}
	return v, nil
}

// Append adds v at the end of the list.
func (l List[T]) Append(s Backend, v T) error {
	n, err := l.Len(s)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", l.elemKey(n), err)
	}
	if err := s.Set(l.elemKey(n), raw); err != nil {
		return err
	}
	return l.length.Save(s, n+1)
}

// All returns every element in order.
func (l List[T]) All(s Backend) ([]T, error) {
	n, err := l.Len(s)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := l.Get(s, i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Remove deletes the element at index i, shifting later elements down.
func (l List[T]) Remove(s Backend, i int) error {
	n, err := l.Len(s)
	if err != nil {
		return err
	}
	if i < 0 || i >= n {
		return fmt.Errorf("storage: remove index %d out of range (len %d)", i, n)
	}
	for j := i; j < n-1; j++ {
		raw, ok, err := s.Get(l.elemKey(j + 1))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrEmptyCell, l.elemKey(j+1))
		}
		if err := s.Set(l.elemKey(j), raw); err != nil {
			return err
		}
	}
	if err := s.Delete(l.elemKey(n - 1)); err != nil {
		return err
	}
	return l.length.Save(s, n-1)
}

// Clear removes every element.
func (l List[T]) Clear(s Backend) error {
	n, err := l.Len(s)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := s.Delete(l.elemKey(i)); err != nil {
			return err
		}
	}
	return l.length.Save(s, 0)
}
