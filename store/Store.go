/*
File Name:  Store.go
Copyright:  2021 Peernet s.r.o.

Simple key-value store used for operator-maintained data (blacklist). The routing table itself is never persisted.
*/

package store

// Store is the interface for implementing the storage mechanism.
type Store interface {
	// Set stores the key/value pair. An existing value is overwritten.
	Set(key []byte, data []byte) error

	// Get returns the value for the key if present.
	Get(key []byte) (data []byte, found bool)

	// Delete deletes a key/value pair.
	Delete(key []byte)

	// Count returns the number of keys.
	Count() uint64

	// Iterate calls the callback for every key/value pair until it returns false. Order is not defined.
	Iterate(callback func(key, data []byte) bool) error

	// Close closes the store
	Close() error
}
