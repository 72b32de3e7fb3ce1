/*
File Name:  Memory.go
Copyright:  2021 Peernet s.r.o.
*/

package store

import (
	"sync"
)

// MemoryStore is a simple in-memory key/value store.
type MemoryStore struct {
	mutex *sync.RWMutex
	data  map[string][]byte
}

// NewMemoryStore create a properly initialized memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string][]byte),
		mutex: &sync.RWMutex{},
	}
}

// Set stores the key/value pair.
func (ms *MemoryStore) Set(key []byte, data []byte) error {
	value := make([]byte, len(data))
	copy(value, data)

	ms.mutex.Lock()
	ms.data[string(key)] = value
	ms.mutex.Unlock()
	return nil
}

// Get returns the value for the key if present.
func (ms *MemoryStore) Get(key []byte) (data []byte, found bool) {
	ms.mutex.RLock()
	data, found = ms.data[string(key)]
	ms.mutex.RUnlock()
	return data, found
}

// Delete deletes a key/value pair.
func (ms *MemoryStore) Delete(key []byte) {
	ms.mutex.Lock()
	delete(ms.data, string(key))
	ms.mutex.Unlock()
}

// Count returns the number of keys.
func (ms *MemoryStore) Count() uint64 {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()
	return uint64(len(ms.data))
}

// Iterate calls the callback for every key/value pair. The callback must not modify the store.
func (ms *MemoryStore) Iterate(callback func(key, data []byte) bool) error {
	ms.mutex.RLock()
	defer ms.mutex.RUnlock()

	for key, data := range ms.data {
		if !callback([]byte(key), data) {
			break
		}
	}
	return nil
}

// Close is a no-op for the memory store.
func (ms *MemoryStore) Close() error {
	return nil
}
