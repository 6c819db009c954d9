package host

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"andromeda/storage"
)

var contractStorePrefix = []byte("c/")

// ContractStore namespaces a database under a single contract address and
// encodes values with rlp.
type ContractStore struct {
	db        storage.Database
	namespace []byte
}

// NewContractStore returns the store for addr inside db.
func NewContractStore(db storage.Database, addr string) *ContractStore {
	ns := make([]byte, 0, len(contractStorePrefix)+len(addr)+1)
	ns = append(ns, contractStorePrefix...)
	ns = append(ns, addr...)
	ns = append(ns, '/')
	return &ContractStore{db: db, namespace: ns}
}

// NewMemoryStore returns a store backed by a fresh in-memory database.
func NewMemoryStore() *ContractStore {
	return NewContractStore(storage.NewMemDB(), "memory")
}

func (s *ContractStore) key(key []byte) []byte {
	out := make([]byte, 0, len(s.namespace)+len(key))
	out = append(out, s.namespace...)
	return append(out, key...)
}

// KVPut stores value under key using rlp encoding.
func (s *ContractStore) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return s.db.Put(s.key(key), encoded)
}

// KVGet decodes the value under key into out. The boolean reports whether the
// key existed.
func (s *ContractStore) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := s.db.Get(s.key(key))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes key.
func (s *ContractStore) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return s.db.Delete(s.key(key))
}

// KVIterate walks keys under prefix. Keys passed to fn are relative to the
// contract namespace.
func (s *ContractStore) KVIterate(prefix []byte, fn func(key []byte, decode func(out interface{}) error) (bool, error)) error {
	var callbackErr error
	err := s.db.Iterate(s.key(prefix), func(key, value []byte) bool {
		relative := append([]byte(nil), key[len(s.namespace):]...)
		decode := func(out interface{}) error {
			return rlp.DecodeBytes(value, out)
		}
		cont, err := fn(relative, decode)
		if err != nil {
			callbackErr = err
			return false
		}
		return cont
	})
	if callbackErr != nil {
		return callbackErr
	}
	return err
}
