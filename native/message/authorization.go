package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSuchAuthorization is matched by every NoSuchAuthorizationError.
	ErrNoSuchAuthorization = errors.New("message: no such authorization")
	ErrAuthExists          = errors.New("temporary error: auth exists")
	ErrTooManyMessages     = errors.New("message: only one message variant may be checked at a time")
	ErrMessageNotObject    = errors.New("message: message body is not an object")
)

// NoSuchAuthorizationError records where a lookup came up empty.
type NoSuchAuthorizationError struct {
	Loc string
}

func (e *NoSuchAuthorizationError) Error() string {
	return fmt.Sprintf("message: no such authorization (%s)", e.Loc)
}

func (e *NoSuchAuthorizationError) Is(target error) bool { return target == ErrNoSuchAuthorization }

// MultipleMatchingAuthorizationsError is returned by a single remove whose
// filter matched more than one entry.
type MultipleMatchingAuthorizationsError struct {
	Vector []Entry
}

func (e *MultipleMatchingAuthorizationsError) Error() string {
	keys := make([]string, 0, len(e.Vector))
	for _, entry := range e.Vector {
		keys = append(keys, string(entry.Key))
	}
	return fmt.Sprintf("message: multiple matching authorizations: [%s]; use rm_all_matching_authorizations", strings.Join(keys, ", "))
}

// Field is a (key, value) pair; it encodes as a two-element JSON array.
type Field [2]string

func (f Field) Key() string   { return f[0] }
func (f Field) Value() string { return f[1] }

// Authorization approves messages that match every set filter. An identifier
// of 0 means unassigned. Nil Fields approve any message body.
type Authorization struct {
	Identifier     uint16  `json:"identifier"`
	Actor          *string `json:"actor"`
	Contract       *string `json:"contract"`
	MessageName    *string `json:"message_name"`
	WasmactionName *string `json:"wasmaction_name"`
	Fields         []Field `json:"fields"`
}

// HasFields distinguishes an empty field list from no field list.
func (a Authorization) HasFields() bool { return a.Fields != nil }

func optionalEqual(want, got *string) bool {
	if want == nil {
		return true
	}
	return got != nil && *got == *want
}

func stringPtr(s string) *string { return &s }

// Entry is an authorization together with its primary key.
type Entry struct {
	Key           []byte
	Authorization Authorization
}

// MarshalJSON encodes the entry as [key_bytes, authorization] with the key as
// an array of byte values.
func (e Entry) MarshalJSON() ([]byte, error) {
	key := make([]int, len(e.Key))
	for i, b := range e.Key {
		key[i] = int(b)
	}
	return json.Marshal([]interface{}{key, e.Authorization})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("message: entry must be a [key, authorization] pair")
	}
	var key []int
	if err := json.Unmarshal(pair[0], &key); err != nil {
		return err
	}
	e.Key = make([]byte, len(key))
	for i, b := range key {
		if b < 0 || b > 255 {
			return fmt.Errorf("message: key byte %d out of range", b)
		}
		e.Key[i] = byte(b)
	}
	return json.Unmarshal(pair[1], &e.Authorization)
}

// AuthorizationsResponse answers authorization lookups.
type AuthorizationsResponse struct {
	Authorizations []Entry `json:"authorizations"`
}

// MarshalJSON keeps an empty result as [].
func (r AuthorizationsResponse) MarshalJSON() ([]byte, error) {
	type plain AuthorizationsResponse
	if r.Authorizations == nil {
		r.Authorizations = []Entry{}
	}
	return json.Marshal(plain(r))
}
