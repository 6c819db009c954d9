package message

import (
	"encoding/binary"
	"strconv"
)

const (
	idxActor          = "actor"
	idxContract       = "contract"
	idxMessageName    = "message_name"
	idxWasmactionName = "wasmaction_name"
)

var (
	authPrefix       = []byte("message/auth/")
	indexPrefix      = []byte("message/idx/")
	identifierPrefix = []byte("message/ident/")
	counterKey       = []byte("message/counter")
)

type optString struct {
	Set   bool
	Value string
}

func toOpt(s *string) optString {
	if s == nil {
		return optString{}
	}
	return optString{Set: true, Value: *s}
}

func (o optString) ptr() *string {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

type fieldRecord struct {
	Key   string
	Value string
}

type authRecord struct {
	Identifier     uint16
	Actor          optString
	Contract       optString
	MessageName    optString
	WasmactionName optString
	HasFields      bool
	Fields         []fieldRecord
}

func toRecord(a Authorization) authRecord {
	rec := authRecord{
		Identifier:     a.Identifier,
		Actor:          toOpt(a.Actor),
		Contract:       toOpt(a.Contract),
		MessageName:    toOpt(a.MessageName),
		WasmactionName: toOpt(a.WasmactionName),
		HasFields:      a.HasFields(),
		Fields:         make([]fieldRecord, 0, len(a.Fields)),
	}
	for _, f := range a.Fields {
		rec.Fields = append(rec.Fields, fieldRecord{Key: f.Key(), Value: f.Value()})
	}
	return rec
}

func (rec authRecord) authorization() Authorization {
	a := Authorization{
		Identifier:     rec.Identifier,
		Actor:          rec.Actor.ptr(),
		Contract:       rec.Contract.ptr(),
		MessageName:    rec.MessageName.ptr(),
		WasmactionName: rec.WasmactionName.ptr(),
	}
	if rec.HasFields {
		a.Fields = make([]Field, 0, len(rec.Fields))
		for _, f := range rec.Fields {
			a.Fields = append(a.Fields, Field{f.Key, f.Value})
		}
	}
	return a
}

type tableState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVIterate(prefix []byte, fn func(key []byte, decode func(out interface{}) error) (bool, error)) error
}

// table is an indexed authorization store. Primary keys are decimal counter
// values; secondary index entries live under
// message/idx/<index>/<value>\x00<pk>.
type table struct {
	state tableState
}

func primaryKey(pk []byte) []byte {
	return append(append([]byte(nil), authPrefix...), pk...)
}

func indexValuePrefix(index, value string) []byte {
	out := append([]byte(nil), indexPrefix...)
	out = append(out, index...)
	out = append(out, '/')
	out = append(out, value...)
	return append(out, 0)
}

func indexKey(index, value string, pk []byte) []byte {
	return append(indexValuePrefix(index, value), pk...)
}

func identifierKey(id uint16) []byte {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], id)
	return append(append([]byte(nil), identifierPrefix...), buf[:]...)
}

func indexedValues(a Authorization) map[string]*string {
	return map[string]*string{
		idxActor:          a.Actor,
		idxContract:       a.Contract,
		idxMessageName:    a.MessageName,
		idxWasmactionName: a.WasmactionName,
	}
}

// nextKey returns the primary key for the next insert and advances the
// counter.
func (t table) nextKey() ([]byte, error) {
	var counter uint64
	if _, err := t.state.KVGet(counterKey, &counter); err != nil {
		return nil, err
	}
	if err := t.state.KVPut(counterKey, counter+1); err != nil {
		return nil, err
	}
	return []byte(strconv.FormatUint(counter, 10)), nil
}

func (t table) save(pk []byte, a Authorization) error {
	if err := t.state.KVPut(primaryKey(pk), toRecord(a)); err != nil {
		return err
	}
	for index, value := range indexedValues(a) {
		if value == nil {
			continue
		}
		if err := t.state.KVPut(indexKey(index, *value, pk), true); err != nil {
			return err
		}
	}
	if a.Identifier != 0 {
		return t.state.KVPut(identifierKey(a.Identifier), string(pk))
	}
	return nil
}

func (t table) get(pk []byte) (Authorization, bool, error) {
	var rec authRecord
	ok, err := t.state.KVGet(primaryKey(pk), &rec)
	if err != nil || !ok {
		return Authorization{}, ok, err
	}
	return rec.authorization(), true, nil
}

func (t table) remove(pk []byte) error {
	a, ok, err := t.get(pk)
	if err != nil || !ok {
		return err
	}
	for index, value := range indexedValues(a) {
		if value == nil {
			continue
		}
		if err := t.state.KVDelete(indexKey(index, *value, pk)); err != nil {
			return err
		}
	}
	if a.Identifier != 0 {
		if err := t.state.KVDelete(identifierKey(a.Identifier)); err != nil {
			return err
		}
	}
	return t.state.KVDelete(primaryKey(pk))
}

// all returns every entry in primary key order.
func (t table) all() ([]Entry, error) {
	var out []Entry
	err := t.state.KVIterate(authPrefix, func(key []byte, decode func(out interface{}) error) (bool, error) {
		var rec authRecord
		if err := decode(&rec); err != nil {
			return false, err
		}
		pk := append([]byte(nil), key[len(authPrefix):]...)
		out = append(out, Entry{Key: pk, Authorization: rec.authorization()})
		return true, nil
	})
	return out, err
}

// byIndex returns the entries whose index field equals value.
func (t table) byIndex(index, value string) ([]Entry, error) {
	prefix := indexValuePrefix(index, value)
	var keys [][]byte
	err := t.state.KVIterate(prefix, func(key []byte, _ func(out interface{}) error) (bool, error) {
		keys = append(keys, append([]byte(nil), key[len(prefix):]...))
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(keys))
	for _, pk := range keys {
		a, ok, err := t.get(pk)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Entry{Key: pk, Authorization: a})
		}
	}
	return out, nil
}

func (t table) byIdentifier(id uint16) (Entry, bool, error) {
	var pk string
	ok, err := t.state.KVGet(identifierKey(id), &pk)
	if err != nil || !ok {
		return Entry{}, ok, err
	}
	a, ok, err := t.get([]byte(pk))
	if err != nil || !ok {
		return Entry{}, ok, err
	}
	return Entry{Key: []byte(pk), Authorization: a}, true, nil
}
