package message

import (
	"encoding/json"
	"errors"

	"andromeda/core/types"
)

// find resolves filter against the table.
//
// A non-zero identifier is a direct lookup. Otherwise a base set is drawn from
// the first set index (actor, contract, message_name, wasmaction_name) or the
// whole table, then narrowed by every remaining filter. With filter.Fields the
// lookup is by explicit fields: only authorizations carrying fields survive,
// and each must contain every requested pair. With msg the lookup matches a
// concrete message: any fields-free candidate approves it outright, otherwise
// every stored field must be present and equal in the message body.
func (t table) find(filter Authorization, msg json.RawMessage) ([]Entry, error) {
	if filter.Identifier > 0 {
		entry, ok, err := t.byIdentifier(filter.Identifier)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &NoSuchAuthorizationError{Loc: "identifier lookup"}
		}
		return []Entry{entry}, nil
	}

	var (
		working []Entry
		err     error
	)
	switch {
	case filter.Actor != nil:
		working, err = t.byIndex(idxActor, *filter.Actor)
	case filter.Contract != nil:
		working, err = t.byIndex(idxContract, *filter.Contract)
	case filter.MessageName != nil:
		working, err = t.byIndex(idxMessageName, *filter.MessageName)
	case filter.WasmactionName != nil:
		working, err = t.byIndex(idxWasmactionName, *filter.WasmactionName)
	default:
		working, err = t.all()
		if err == nil && !filter.HasFields() {
			return working, nil
		}
	}
	if err != nil {
		return nil, err
	}

	working = retain(working, func(a Authorization) bool {
		return optionalEqual(filter.Contract, a.Contract) &&
			optionalEqual(filter.MessageName, a.MessageName) &&
			optionalEqual(filter.WasmactionName, a.WasmactionName)
	})

	if filter.HasFields() {
		working = retain(working, Authorization.HasFields)
		if len(working) == 0 {
			return nil, &NoSuchAuthorizationError{Loc: "explicit field lookup"}
		}
		working = retain(working, func(a Authorization) bool {
			return containsAll(a.Fields, filter.Fields)
		})
	}

	if msg != nil {
		open := retain(append([]Entry(nil), working...), func(a Authorization) bool { return !a.HasFields() })
		if len(open) > 0 {
			return open, nil
		}
		body, err := variantBody(msg)
		if err != nil {
			return nil, err
		}
		working = retain(working, func(a Authorization) bool {
			return bodyMatches(body, a.Fields)
		})
	}
	return working, nil
}

func retain(entries []Entry, keep func(Authorization) bool) []Entry {
	out := entries[:0]
	for _, e := range entries {
		if keep(e.Authorization) {
			out = append(out, e)
		}
	}
	return out
}

// containsAll reports whether every requested pair appears in have.
func containsAll(have, requested []Field) bool {
	for _, want := range requested {
		found := false
		for _, f := range have {
			if f == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// variantBody unwraps {"variant": {...}} into the inner object.
func variantBody(msg json.RawMessage) (map[string]json.RawMessage, error) {
	_, inner, err := types.Variant(msg)
	switch {
	case errors.Is(err, types.ErrTooManyVariants):
		return nil, ErrTooManyMessages
	case err != nil:
		return nil, ErrMessageNotObject
	}
	body, err := types.DecodeObject(inner)
	if err != nil {
		return nil, ErrMessageNotObject
	}
	return body, nil
}

// bodyMatches requires every field to be present as a JSON string equal to
// the authorized value; numbers and booleans never match their text.
func bodyMatches(body map[string]json.RawMessage, fields []Field) bool {
	for _, f := range fields {
		raw, ok := body[f.Key()]
		if !ok {
			return false
		}
		if value, isString := types.JSONString(raw); !isString || value != f.Value() {
			return false
		}
	}
	return true
}
