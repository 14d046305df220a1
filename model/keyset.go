package model

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// KeySet is an insertion-ordered set of websafe keys. The zero value is an
// empty set ready to use.
type KeySet struct {
	keys  []string
	index map[string]struct{}
}

func NewKeySet(keys ...string) KeySet {
	var s KeySet
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add appends k and reports whether it was absent.
func (s *KeySet) Add(k string) bool {
	if s.Contains(k) {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	s.index[k] = struct{}{}
	s.keys = append(s.keys, k)
	return true
}

// Remove deletes k and reports whether it was present.
func (s *KeySet) Remove(k string) bool {
	if !s.Contains(k) {
		return false
	}
	delete(s.index, k)
	for i, existing := range s.keys {
		if existing == k {
			s.keys = append(s.keys[:i:i], s.keys[i+1:]...)
			break
		}
	}
	return true
}

func (s KeySet) Contains(k string) bool {
	_, ok := s.index[k]
	return ok
}

func (s KeySet) Len() int {
	return len(s.keys)
}

// Keys returns a copy of the members in insertion order.
func (s KeySet) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

func (s KeySet) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(s.Keys())
}

func (s *KeySet) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*s = KeySet{}
	if t == bsontype.Null || t == bsontype.Undefined {
		return nil
	}
	var keys []string
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&keys); err != nil {
		return err
	}
	for _, k := range keys {
		s.Add(k)
	}
	return nil
}

func (s KeySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}

func (s *KeySet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = NewKeySet(keys...)
	return nil
}
