package model

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

const (
	KindUser       = "User"
	KindProfile    = "Profile"
	KindConference = "Conference"
	KindSession    = "Session"
)

// Key addresses an entity by kind and either a numeric ID or a string Name,
// optionally under a parent key. Keys form the ownership hierarchy used for
// ancestor queries.
type Key struct {
	Kind   string
	ID     int64
	Name   string
	Parent *Key
}

func NewIDKey(kind string, id int64, parent *Key) Key {
	return Key{Kind: kind, ID: id, Parent: parent}
}

func NewNameKey(kind string, name string, parent *Key) Key {
	return Key{Kind: kind, Name: name, Parent: parent}
}

func ProfileKey(userID string) Key {
	return NewNameKey(KindProfile, userID, nil)
}

func (k Key) IsZero() bool {
	return k.Kind == "" && k.ID == 0 && k.Name == "" && k.Parent == nil
}

func (k Key) Equal(other Key) bool {
	return k.Encode() == other.Encode()
}

// Ancestors returns the parent chain from the direct parent up to the root.
func (k Key) Ancestors() []Key {
	var chain []Key
	for p := k.Parent; p != nil; p = p.Parent {
		chain = append(chain, *p)
	}
	return chain
}

// HasAncestor reports whether a is a strict ancestor of k.
func (k Key) HasAncestor(a Key) bool {
	target := a.Encode()
	for _, p := range k.Ancestors() {
		if p.Encode() == target {
			return true
		}
	}
	return false
}

// Encode returns the websafe form of the key. Encoding is canonical: equal
// keys always encode to the same string.
func (k Key) Encode() string {
	if k.IsZero() {
		return ""
	}
	return base58.Encode([]byte(k.path()))
}

func (k Key) String() string {
	return k.Encode()
}

func (k Key) path() string {
	var segment string
	if k.Name != "" {
		segment = k.Kind + ",s," + url.QueryEscape(k.Name)
	} else {
		segment = k.Kind + ",i," + strconv.FormatInt(k.ID, 10)
	}
	if k.Parent == nil {
		return segment
	}
	return k.Parent.path() + "/" + segment
}

// DecodeKey parses a websafe key produced by Encode.
func DecodeKey(websafe string) (Key, error) {
	raw, err := base58.Decode(websafe)
	if err != nil || len(raw) == 0 {
		return Key{}, fmt.Errorf("malformed key %q", websafe)
	}

	var parent *Key
	var key Key
	for _, segment := range strings.Split(string(raw), "/") {
		parts := strings.SplitN(segment, ",", 3)
		if len(parts) != 3 || !validKind(parts[0]) {
			return Key{}, fmt.Errorf("malformed key %q", websafe)
		}
		key = Key{Kind: parts[0], Parent: parent}
		switch parts[1] {
		case "i":
			id, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil || id <= 0 {
				return Key{}, fmt.Errorf("malformed key %q", websafe)
			}
			key.ID = id
		case "s":
			name, err := url.QueryUnescape(parts[2])
			if err != nil || name == "" {
				return Key{}, fmt.Errorf("malformed key %q", websafe)
			}
			key.Name = name
		default:
			return Key{}, fmt.Errorf("malformed key %q", websafe)
		}
		current := key
		parent = &current
	}
	return key, nil
}

func validKind(kind string) bool {
	if kind == "" {
		return false
	}
	for _, r := range kind {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.Encode()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = Key{}
		return nil
	}
	decoded, err := DecodeKey(string(text))
	if err != nil {
		return err
	}
	*k = decoded
	return nil
}

// MarshalBSONValue stores keys as their websafe string.
func (k Key) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.String, bsoncore.AppendString(nil, k.Encode()), nil
}

func (k *Key) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*k = Key{}
		return nil
	}
	if t != bsontype.String {
		return fmt.Errorf("cannot decode key from bson %v", t)
	}
	s, _, ok := bsoncore.ReadString(data)
	if !ok {
		return fmt.Errorf("cannot decode key from bson string")
	}
	return k.UnmarshalText([]byte(s))
}
