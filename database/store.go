package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"conference-webapp/model"
	"conference-webapp/query"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrNoSuchEntity = errors.New("no such entity")
	// ErrContention means a transaction lost to a concurrent one and none of
	// its writes were applied.
	ErrContention = errors.New("transaction contention")
)

const (
	fieldID        = "_id"
	fieldAncestors = "_ancestors"
)

// Query selects entities of one kind. All conditions are AND-ed; results are
// sorted by Orders in sequence.
type Query struct {
	Kind       string
	Ancestor   *model.Key
	Conditions []query.Condition
	Orders     []query.Order
	Limit      int
}

func FromPlan(plan query.Plan) Query {
	return Query{Kind: plan.Kind, Conditions: plan.Conditions, Orders: plan.Orders}
}

func (q Query) Filter(property string, op query.Operator, value any) Query {
	q.Conditions = append(append([]query.Condition(nil), q.Conditions...),
		query.Condition{Property: property, Op: op, Value: value})
	return q
}

func (q Query) Order(property string) Query {
	q.Orders = append(append([]query.Order(nil), q.Orders...), query.Order{Property: property})
	return q
}

type Reader interface {
	// Get decodes the entity at key into dst or returns ErrNoSuchEntity.
	Get(ctx context.Context, key model.Key, dst any) error
	// GetMulti appends the entities found at keys to the slice dst points
	// to, in key order. Missing keys are skipped.
	GetMulti(ctx context.Context, keys []model.Key, dst any) error
	// Query replaces the slice dst points to with the matching entities.
	Query(ctx context.Context, q Query, dst any) error
}

type Writer interface {
	Put(ctx context.Context, key model.Key, src any) error
}

// Tx is the view of the store inside a transaction. Writes become visible to
// others only when the transaction commits.
type Tx interface {
	Reader
	Writer
}

type Store interface {
	Reader
	Writer
	AllocateID(ctx context.Context, kind string, parent *model.Key) (model.Key, error)
	// RunInTransaction runs fn once and commits its writes atomically across
	// every entity it touched. An error from fn discards the writes. A lost
	// race surfaces as ErrContention; no retry is attempted.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close(ctx context.Context) error
}

// encodeDocument renders src the way both stores persist it: the entity's
// bson fields plus the websafe _id and the ancestor chain.
func encodeDocument(key model.Key, src any) (bson.Raw, error) {
	if key.IsZero() {
		return nil, fmt.Errorf("cannot store entity without a key")
	}
	raw, err := bson.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key.Kind, err)
	}
	var fields bson.D
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", key.Kind, err)
	}

	ancestors := bson.A{}
	for _, a := range key.Ancestors() {
		ancestors = append(ancestors, a.Encode())
	}
	doc := bson.D{{Key: fieldID, Value: key.Encode()}, {Key: fieldAncestors, Value: ancestors}}
	for _, e := range fields {
		if e.Key == fieldID || e.Key == fieldAncestors {
			continue
		}
		doc = append(doc, e)
	}
	return bson.Marshal(doc)
}

// appendDecoded decodes docs and appends them to the slice dst points to.
func appendDecoded(dst any, docs []bson.Raw) error {
	sv, err := sliceValue(dst)
	if err != nil {
		return err
	}
	elemType := sv.Type().Elem()
	for _, doc := range docs {
		ev := reflect.New(elemType)
		if err := bson.Unmarshal(doc, ev.Interface()); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		sv.Set(reflect.Append(sv, ev.Elem()))
	}
	return nil
}

func resetSlice(dst any) error {
	sv, err := sliceValue(dst)
	if err != nil {
		return err
	}
	sv.Set(reflect.MakeSlice(sv.Type(), 0, 0))
	return nil
}

func sliceValue(dst any) (reflect.Value, error) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Slice {
		return reflect.Value{}, fmt.Errorf("destination must be a pointer to a slice, got %T", dst)
	}
	return v.Elem(), nil
}
