package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"conference-webapp/model"
	"conference-webapp/query"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"golang.org/x/sync/errgroup"
)

const (
	countersCollection = "counters"
	codeWriteConflict  = 112
)

// MongoStore keeps one collection per kind. Transactions need a replica set
// or sharded cluster.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

func NewMongoStore(client *mongo.Client, database string, logger *slog.Logger) *MongoStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoStore{client: client, db: client.Database(database), logger: logger}
}

func (s *MongoStore) collection(kind string) *mongo.Collection {
	return s.db.Collection(kind)
}

func (s *MongoStore) Get(ctx context.Context, key model.Key, dst any) error {
	err := s.collection(key.Kind).FindOne(ctx, bson.D{{Key: fieldID, Value: key.Encode()}}).Decode(dst)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNoSuchEntity
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key.Kind, err)
	}
	return nil
}

func (s *MongoStore) GetMulti(ctx context.Context, keys []model.Key, dst any) error {
	return s.getMulti(ctx, keys, dst, true)
}

// getMulti fetches keys with one $in query per kind. Kinds are fetched in
// parallel only outside transactions: a session must not be used
// concurrently.
func (s *MongoStore) getMulti(ctx context.Context, keys []model.Key, dst any, parallel bool) error {
	if _, err := sliceValue(dst); err != nil {
		return err
	}
	byKind := make(map[string][]string)
	for _, key := range keys {
		byKind[key.Kind] = append(byKind[key.Kind], key.Encode())
	}

	found := make(map[string]map[string]bson.Raw, len(byKind))
	for kind := range byKind {
		found[kind] = make(map[string]bson.Raw)
	}
	fetch := func(ctx context.Context, kind string) error {
		cur, err := s.collection(kind).Find(ctx, bson.D{{Key: fieldID, Value: bson.D{{Key: "$in", Value: byKind[kind]}}}})
		if err != nil {
			return fmt.Errorf("get %s: %w", kind, err)
		}
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			doc := append(bson.Raw(nil), cur.Current...)
			id, ok := doc.Lookup(fieldID).StringValueOK()
			if !ok {
				continue
			}
			found[kind][id] = doc
		}
		return cur.Err()
	}

	if parallel && len(byKind) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for kind := range byKind {
			kind := kind
			g.Go(func() error { return fetch(gctx, kind) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		for kind := range byKind {
			if err := fetch(ctx, kind); err != nil {
				return err
			}
		}
	}

	docs := make([]bson.Raw, 0, len(keys))
	for _, key := range keys {
		if doc, ok := found[key.Kind][key.Encode()]; ok {
			docs = append(docs, doc)
		}
	}
	return appendDecoded(dst, docs)
}

func (s *MongoStore) Put(ctx context.Context, key model.Key, src any) error {
	doc, err := encodeDocument(key, src)
	if err != nil {
		return err
	}
	_, err = s.collection(key.Kind).ReplaceOne(ctx,
		bson.D{{Key: fieldID, Value: key.Encode()}},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put %s: %w", key.Kind, err)
	}
	return nil
}

func (s *MongoStore) AllocateID(ctx context.Context, kind string, parent *model.Key) (model.Key, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.collection(countersCollection).FindOneAndUpdate(ctx,
		bson.D{{Key: fieldID, Value: kind}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return model.Key{}, fmt.Errorf("allocate %s id: %w", kind, err)
	}
	return model.NewIDKey(kind, counter.Seq, parent), nil
}

func (s *MongoStore) Query(ctx context.Context, q Query, dst any) error {
	if err := resetSlice(dst); err != nil {
		return err
	}
	opts := options.Find()
	if sort := mongoSort(q.Orders); len(sort) > 0 {
		opts.SetSort(sort)
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cur, err := s.collection(q.Kind).Find(ctx, mongoFilter(q), opts)
	if err != nil {
		return fmt.Errorf("query %s: %w", q.Kind, err)
	}
	if err := cur.All(ctx, dst); err != nil {
		return fmt.Errorf("query %s: %w", q.Kind, err)
	}
	return nil
}

func mongoFilter(q Query) bson.D {
	var clauses bson.A
	if q.Ancestor != nil {
		clauses = append(clauses, bson.D{{Key: fieldAncestors, Value: q.Ancestor.Encode()}})
	}
	for _, cond := range q.Conditions {
		clauses = append(clauses, mongoCondition(cond))
	}
	if len(clauses) == 0 {
		return bson.D{}
	}
	return bson.D{{Key: "$and", Value: clauses}}
}

func mongoCondition(cond query.Condition) bson.D {
	var op string
	switch cond.Op {
	case query.OpEQ:
		return bson.D{{Key: cond.Property, Value: cond.Value}}
	case query.OpNE:
		// A missing property never matches, as in the memory store.
		return bson.D{{Key: cond.Property, Value: bson.D{
			{Key: "$ne", Value: cond.Value},
			{Key: "$exists", Value: true},
		}}}
	case query.OpGT:
		op = "$gt"
	case query.OpGTEQ:
		op = "$gte"
	case query.OpLT:
		op = "$lt"
	case query.OpLTEQ:
		op = "$lte"
	}
	return bson.D{{Key: cond.Property, Value: bson.D{{Key: op, Value: cond.Value}}}}
}

func mongoSort(orders []query.Order) bson.D {
	sort := bson.D{}
	for _, o := range orders {
		dir := 1
		if o.Descending {
			dir = -1
		}
		sort = append(sort, bson.E{Key: o.Property, Value: dir})
	}
	return sort
}

func (s *MongoStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.New(writeconcern.WMajority()))

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(txnOpts); err != nil {
			return err
		}
		if err := fn(sc, &mongoTx{store: s, sc: sc}); err != nil {
			if abortErr := sc.AbortTransaction(context.Background()); abortErr != nil {
				s.logger.Warn("abort transaction", "err", abortErr)
			}
			return err
		}
		return sc.CommitTransaction(sc)
	})
	if isContention(err) {
		return fmt.Errorf("%w: %v", ErrContention, err)
	}
	return err
}

func isContention(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(codeWriteConflict)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// mongoTx binds every operation to the transaction's session context.
type mongoTx struct {
	store *MongoStore
	sc    mongo.SessionContext
}

func (tx *mongoTx) Get(_ context.Context, key model.Key, dst any) error {
	return tx.store.Get(tx.sc, key, dst)
}

func (tx *mongoTx) GetMulti(_ context.Context, keys []model.Key, dst any) error {
	return tx.store.getMulti(tx.sc, keys, dst, false)
}

func (tx *mongoTx) Query(_ context.Context, q Query, dst any) error {
	return tx.store.Query(tx.sc, q, dst)
}

func (tx *mongoTx) Put(_ context.Context, key model.Key, src any) error {
	return tx.store.Put(tx.sc, key, src)
}
