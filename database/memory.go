package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"conference-webapp/model"

	"go.mongodb.org/mongo-driver/bson"
)

// record is immutable once installed; write replaces it.
type record struct {
	key     model.Key
	doc     bson.Raw
	fields  map[string]any
	version uint64
	seq     uint64
}

// MemoryStore is a process-local Store. Transactions are optimistic: reads
// record the version they observed and commit fails with ErrContention when
// any of them changed in the meantime.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*record
	seq     uint64
	ids     map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*record),
		ids:     make(map[string]int64),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key model.Key, dst any) error {
	_, err := s.get(ctx, key, dst)
	return err
}

func (s *MemoryStore) get(ctx context.Context, key model.Key, dst any) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	rec, ok := s.records[key.Encode()]
	s.mu.RUnlock()
	if !ok {
		return 0, ErrNoSuchEntity
	}
	if err := bson.Unmarshal(rec.doc, dst); err != nil {
		return 0, fmt.Errorf("decode %s: %w", key.Kind, err)
	}
	return rec.version, nil
}

func (s *MemoryStore) GetMulti(ctx context.Context, keys []model.Key, dst any) error {
	_, err := s.getMulti(ctx, keys, dst)
	return err
}

func (s *MemoryStore) getMulti(ctx context.Context, keys []model.Key, dst any) (map[string]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	versions := make(map[string]uint64, len(keys))
	docs := make([]bson.Raw, 0, len(keys))
	s.mu.RLock()
	for _, key := range keys {
		id := key.Encode()
		rec, ok := s.records[id]
		if !ok {
			versions[id] = 0
			continue
		}
		versions[id] = rec.version
		docs = append(docs, rec.doc)
	}
	s.mu.RUnlock()
	return versions, appendDecoded(dst, docs)
}

func (s *MemoryStore) Put(ctx context.Context, key model.Key, src any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, fields, err := encodeRecord(key, src)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(key, doc, fields)
	return nil
}

func encodeRecord(key model.Key, src any) (bson.Raw, map[string]any, error) {
	doc, err := encodeDocument(key, src)
	if err != nil {
		return nil, nil, err
	}
	fields := make(map[string]any)
	if err := bson.Unmarshal(doc, &fields); err != nil {
		return nil, nil, fmt.Errorf("encode %s: %w", key.Kind, err)
	}
	return doc, fields, nil
}

// write must be called with mu held.
func (s *MemoryStore) write(key model.Key, doc bson.Raw, fields map[string]any) {
	id := key.Encode()
	next := &record{key: key, doc: doc, fields: fields, version: 1}
	if prev, ok := s.records[id]; ok {
		next.seq = prev.seq
		next.version = prev.version + 1
	} else {
		s.seq++
		next.seq = s.seq
	}
	s.records[id] = next
}

func (s *MemoryStore) AllocateID(ctx context.Context, kind string, parent *model.Key) (model.Key, error) {
	if err := ctx.Err(); err != nil {
		return model.Key{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[kind]++
	return model.NewIDKey(kind, s.ids[kind], parent), nil
}

func (s *MemoryStore) Query(ctx context.Context, q Query, dst any) error {
	_, err := s.query(ctx, q, dst)
	return err
}

func (s *MemoryStore) query(ctx context.Context, q Query, dst any) (map[string]uint64, error) {
	return s.queryOverlay(ctx, q, nil, dst)
}

// queryOverlay answers q from committed records with pending writes laid
// over them. Versions are reported for committed records only.
func (s *MemoryStore) queryOverlay(ctx context.Context, q Query, pending map[string]pendingWrite, dst any) (map[string]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var hits []*record
	s.mu.RLock()
	for id, rec := range s.records {
		if _, shadowed := pending[id]; shadowed {
			continue
		}
		if rec.matches(q) {
			hits = append(hits, rec)
		}
	}
	for id, w := range pending {
		rec := &record{key: w.key, doc: w.doc, fields: w.fields, seq: s.seq + 1 + uint64(w.order)}
		if prev, ok := s.records[id]; ok {
			rec.seq = prev.seq
		}
		if rec.matches(q) {
			hits = append(hits, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		for _, order := range q.Orders {
			c := compareForSort(sortValue(hits[i].fields, order.Property), sortValue(hits[j].fields, order.Property))
			if order.Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return hits[i].seq < hits[j].seq
	})
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	versions := make(map[string]uint64, len(hits))
	docs := make([]bson.Raw, 0, len(hits))
	for _, rec := range hits {
		if rec.version > 0 {
			versions[rec.key.Encode()] = rec.version
		}
		docs = append(docs, rec.doc)
	}
	if err := resetSlice(dst); err != nil {
		return nil, err
	}
	return versions, appendDecoded(dst, docs)
}

func (rec *record) matches(q Query) bool {
	if rec.key.Kind != q.Kind {
		return false
	}
	if q.Ancestor != nil && !rec.key.HasAncestor(*q.Ancestor) {
		return false
	}
	for _, cond := range q.Conditions {
		if !matches(rec.fields, cond) {
			return false
		}
	}
	return true
}

func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &memoryTx{
		store:  s,
		reads:  make(map[string]uint64),
		writes: make(map[string]pendingWrite),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

func (s *MemoryStore) Close(context.Context) error {
	return nil
}

type pendingWrite struct {
	key    model.Key
	doc    bson.Raw
	fields map[string]any
	order  int
}

type memoryTx struct {
	store  *MemoryStore
	reads  map[string]uint64
	writes map[string]pendingWrite
}

func (tx *memoryTx) observe(id string, version uint64) {
	if _, seen := tx.reads[id]; !seen {
		tx.reads[id] = version
	}
}

func (tx *memoryTx) Get(ctx context.Context, key model.Key, dst any) error {
	id := key.Encode()
	if w, ok := tx.writes[id]; ok {
		return bson.Unmarshal(w.doc, dst)
	}
	version, err := tx.store.get(ctx, key, dst)
	if err == ErrNoSuchEntity {
		tx.observe(id, 0)
		return err
	}
	if err != nil {
		return err
	}
	tx.observe(id, version)
	return nil
}

func (tx *memoryTx) GetMulti(ctx context.Context, keys []model.Key, dst any) error {
	if _, err := sliceValue(dst); err != nil {
		return err
	}
	for _, key := range keys {
		id := key.Encode()
		if w, ok := tx.writes[id]; ok {
			if err := appendDecoded(dst, []bson.Raw{w.doc}); err != nil {
				return err
			}
			continue
		}
		versions, err := tx.store.getMulti(ctx, []model.Key{key}, dst)
		if err != nil {
			return err
		}
		tx.observe(id, versions[id])
	}
	return nil
}

// Query sees the transaction's own pending writes in place of the committed
// records they replace.
func (tx *memoryTx) Query(ctx context.Context, q Query, dst any) error {
	versions, err := tx.store.queryOverlay(ctx, q, tx.writes, dst)
	for id, v := range versions {
		tx.observe(id, v)
	}
	return err
}

func (tx *memoryTx) Put(ctx context.Context, key model.Key, src any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, fields, err := encodeRecord(key, src)
	if err != nil {
		return err
	}
	id := key.Encode()
	order := len(tx.writes)
	if prev, ok := tx.writes[id]; ok {
		order = prev.order
	}
	tx.writes[id] = pendingWrite{key: key, doc: doc, fields: fields, order: order}
	return nil
}

func (tx *memoryTx) commit() error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, seen := range tx.reads {
		var current uint64
		if rec, ok := s.records[id]; ok {
			current = rec.version
		}
		if current != seen {
			return ErrContention
		}
	}

	ordered := make([]pendingWrite, 0, len(tx.writes))
	for _, w := range tx.writes {
		ordered = append(ordered, w)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })
	for _, w := range ordered {
		s.write(w.key, w.doc, w.fields)
	}
	return nil
}
