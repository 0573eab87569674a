package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record is a single document row. Every collection shares the records table;
// the document body is stored as raw JSON.
type Record struct {
	bun.BaseModel `bun:"table:records,alias:rec"`

	Key        string    `bun:"key,pk"`
	Collection string    `bun:"collection,notnull"`
	Data       []byte    `bun:"data,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

// Bun implements KV on top of a bun database handle. Outside a transaction
// the handle is a *bun.DB; RunInTx rebinds it to the transaction.
type Bun struct {
	db bun.IDB
}

var _ KV = (*Bun)(nil)

// NewBun wraps a bun database into a KV store.
func NewBun(db *bun.DB) *Bun {
	return &Bun{db: db}
}

// Init creates the records table and its collection index.
func (s *Bun) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*Record)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create records table")
	}

	if _, err := s.db.NewCreateIndex().
		Model((*Record)(nil)).
		Index("records_collection_idx").
		Column("collection").
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create collection index")
	}

	return nil
}

func (s *Bun) Push(ctx context.Context, collection string, doc any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to encode document")
	}

	rec := &Record{
		Key:        uuid.NewString(),
		Collection: collection,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := s.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to push record")
	}

	return rec.Key, nil
}

func (s *Bun) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	rec := &Record{}
	err := s.db.NewSelect().
		Model(rec).
		Where("rec.key = ?", key).
		Where("rec.collection = ?", collection).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to read record")
	}
	return json.RawMessage(rec.Data), nil
}

func (s *Bun) Snapshot(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	var recs []Record
	err := s.db.NewSelect().
		Model(&recs).
		Where("rec.collection = ?", collection).
		Order("rec.key ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to read collection snapshot")
	}

	out := make(map[string]json.RawMessage, len(recs))
	for _, rec := range recs {
		out[rec.Key] = json.RawMessage(rec.Data)
	}
	return out, nil
}

// Merge is read-modify-write on a single key. The surrounding transaction, if
// any, makes it atomic with respect to other writers.
func (s *Bun) Merge(ctx context.Context, collection, key string, fields map[string]any) error {
	raw, err := s.Get(ctx, collection, key)
	if err != nil {
		return err
	}

	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to decode stored document")
	}
	for k, v := range fields {
		doc[k] = v
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to encode merged document")
	}

	res, err := s.db.NewUpdate().
		Model((*Record)(nil)).
		Set("data = ?", data).
		Where("key = ?", key).
		Where("collection = ?", collection).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to update record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

func (s *Bun) Remove(ctx context.Context, collection, key string) error {
	res, err := s.db.NewDelete().
		Model((*Record)(nil)).
		Where("key = ?", key).
		Where("collection = ?", collection).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

func (s *Bun) RunInTx(ctx context.Context, fn func(ctx context.Context, tx KV) error) error {
	db, ok := s.db.(*bun.DB)
	if !ok {
		// already inside a transaction
		return fn(ctx, s)
	}
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Bun{db: tx})
	})
}
