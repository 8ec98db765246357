package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HashStore
	JSONStore
	KVStore
	IndexManager
	Searcher
	TxWriter
	StreamStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// JSONSetItem holds a single key+path+data triple for JSON.SET.
type JSONSetItem struct {
	Key  string
	Path string
	Data []byte
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// TxOp is one write inside an atomic transaction. Exactly one field is set.
type TxOp struct {
	JSONSet *JSONSetItem
	HSet    *HashSetItem
	Del     string
}

// TxJSONSet builds a JSON.SET transaction op.
func TxJSONSet(key, path string, data []byte) TxOp {
	return TxOp{JSONSet: &JSONSetItem{Key: key, Path: path, Data: data}}
}

// TxHSet builds an HSET transaction op.
func TxHSet(key string, fields map[string]string) TxOp {
	return TxOp{HSet: &HashSetItem{Key: key, Fields: fields}}
}

// TxDel builds a DEL transaction op.
func TxDel(key string) TxOp {
	return TxOp{Del: key}
}

// TxWriter executes multiple writes atomically: either all ops apply or none.
type TxWriter interface {
	TxWrite(ctx context.Context, ops []TxOp) error
}

// StreamMessage is one entry read from a stream.
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// StreamStore provides durable queue operations over streams with
// consumer-group semantics.
type StreamStore interface {
	XAdd(ctx context.Context, stream string, fields map[string]string) (string, error)
	// XGroupCreate creates a consumer group (and the stream, if missing).
	// Creating an existing group is not an error.
	XGroupCreate(ctx context.Context, stream, group string) error
	// XReadGroup reads up to count new messages per stream for the consumer,
	// blocking up to block when none are pending.
	XReadGroup(
		ctx context.Context, group, consumer string,
		streams []string, count int, block time.Duration,
	) (map[string][]StreamMessage, error)
	XAck(ctx context.Context, stream, group string, ids ...string) error
}
