package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/homez-ai/searchd/internal/db"
	"github.com/homez-ai/searchd/internal/domain"
)

// Operations carried in queue messages.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// store is the consumer interface for the durable queue (ISP).
type store interface {
	XAdd(ctx context.Context, stream string, fields map[string]string) (string, error)
	XGroupCreate(ctx context.Context, stream, group string) error
	XReadGroup(
		ctx context.Context, group, consumer string,
		streams []string, count int, block time.Duration,
	) (map[string][]db.StreamMessage, error)
	XAck(ctx context.Context, stream, group string, ids ...string) error
}

// Task is one decoded queue entry. Payload is the entity JSON for upserts and
// empty for deletes.
type Task struct {
	Stream   string
	MsgID    string
	Op       string
	Type     domain.EntityType
	EntityID string
	Payload  []byte
}

// Queue is a durable two-topic ingestion queue over stream consumer groups.
// One topic per entity type keeps per-type ordering without blocking the other.
type Queue struct {
	store store
	group string
}

// New creates a queue bound to one consumer group.
func New(s store, group string) *Queue {
	return &Queue{store: s, group: group}
}

// EnsureGroups creates the consumer group on both topics, creating missing
// streams along the way. Idempotent.
func (q *Queue) EnsureGroups(ctx context.Context) error {
	for _, typ := range domain.EntityTypes() {
		if err := q.store.XGroupCreate(ctx, streamName(typ), q.group); err != nil {
			return fmt.Errorf("create group on %s: %w", streamName(typ), err)
		}
	}
	return nil
}

// EnqueueUpsert appends an upsert task and returns the message ID, which
// doubles as the caller-visible acceptance token.
func (q *Queue) EnqueueUpsert(ctx context.Context, typ domain.EntityType, entityID string, payload []byte) (string, error) {
	id, err := q.store.XAdd(ctx, streamName(typ), map[string]string{
		"op":     OpUpsert,
		"id":     entityID,
		"entity": string(payload),
	})
	if err != nil {
		return "", fmt.Errorf("enqueue upsert %s/%s: %w", typ, entityID, err)
	}
	return id, nil
}

// EnqueueDelete appends a delete task and returns the message ID.
func (q *Queue) EnqueueDelete(ctx context.Context, typ domain.EntityType, entityID string) (string, error) {
	id, err := q.store.XAdd(ctx, streamName(typ), map[string]string{
		"op": OpDelete,
		"id": entityID,
	})
	if err != nil {
		return "", fmt.Errorf("enqueue delete %s/%s: %w", typ, entityID, err)
	}
	return id, nil
}

// Read blocks up to block for new tasks across both topics and decodes them.
// A nil slice means the wait timed out with nothing to do.
func (q *Queue) Read(ctx context.Context, consumer string, count int, block time.Duration) ([]Task, error) {
	streams := make([]string, 0, 2)
	for _, typ := range domain.EntityTypes() {
		streams = append(streams, streamName(typ))
	}

	byStream, err := q.store.XReadGroup(ctx, q.group, consumer, streams, count, block)
	if err != nil {
		return nil, fmt.Errorf("read group %s: %w", q.group, err)
	}

	var tasks []Task
	for _, typ := range domain.EntityTypes() {
		stream := streamName(typ)
		for _, msg := range byStream[stream] {
			tasks = append(tasks, Task{
				Stream:   stream,
				MsgID:    msg.ID,
				Op:       msg.Fields["op"],
				Type:     typ,
				EntityID: msg.Fields["id"],
				Payload:  []byte(msg.Fields["entity"]),
			})
		}
	}
	return tasks, nil
}

// Ack marks a task as processed. Also used for poison messages after they are
// counted, so they are not redelivered forever.
func (q *Queue) Ack(ctx context.Context, task Task) error {
	if err := q.store.XAck(ctx, task.Stream, q.group, task.MsgID); err != nil {
		return fmt.Errorf("ack %s %s: %w", task.Stream, task.MsgID, err)
	}
	return nil
}

// Topic returns the stream name used for an entity type.
func Topic(typ domain.EntityType) string {
	return streamName(typ)
}

func streamName(typ domain.EntityType) string {
	return fmt.Sprintf("%squeue:%ss", domain.KeyPrefix, typ)
}
