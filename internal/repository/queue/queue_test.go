package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/homez-ai/searchd/internal/db"
	"github.com/homez-ai/searchd/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	xAddFn        func(ctx context.Context, stream string, fields map[string]string) (string, error)
	xGroupFn      func(ctx context.Context, stream, group string) error
	xReadGroupFn  func(ctx context.Context, group, consumer string, streams []string, count int, block time.Duration) (map[string][]db.StreamMessage, error)
	xAckFn        func(ctx context.Context, stream, group string, ids ...string) error
	groupsCreated []string
}

func (m *mockStore) XAdd(ctx context.Context, stream string, fields map[string]string) (string, error) {
	if m.xAddFn != nil {
		return m.xAddFn(ctx, stream, fields)
	}
	return "1-0", nil
}

func (m *mockStore) XGroupCreate(ctx context.Context, stream, group string) error {
	m.groupsCreated = append(m.groupsCreated, stream)
	if m.xGroupFn != nil {
		return m.xGroupFn(ctx, stream, group)
	}
	return nil
}

func (m *mockStore) XReadGroup(
	ctx context.Context, group, consumer string,
	streams []string, count int, block time.Duration,
) (map[string][]db.StreamMessage, error) {
	if m.xReadGroupFn != nil {
		return m.xReadGroupFn(ctx, group, consumer, streams, count, block)
	}
	return map[string][]db.StreamMessage{}, nil
}

func (m *mockStore) XAck(ctx context.Context, stream, group string, ids ...string) error {
	if m.xAckFn != nil {
		return m.xAckFn(ctx, stream, group, ids...)
	}
	return nil
}

func newTestQueue(t *testing.T) (*Queue, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "ingest"), ms
}

func TestEnsureGroups_CreatesBothTopics(t *testing.T) {
	q, ms := newTestQueue(t)

	if err := q.EnsureGroups(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms.groupsCreated) != 2 {
		t.Fatalf("expected 2 groups, got %v", ms.groupsCreated)
	}
	if ms.groupsCreated[0] != "catalog:queue:products" || ms.groupsCreated[1] != "catalog:queue:services" {
		t.Errorf("unexpected streams: %v", ms.groupsCreated)
	}
}

func TestEnqueueUpsert(t *testing.T) {
	q, ms := newTestQueue(t)

	ms.xAddFn = func(_ context.Context, stream string, fields map[string]string) (string, error) {
		if stream != "catalog:queue:products" {
			t.Errorf("unexpected stream %s", stream)
		}
		if fields["op"] != OpUpsert || fields["id"] != "p1" {
			t.Errorf("unexpected fields: %v", fields)
		}
		if fields["entity"] != `{"id":"p1"}` {
			t.Errorf("unexpected payload: %q", fields["entity"])
		}
		return "1700000000000-0", nil
	}

	id, err := q.EnqueueUpsert(context.Background(), domain.TypeProduct, "p1", []byte(`{"id":"p1"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "1700000000000-0" {
		t.Errorf("unexpected id %s", id)
	}
}

func TestEnqueueDelete(t *testing.T) {
	q, ms := newTestQueue(t)

	ms.xAddFn = func(_ context.Context, stream string, fields map[string]string) (string, error) {
		if stream != "catalog:queue:services" {
			t.Errorf("unexpected stream %s", stream)
		}
		if fields["op"] != OpDelete || fields["id"] != "s1" {
			t.Errorf("unexpected fields: %v", fields)
		}
		if _, ok := fields["entity"]; ok {
			t.Error("delete must not carry a payload")
		}
		return "2-0", nil
	}

	if _, err := q.EnqueueDelete(context.Background(), domain.TypeService, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnqueue_StoreError(t *testing.T) {
	q, ms := newTestQueue(t)

	wantErr := errors.New("connection refused")
	ms.xAddFn = func(_ context.Context, _ string, _ map[string]string) (string, error) {
		return "", wantErr
	}

	_, err := q.EnqueueUpsert(context.Background(), domain.TypeProduct, "p1", nil)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestRead_DecodesTasksFromBothTopics(t *testing.T) {
	q, ms := newTestQueue(t)

	ms.xReadGroupFn = func(
		_ context.Context, group, consumer string,
		streams []string, count int, block time.Duration,
	) (map[string][]db.StreamMessage, error) {
		if group != "ingest" || consumer != "worker-1" {
			t.Errorf("unexpected group/consumer %s/%s", group, consumer)
		}
		if len(streams) != 2 {
			t.Errorf("expected both topics, got %v", streams)
		}
		return map[string][]db.StreamMessage{
			"catalog:queue:products": {
				{ID: "1-0", Fields: map[string]string{"op": OpUpsert, "id": "p1", "entity": `{"id":"p1"}`}},
			},
			"catalog:queue:services": {
				{ID: "2-0", Fields: map[string]string{"op": OpDelete, "id": "s1"}},
			},
		}, nil
	}

	tasks, err := q.Read(context.Background(), "worker-1", 10, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	// products first, then services
	if tasks[0].Type != domain.TypeProduct || tasks[0].Op != OpUpsert || tasks[0].EntityID != "p1" {
		t.Errorf("unexpected first task: %+v", tasks[0])
	}
	if string(tasks[0].Payload) != `{"id":"p1"}` {
		t.Errorf("unexpected payload: %s", tasks[0].Payload)
	}
	if tasks[1].Type != domain.TypeService || tasks[1].Op != OpDelete || tasks[1].EntityID != "s1" {
		t.Errorf("unexpected second task: %+v", tasks[1])
	}
}

func TestRead_Timeout(t *testing.T) {
	q, _ := newTestQueue(t)

	tasks, err := q.Read(context.Background(), "worker-1", 10, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tasks != nil {
		t.Errorf("expected nil tasks on timeout, got %v", tasks)
	}
}

func TestAck(t *testing.T) {
	q, ms := newTestQueue(t)

	ms.xAckFn = func(_ context.Context, stream, group string, ids ...string) error {
		if stream != "catalog:queue:products" || group != "ingest" {
			t.Errorf("unexpected stream/group %s/%s", stream, group)
		}
		if len(ids) != 1 || ids[0] != "1-0" {
			t.Errorf("unexpected ids %v", ids)
		}
		return nil
	}

	task := Task{Stream: "catalog:queue:products", MsgID: "1-0"}
	if err := q.Ack(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
