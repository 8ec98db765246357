package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/homez-ai/searchd/internal/db"
)

// XAdd appends an entry to a stream and returns its generated ID.
func (s *Store) XAdd(ctx context.Context, stream string, fields map[string]string) (string, error) {
	cmd := s.b().Xadd().Key(stream).Id("*").FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	id, err := s.do(ctx, cmd.Build()).ToString()
	if err != nil {
		return "", &db.Error{Op: db.OpXAdd, Err: err}
	}
	return id, nil
}

// XGroupCreate creates a consumer group at the start of the stream,
// creating the stream itself when missing. An existing group is not an error.
func (s *Store) XGroupCreate(ctx context.Context, stream, group string) error {
	cmd := s.b().XgroupCreate().Key(stream).Group(group).Id("0").Mkstream().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "BUSYGROUP") {
			return nil
		}
		return &db.Error{Op: db.OpXGroup, Err: err}
	}
	return nil
}

// XReadGroup reads up to count new entries per stream for the consumer,
// blocking up to block when nothing is available. Returns an empty map on
// timeout.
func (s *Store) XReadGroup(
	ctx context.Context, group, consumer string,
	streams []string, count int, block time.Duration,
) (map[string][]db.StreamMessage, error) {
	args := []string{"GROUP", group, consumer}
	if count > 0 {
		args = append(args, "COUNT", strconv.Itoa(count))
	}
	if block > 0 {
		args = append(args, "BLOCK", strconv.FormatInt(block.Milliseconds(), 10))
	}
	args = append(args, "STREAMS")
	args = append(args, streams...)
	for range streams {
		args = append(args, ">")
	}

	cmd := s.b().Arbitrary("XREADGROUP").Args(args...).Blocking()
	entries, err := s.do(ctx, cmd).AsXRead()
	if err != nil {
		// a blocked read that times out returns a nil reply
		if rueidis.IsRedisNil(err) {
			return map[string][]db.StreamMessage{}, nil
		}
		return nil, &db.Error{Op: db.OpXReadGroup, Err: err}
	}

	out := make(map[string][]db.StreamMessage, len(entries))
	for stream, xs := range entries {
		msgs := make([]db.StreamMessage, 0, len(xs))
		for _, x := range xs {
			msgs = append(msgs, db.StreamMessage{ID: x.ID, Fields: x.FieldValues})
		}
		out[stream] = msgs
	}
	return out, nil
}

// XAck acknowledges processed entries for a consumer group.
func (s *Store) XAck(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	cmd := s.b().Xack().Key(stream).Group(group).Id(ids...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpXAck, Err: err}
	}
	return nil
}
