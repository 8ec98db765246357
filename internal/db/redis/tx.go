package redis

import (
	"context"
	"errors"

	"github.com/redis/rueidis"

	"github.com/homez-ai/searchd/internal/db"
)

// TxWrite applies ops atomically via MULTI/EXEC on a dedicated connection.
// Either every op is applied or none are.
func (s *Store) TxWrite(ctx context.Context, ops []db.TxOp) error {
	if len(ops) == 0 {
		return nil
	}

	conn, cancel := s.client.Dedicate()
	defer cancel()

	cmds := make(rueidis.Commands, 0, len(ops)+2)
	cmds = append(cmds, conn.B().Multi().Build())
	for i := range ops {
		cmd, err := buildTxCmd(conn, &ops[i])
		if err != nil {
			return err
		}
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, conn.B().Exec().Build())

	results := conn.DoMulti(ctx, cmds...)

	// Queueing errors abort the transaction before EXEC runs.
	for _, r := range results[:len(results)-1] {
		if err := r.Error(); err != nil {
			return &db.Error{Op: db.OpMulti, Err: err}
		}
	}

	execResults, err := results[len(results)-1].ToArray()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return db.ErrTxAborted
		}
		return &db.Error{Op: db.OpMulti, Err: err}
	}
	for _, r := range execResults {
		if err := r.Error(); err != nil {
			return &db.Error{Op: db.OpMulti, Err: err}
		}
	}
	return nil
}

func buildTxCmd(conn rueidis.DedicatedClient, op *db.TxOp) (rueidis.Completed, error) {
	switch {
	case op.JSONSet != nil:
		item := op.JSONSet
		return conn.B().Arbitrary("JSON.SET").
			Keys(item.Key).Args(item.Path, string(item.Data)).Build(), nil

	case op.HSet != nil:
		item := op.HSet
		cmd := conn.B().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		return cmd.Build(), nil

	case op.Del != "":
		return conn.B().Del().Key(op.Del).Build(), nil

	default:
		return rueidis.Completed{}, errors.New("empty transaction op")
	}
}
