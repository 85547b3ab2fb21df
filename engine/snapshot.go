package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ceyewan/cascade/clog"
	"github.com/ceyewan/cascade/value"
	"github.com/ceyewan/cascade/xerrors"
)

// snapshotRecord 快照的存储与导出形态。
// Data 以 value.ToAny 的原生形态保存，便于 msgpack 序列化。
type snapshotRecord struct {
	ID        string    `msgpack:"id"`
	CreatedAt time.Time `msgpack:"created_at"`
	Checksum  uint64    `msgpack:"checksum"`
	Data      any       `msgpack:"data"`
}

func (e *resolutionEngine) Snapshot() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil {
		return "", xerrors.Wrap(xerrors.ErrNotFound, "no resolution to snapshot")
	}

	id := uuid.NewString()
	e.snaps[id] = &snapshotRecord{
		ID:        id,
		CreatedAt: time.Now(),
		Checksum:  e.cur.Checksum,
		Data:      value.ToAny(e.cur.Doc),
	}
	e.logger.Debug("snapshot created", clog.String("id", id))
	return id, nil
}

func (e *resolutionEngine) Restore(id string) (*Resolution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.snaps[id]
	if !ok {
		return nil, xerrors.Wrapf(xerrors.ErrNotFound, "snapshot %s", id)
	}

	res := &Resolution{
		ID:         uuid.NewString(),
		Doc:        value.FromAny(rec.Data),
		Sources:    []string{"snapshot:" + id},
		Checksum:   rec.Checksum,
		ResolvedAt: time.Now(),
	}
	e.cur = res
	return res, nil
}

func (e *resolutionEngine) ExportSnapshot(id string) ([]byte, error) {
	e.mu.RLock()
	rec, ok := e.snaps[id]
	e.mu.RUnlock()
	if !ok {
		return nil, xerrors.Wrapf(xerrors.ErrNotFound, "snapshot %s", id)
	}

	data, err := msgpack.Marshal(rec)
	if err != nil {
		return nil, xerrors.Wrap(err, "encode snapshot")
	}
	return data, nil
}

func (e *resolutionEngine) ImportSnapshot(data []byte) (string, error) {
	var rec snapshotRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return "", xerrors.Wrap(err, "decode snapshot")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	e.mu.Lock()
	e.snaps[rec.ID] = &rec
	e.mu.Unlock()
	return rec.ID, nil
}
