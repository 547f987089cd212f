package runtime

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/synnergy-network/coordhead/protocol"
	"github.com/synnergy-network/coordhead/wire"
)

// record is a single length-prefixed write-ahead log entry. Payload carries
// the wire-encoded JSON bytes for an Event or a ServerOutput rather than the
// protocol value directly: the wire contestation period
// (contestationPeriodSeconds) is a float, which package rlp cannot encode, so
// RLP frames the log while wire/JSON encodes the record's actual content,
// grounded on core/ledger.go's DecodeBlockRLP.
type record struct {
	Seq     uint64
	Kind    string
	Payload []byte
}

const (
	kindEvent        = "event"
	kindServerOutput = "serverOutput"
)

// Journal is an append-only crash-recovery log of every Event delivered to
// protocol.Update and every ServerOutput it produced, grounded on
// core/ledger.go's NewLedger/applyBlock WAL-replay-on-open pattern.
type Journal struct {
	mu   sync.Mutex
	file *os.File
	seq  uint64
}

// OpenJournal opens (creating if necessary) the WAL file at path and
// replays it, invoking onEvent/onServerOutput for each record in order.
// Either callback may be nil to skip that kind during replay.
func OpenJournal(path string, onEvent func(protocol.Event), onServerOutput func(protocol.ServerOutput)) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("runtime: open journal: %w", err)
	}

	j := &Journal{file: f}
	if err := j.replay(onEvent, onServerOutput); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("runtime: seek journal end: %w", err)
	}
	return j, nil
}

func (j *Journal) replay(onEvent func(protocol.Event), onServerOutput func(protocol.ServerOutput)) error {
	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("runtime: seek journal start: %w", err)
	}
	r := bufio.NewReader(j.file)
	for {
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("runtime: read journal length prefix: %w", err)
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("runtime: read journal record: %w", err)
		}
		var rec record
		if err := rlp.DecodeBytes(buf, &rec); err != nil {
			return fmt.Errorf("runtime: decode journal record: %w", err)
		}
		if rec.Seq > j.seq {
			j.seq = rec.Seq
		}
		switch rec.Kind {
		case kindEvent:
			if onEvent == nil {
				continue
			}
			ev, err := wire.UnmarshalEvent(rec.Payload)
			if err != nil {
				return fmt.Errorf("runtime: decode journaled event: %w", err)
			}
			onEvent(ev)
		case kindServerOutput:
			if onServerOutput == nil {
				continue
			}
			out, err := wire.UnmarshalServerOutput(rec.Payload)
			if err != nil {
				return fmt.Errorf("runtime: decode journaled server output: %w", err)
			}
			onServerOutput(out)
		default:
			return fmt.Errorf("runtime: unknown journal record kind %q", rec.Kind)
		}
	}
}

func (j *Journal) append(kind string, payload []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.seq++
	raw, err := rlp.EncodeToBytes(record{Seq: j.seq, Kind: kind, Payload: payload})
	if err != nil {
		return fmt.Errorf("runtime: encode journal record: %w", err)
	}
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(raw)))
	if _, err := j.file.Write(length[:]); err != nil {
		return fmt.Errorf("runtime: write journal length prefix: %w", err)
	}
	if _, err := j.file.Write(raw); err != nil {
		return fmt.Errorf("runtime: write journal record: %w", err)
	}
	return j.file.Sync()
}

// AppendEvent durably records an inbound Event before it is applied,
// so a crash mid-apply can be replayed on restart.
func (j *Journal) AppendEvent(ev protocol.Event) error {
	data, err := wire.MarshalEvent(ev)
	if err != nil {
		return fmt.Errorf("runtime: encode event for journal: %w", err)
	}
	return j.append(kindEvent, data)
}

// AppendServerOutput durably records a ClientEffect notification.
func (j *Journal) AppendServerOutput(out protocol.ServerOutput) error {
	data, err := wire.MarshalServerOutput(out)
	if err != nil {
		return fmt.Errorf("runtime: encode server output for journal: %w", err)
	}
	return j.append(kindServerOutput, data)
}

// Close closes the underlying file.
func (j *Journal) Close() error { return j.file.Close() }
