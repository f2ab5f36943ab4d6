package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// MaxRecordSize bounds a single record, terminator excluded.
const MaxRecordSize = 1 << 20

const recordTerminator = '\n'

// ErrEmbeddedNewline is returned by WriteRecord for payloads that would break
// framing.
var ErrEmbeddedNewline = errors.New("record payload contains a line break")

// WriteRecord writes payload followed by exactly one newline.
func WriteRecord(w io.Writer, payload []byte) error {
	if bytes.IndexByte(payload, recordTerminator) >= 0 {
		return ErrEmbeddedNewline
	}
	if len(payload) > MaxRecordSize {
		return fmt.Errorf("record payload is %d bytes, limit %d", len(payload), MaxRecordSize)
	}
	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, payload...)
	buf = append(buf, recordTerminator)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// ReadRecord reads one record and returns its payload without the
// terminator. It returns io.EOF when the stream ends before any byte of a
// record; a stream that ends mid-record or a record larger than
// MaxRecordSize yields a *DecodeError.
func ReadRecord(r *bufio.Reader) ([]byte, error) {
	var record []byte
	for {
		chunk, err := r.ReadSlice(recordTerminator)
		if len(record)+len(chunk) > MaxRecordSize+1 {
			return nil, newDecodeError("Record", fmt.Sprintf("record exceeds %d bytes", MaxRecordSize), nil)
		}
		record = append(record, chunk...)
		switch {
		case err == nil:
			return record[:len(record)-1], nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(record) == 0 {
				return nil, io.EOF
			}
			return nil, newDecodeError("Record", "truncated record", io.ErrUnexpectedEOF)
		default:
			return nil, fmt.Errorf("read record: %w", err)
		}
	}
}
