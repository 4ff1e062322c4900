package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"exchangestats/internal/crawl"
	"io"
	"sync"
)

type uniformSnapshot struct {
	*crawl.ExchangeSnapshot
	Partial bool `json:"partial,omitempty"`
}

// EncodeUniform encodes a record as a single json object keyed by the exchange,
// every exchange shares the same field names.
func EncodeUniform(record crawl.Record) ([]byte, error) {
	return json.Marshal(map[string]uniformSnapshot{
		record.Exchange: {
			ExchangeSnapshot: record.Snapshot,
			Partial:          record.Partial,
		},
	})
}

// Encoder turns a record into one line of output.
type Encoder func(record crawl.Record) ([]byte, error)

// JSONLines writes one json object per record, each on its own line.
type JSONLines struct {
	mutex  sync.Mutex
	out    io.Writer
	encode Encoder
}

func NewJSONLines(out io.Writer, encode Encoder) *JSONLines {
	return &JSONLines{out: out, encode: encode}
}

func (s *JSONLines) Emit(ctx context.Context, record crawl.Record) error {
	line, err := s.encode(record)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, err = s.out.Write(append(line, '\n'))
	return err
}

func (s *JSONLines) Close(ctx context.Context) error {
	return nil
}

// Buffer collects json lines in memory, it is what gets uploaded to object storage.
type Buffer struct {
	*JSONLines
	buff *bytes.Buffer
}

func NewBuffer(encode Encoder) Buffer {
	buff := &bytes.Buffer{}
	return Buffer{
		JSONLines: NewJSONLines(buff, encode),
		buff:      buff,
	}
}

func (b Buffer) Bytes() []byte {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buff.Bytes()
}
