// Package writer batches records into size- and time-bounded segments and
// persists closed segments for upload. A segment holds records for exactly
// one view.
package writer

import (
	"encoding/binary"
	"encoding/json"
	"hash/crc32"

	"github.com/golang/snappy"

	replayerr "github.com/replaykit/replaykit/internal/errors"
	"github.com/replaykit/replaykit/pkg/types"
)

// Record framing inside a segment: [length:4 LE][crc32:4 LE][json payload].
// The frame makes records individually self-describing and lets recovery stop
// cleanly at a truncated tail. Closed segments are snappy-compressed as a
// whole before persistence.

const frameHeaderSize = 8

// encodeRecord serializes and frames one record.
func encodeRecord(rec types.Record) ([]byte, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, replayerr.NewEncodingError(replayerr.CodeSerializationFailed, "record serialization failed", err)
	}

	framed := make([]byte, frameHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(framed[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(framed[4:8], crc32.ChecksumIEEE(payload))
	copy(framed[frameHeaderSize:], payload)
	return framed, nil
}

// DecodeFrames parses framed records. It tolerates a truncated tail (the
// remainder is discarded) and skips frames whose checksum does not match;
// it only fails when nothing at all can be decoded from a non-empty input.
func DecodeFrames(data []byte) ([]types.Record, error) {
	var records []types.Record

	for len(data) >= frameHeaderSize {
		length := binary.LittleEndian.Uint32(data[0:4])
		sum := binary.LittleEndian.Uint32(data[4:8])
		if int(length) > len(data)-frameHeaderSize {
			break // truncated tail
		}
		payload := data[frameHeaderSize : frameHeaderSize+int(length)]
		data = data[frameHeaderSize+int(length):]

		if crc32.ChecksumIEEE(payload) != sum {
			continue
		}

		var rec types.Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, replayerr.New(replayerr.ErrCategoryEncoding, replayerr.CodeCorruptSegment, "no decodable records")
	}
	return records, nil
}

// DecodeSegment decompresses a persisted segment object and parses its
// records.
func DecodeSegment(compressed []byte) ([]types.Record, error) {
	framed, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, replayerr.NewEncodingError(replayerr.CodeCorruptSegment, "failed to decompress segment", err)
	}
	return DecodeFrames(framed)
}
