// Package wal provides write-ahead logging for the in-memory backend.
package wal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Record layout constants. A record is a fixed header, then key bytes,
// then value bytes, then a CRC32C over everything before it.
const (
	recordMagic   byte = 0xB1
	recordVersion byte = 1

	// recordHeaderSize: magic(1) + version(1) + op(1) + keyLen(2) +
	// valueLen(4) + timestamp(8).
	recordHeaderSize = 17
	recordCRCSize    = 4

	// maxEncodedKeyLength is the codec limit; the engine enforces the
	// much smaller domain limit before records are built.
	maxEncodedKeyLength = 1<<16 - 1

	// maxEncodedValueLength caps the value length field so a garbage
	// header read from a damaged segment cannot trigger a huge
	// allocation during replay.
	maxEncodedValueLength = 64 << 20
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// encodeRecord serializes an entry into a single WAL record.
func encodeRecord(e *Entry) ([]byte, error) {
	if e.Op != OpTypeSet && e.Op != OpTypeDel {
		return nil, ErrInvalidEntryType
	}
	if len(e.Key) == 0 || len(e.Key) > maxEncodedKeyLength {
		return nil, fmt.Errorf("wal: key length %d out of range", len(e.Key))
	}
	if len(e.Value) > maxEncodedValueLength {
		return nil, fmt.Errorf("wal: value length %d exceeds limit", len(e.Value))
	}

	size := recordHeaderSize + len(e.Key) + len(e.Value) + recordCRCSize
	buf := make([]byte, size)

	buf[0] = recordMagic
	buf[1] = recordVersion
	buf[2] = byte(e.Op)
	binary.BigEndian.PutUint16(buf[3:5], uint16(len(e.Key)))
	binary.BigEndian.PutUint32(buf[5:9], uint32(len(e.Value)))
	binary.BigEndian.PutUint64(buf[9:17], uint64(e.Timestamp))
	copy(buf[recordHeaderSize:], e.Key)
	copy(buf[recordHeaderSize+len(e.Key):], e.Value)

	crc := crc32.Checksum(buf[:size-recordCRCSize], castagnoli)
	binary.BigEndian.PutUint32(buf[size-recordCRCSize:], crc)

	return buf, nil
}

// recordBodySize parses a record header and returns the number of bytes
// that follow it: key, value, and the trailing checksum.
func recordBodySize(hdr []byte) (int, error) {
	if len(hdr) < recordHeaderSize {
		return 0, ErrCorruptedEntry
	}
	if hdr[0] != recordMagic || hdr[1] != recordVersion {
		return 0, ErrCorruptedEntry
	}

	keyLen := int(binary.BigEndian.Uint16(hdr[3:5]))
	valueLen := int(binary.BigEndian.Uint32(hdr[5:9]))
	if keyLen == 0 || valueLen > maxEncodedValueLength {
		return 0, ErrCorruptedEntry
	}

	return keyLen + valueLen + recordCRCSize, nil
}

// decodeRecord deserializes a complete record, including its checksum.
func decodeRecord(buf []byte) (*Entry, error) {
	if len(buf) < recordHeaderSize+recordCRCSize {
		return nil, ErrCorruptedEntry
	}
	if buf[0] != recordMagic || buf[1] != recordVersion {
		return nil, ErrCorruptedEntry
	}

	op := OpType(buf[2])
	if op != OpTypeSet && op != OpTypeDel {
		return nil, ErrInvalidEntryType
	}

	keyLen := int(binary.BigEndian.Uint16(buf[3:5]))
	valueLen := int(binary.BigEndian.Uint32(buf[5:9]))
	if keyLen == 0 || recordHeaderSize+keyLen+valueLen+recordCRCSize != len(buf) {
		return nil, ErrCorruptedEntry
	}

	crcAt := len(buf) - recordCRCSize
	want := binary.BigEndian.Uint32(buf[crcAt:])
	got := crc32.Checksum(buf[:crcAt], castagnoli)
	if got != want {
		return nil, ErrChecksumMismatch
	}

	e := &Entry{
		Op:        op,
		Key:       string(buf[recordHeaderSize : recordHeaderSize+keyLen]),
		Timestamp: int64(binary.BigEndian.Uint64(buf[9:17])),
	}
	if valueLen > 0 {
		e.Value = buf[recordHeaderSize+keyLen : crcAt]
	}

	return e, nil
}
