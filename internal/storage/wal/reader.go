// Package wal provides write-ahead logging for the in-memory backend.
package wal

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
)

type segmentInfo struct {
	id   string
	path string
}

// Reader replays WAL entries across all segments in ULID order.
//
// A record that fails to decode ends the stream: after a crash the
// newest segment is expected to carry a torn tail, and every record
// before it has already been returned intact. Truncated reports whether
// the stream ended that way.
type Reader struct {
	dir string

	segments []segmentInfo
	segIndex int

	file    *os.File
	reader  *bufio.Reader
	segment string
	pos     int64

	startAt   int64
	truncated bool
}

// NewReader creates a reader over the segments in dir.
func NewReader(dir string) (*Reader, error) {
	r := &Reader{dir: dir}
	if err := r.scanSegments(); err != nil {
		return nil, err
	}
	return r, nil
}

// Seek positions the reader at the given offset. Segments sorting
// before the offset's segment are skipped entirely.
func (r *Reader) Seek(off Offset) error {
	i := 0
	for ; i < len(r.segments); i++ {
		if r.segments[i].id >= off.Segment {
			break
		}
	}

	r.closeCurrent()
	r.segIndex = i
	r.startAt = 0
	r.truncated = false
	if i < len(r.segments) && r.segments[i].id == off.Segment {
		r.startAt = off.Pos
	}
	return nil
}

// Read returns the next entry, or io.EOF when the stream ends. A torn
// or checksum-failing record also ends the stream.
func (r *Reader) Read() (*Entry, error) {
	if r.truncated {
		return nil, io.EOF
	}

	for {
		if r.reader == nil {
			if err := r.openNextSegment(); err != nil {
				return nil, err
			}
		}

		e, err := r.readOneRecord()
		if err == nil {
			return e, nil
		}

		if errors.Is(err, io.EOF) {
			// Clean end of this segment.
			r.closeCurrent()
			continue
		}
		if errors.Is(err, io.ErrUnexpectedEOF) ||
			errors.Is(err, ErrCorruptedEntry) ||
			errors.Is(err, ErrChecksumMismatch) ||
			errors.Is(err, ErrInvalidEntryType) {
			r.truncated = true
			r.closeCurrent()
			return nil, io.EOF
		}
		return nil, err
	}
}

// ReadAll reads all remaining entries from the WAL.
func (r *Reader) ReadAll() ([]*Entry, error) {
	var out []*Entry
	for {
		e, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, e)
	}
}

// Truncated reports whether the stream ended at a torn or corrupt
// record rather than a clean segment end.
func (r *Reader) Truncated() bool {
	return r.truncated
}

// Position returns the offset of the next record to be read within the
// current segment. It is meaningful for logging where replay stopped.
func (r *Reader) Position() Offset {
	return Offset{Segment: r.segment, Pos: r.pos}
}

// Close closes any open segment file.
func (r *Reader) Close() error {
	return r.closeCurrent()
}

func (r *Reader) scanSegments() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			r.segments = nil
			return nil
		}
		return err
	}

	var segs []segmentInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := parseSegmentFilename(e.Name())
		if !ok {
			continue
		}
		segs = append(segs, segmentInfo{
			id:   id,
			path: filepath.Join(r.dir, e.Name()),
		})
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].id < segs[j].id })
	r.segments = segs
	return nil
}

func (r *Reader) openNextSegment() error {
	r.closeCurrent()

	for r.segIndex < len(r.segments) {
		seg := r.segments[r.segIndex]
		r.segIndex++

		f, err := os.Open(seg.path)
		if err != nil {
			return err
		}

		stat, err := f.Stat()
		if err != nil {
			f.Close()
			return err
		}

		start := r.startAt
		r.startAt = 0

		// A start offset at or past the end means the covered records
		// were buffered but never reached this segment; nothing of it
		// remains to replay.
		if start >= stat.Size() {
			f.Close()
			continue
		}

		r.file = f
		r.segment = seg.id
		r.pos = start
		r.reader = bufio.NewReader(io.NewSectionReader(f, start, stat.Size()-start))
		return nil
	}

	return io.EOF
}

func (r *Reader) closeCurrent() error {
	r.reader = nil

	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

func (r *Reader) readOneRecord() (*Entry, error) {
	hdr := make([]byte, recordHeaderSize)
	if _, err := io.ReadFull(r.reader, hdr); err != nil {
		return nil, err
	}

	bodyLen, err := recordBodySize(hdr)
	if err != nil {
		return nil, err
	}

	full := make([]byte, recordHeaderSize+bodyLen)
	copy(full, hdr)
	if _, err := io.ReadFull(r.reader, full[recordHeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	e, err := decodeRecord(full)
	if err != nil {
		return nil, err
	}

	r.pos += int64(len(full))
	return e, nil
}
