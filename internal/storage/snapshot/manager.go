// Package snapshot provides snapshot management for Blobnom.
package snapshot

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/iamd3vil/blobnom/internal/core/domain"
	"github.com/iamd3vil/blobnom/internal/storage/wal"
	"github.com/iamd3vil/blobnom/internal/telemetry/logger"
	"github.com/iamd3vil/blobnom/pkg/crypto/adaptive"
)

// Magic bytes identify snapshot files (AD-0303).
var magicBytes = []byte("BLOBSNAP")

const (
	filePrefix    = "snapshot-"
	fileExtension = ".snap"
	checksumSize  = 32
	headerVersion = 1

	// DefaultRetentionCount is how many snapshots Prune keeps.
	DefaultRetentionCount = 5
)

var (
	ErrInvalidMagic     = errors.New("snapshot: invalid magic bytes")
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
	ErrNoSnapshots      = errors.New("snapshot: no snapshots available")
)

type snapshotHeader struct {
	Version    int        `json:"version"`
	ID         string     `json:"id"`
	CreatedAt  int64      `json:"created_at"`
	EntryCount uint64     `json:"entry_count"`
	WALOffset  wal.Offset `json:"wal_offset"`
	Encrypted  bool       `json:"encrypted"`
}

// Config configures the snapshot manager.
type Config struct {
	Dir string

	// RetentionCount is how many snapshots to keep after pruning.
	RetentionCount int

	// Cipher, when set, seals the data section of every snapshot
	// written. Encrypted snapshots cannot be loaded without it;
	// plaintext snapshots load either way.
	Cipher adaptive.Cipher

	Logger logger.Logger
}

// DefaultConfig returns the default snapshot configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:            dir,
		RetentionCount: DefaultRetentionCount,
	}
}

// Manager creates, loads, and prunes snapshot files.
type Manager struct {
	cfg    Config
	cipher adaptive.Cipher
	logger logger.Logger
}

// NewManager creates a new snapshot manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	if cfg.RetentionCount <= 0 {
		cfg.RetentionCount = DefaultRetentionCount
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	return &Manager{
		cfg:    cfg,
		cipher: cfg.Cipher,
		logger: cfg.Logger,
	}, nil
}

// Info contains metadata about a snapshot.
type Info struct {
	// ID is the snapshot ULID; it is also the filename stem.
	ID string `json:"id"`

	// WALOffset is the WAL position covered by this snapshot. Replay
	// after loading it starts here.
	WALOffset wal.Offset `json:"wal_offset"`

	EntryCount int64  `json:"entry_count"`
	CreatedAt  int64  `json:"created_at"`
	Size       int64  `json:"size"`
	Path       string `json:"path"`
	Checksum   string `json:"checksum"`
	Encrypted  bool   `json:"encrypted"`
}

// Create writes a new snapshot file from the given entries.
func (m *Manager) Create(entries []domain.Entry, walOffset wal.Offset) (*Info, error) {
	now := time.Now()
	id, err := generateID(now)
	if err != nil {
		return nil, err
	}

	tempPath := filepath.Join(m.cfg.Dir, filePrefix+id+".tmp")
	file, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	hash := sha256.New()
	writer := io.MultiWriter(file, hash)

	if _, err := writer.Write(magicBytes); err != nil {
		file.Close()
		return nil, err
	}

	hdr := snapshotHeader{
		Version:    headerVersion,
		ID:         id,
		CreatedAt:  now.UnixMilli(),
		EntryCount: uint64(len(entries)),
		WALOffset:  walOffset,
		Encrypted:  m.cipher != nil,
	}

	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: marshal header: %w", err)
	}

	var hdrLen [4]byte
	binary.BigEndian.PutUint32(hdrLen[:], uint32(len(hdrJSON)))
	if _, err := writer.Write(hdrLen[:]); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write header length: %w", err)
	}
	if _, err := writer.Write(hdrJSON); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write header: %w", err)
	}

	data, err := json.Marshal(entries)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: marshal entries: %w", err)
	}
	if m.cipher != nil {
		data, err = m.cipher.Encrypt(data, nil)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("snapshot: encrypt: %w", err)
		}
	}

	var dataLen [4]byte
	binary.BigEndian.PutUint32(dataLen[:], uint32(len(data)))
	if _, err := writer.Write(dataLen[:]); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write data length: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write data: %w", err)
	}

	// Finalize checksum trailer (not included in hash).
	sum := hash.Sum(nil)
	if len(sum) != checksumSize {
		file.Close()
		return nil, fmt.Errorf("snapshot: invalid sha256 size: %d", len(sum))
	}
	if _, err := file.Write(sum); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: write checksum: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: close: %w", err)
	}

	stat, err := os.Stat(tempPath)
	if err != nil {
		return nil, err
	}

	finalPath := filepath.Join(m.cfg.Dir, filePrefix+id+fileExtension)
	if err := os.Rename(tempPath, finalPath); err != nil {
		return nil, fmt.Errorf("snapshot: rename: %w", err)
	}

	return &Info{
		ID:         id,
		WALOffset:  walOffset,
		EntryCount: int64(len(entries)),
		CreatedAt:  now.UnixMilli(),
		Size:       stat.Size(),
		Path:       finalPath,
		Checksum:   hex.EncodeToString(sum),
		Encrypted:  m.cipher != nil,
	}, nil
}

// Load loads entries from the newest valid snapshot. A snapshot that
// fails its checksum or magic is skipped with a warning, falling back
// to the next older one.
func (m *Manager) Load() ([]domain.Entry, *Info, error) {
	snapshots, err := m.List()
	if err != nil {
		return nil, nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil, ErrNoSnapshots
	}

	for i := len(snapshots) - 1; i >= 0; i-- {
		entries, info, err := m.loadFile(snapshots[i].Path)
		if err == nil {
			return entries, info, nil
		}
		if errors.Is(err, ErrChecksumMismatch) || errors.Is(err, ErrInvalidMagic) {
			m.logger.Warn("skipping unreadable snapshot",
				"path", snapshots[i].Path,
				"error", err)
			continue
		}
		return nil, nil, err
	}

	return nil, nil, ErrNoSnapshots
}

func (m *Manager) loadFile(path string) ([]domain.Entry, *Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if stat.Size() < int64(len(magicBytes))+checksumSize {
		return nil, nil, ErrChecksumMismatch
	}

	// Verify the trailer before trusting anything else in the file.
	dataLen := stat.Size() - checksumSize
	expected := make([]byte, checksumSize)
	if _, err := io.ReadFull(io.NewSectionReader(f, dataLen, checksumSize), expected); err != nil {
		return nil, nil, err
	}
	h := sha256.New()
	if _, err := io.CopyN(h, io.NewSectionReader(f, 0, dataLen), dataLen); err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(h.Sum(nil), expected) {
		return nil, nil, ErrChecksumMismatch
	}

	br := bufio.NewReader(io.NewSectionReader(f, 0, dataLen))

	magic := make([]byte, len(magicBytes))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(magic, magicBytes) {
		return nil, nil, ErrInvalidMagic
	}

	var hdrLenBuf [4]byte
	if _, err := io.ReadFull(br, hdrLenBuf[:]); err != nil {
		return nil, nil, err
	}
	hdrLen := binary.BigEndian.Uint32(hdrLenBuf[:])
	if hdrLen == 0 {
		return nil, nil, fmt.Errorf("snapshot: empty header")
	}
	hdrJSON := make([]byte, hdrLen)
	if _, err := io.ReadFull(br, hdrJSON); err != nil {
		return nil, nil, err
	}

	var hdr snapshotHeader
	if err := json.Unmarshal(hdrJSON, &hdr); err != nil {
		return nil, nil, fmt.Errorf("snapshot: unmarshal header: %w", err)
	}

	var dataLenBuf [4]byte
	if _, err := io.ReadFull(br, dataLenBuf[:]); err != nil {
		return nil, nil, err
	}
	dataSize := binary.BigEndian.Uint32(dataLenBuf[:])
	data := make([]byte, dataSize)
	if _, err := io.ReadFull(br, data); err != nil {
		return nil, nil, err
	}

	if hdr.Encrypted {
		if m.cipher == nil {
			return nil, nil, fmt.Errorf("snapshot: %s is encrypted and no cipher is configured", filepath.Base(path))
		}
		plain, err := m.cipher.Decrypt(data, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot: decrypt: %w", err)
		}
		data = plain
	}

	var entries []domain.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, fmt.Errorf("snapshot: unmarshal entries: %w", err)
	}

	info := &Info{
		ID:         hdr.ID,
		WALOffset:  hdr.WALOffset,
		EntryCount: int64(hdr.EntryCount),
		CreatedAt:  hdr.CreatedAt,
		Size:       stat.Size(),
		Path:       path,
		Checksum:   hex.EncodeToString(expected),
		Encrypted:  hdr.Encrypted,
	}

	return entries, info, nil
}

// List lists snapshot files oldest first (metadata only).
func (m *Manager) List() ([]*Info, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExtension) {
			paths = append(paths, filepath.Join(m.cfg.Dir, name))
		}
	}
	// ULID filenames sort by creation time.
	sort.Strings(paths)

	var infos []*Info
	for _, p := range paths {
		stat, err := os.Stat(p)
		if err != nil {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), filePrefix), fileExtension)
		infos = append(infos, &Info{
			ID:   id,
			Path: p,
			Size: stat.Size(),
		})
	}
	return infos, nil
}

// Prune deletes old snapshots, keeping the newest RetentionCount.
// Returns the number of snapshots removed.
func (m *Manager) Prune() (int, error) {
	infos, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(infos) <= m.cfg.RetentionCount {
		return 0, nil
	}

	pruned := 0
	for _, info := range infos[:len(infos)-m.cfg.RetentionCount] {
		if err := os.Remove(info.Path); err != nil {
			m.logger.Warn("failed to remove old snapshot",
				"path", info.Path,
				"error", err)
			continue
		}
		pruned++
	}
	return pruned, nil
}

func generateID(t time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", fmt.Errorf("snapshot: generate id: %w", err)
	}
	return id.String(), nil
}
