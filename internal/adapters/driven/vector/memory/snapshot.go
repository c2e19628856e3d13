package memory

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/policypal/policypal/internal/core/domain"
)

// Snapshot layout: a magic line, a JSON header line, then one record per
// vector. Each record is a uint32 little-endian ID length, the ID bytes,
// and dimension little-endian float32 values.
const (
	magic           = "PPVIDX1\n"
	snapshotVersion = 1
)

type snapshotHeader struct {
	Version   int    `json:"version"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Count     int    `json:"count"`
}

// SaveSnapshot writes the index to path atomically: the snapshot is
// written to a temporary file in the same directory and renamed into
// place, so a crash mid-write never leaves a truncated snapshot behind.
func (idx *Index) SaveSnapshot(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return errors.New("vector: index is closed")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := idx.writeSnapshot(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

func (idx *Index) writeSnapshot(w io.Writer) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	header, err := json.Marshal(snapshotHeader{
		Version:   snapshotVersion,
		Dimension: idx.dimension,
		Metric:    Metric,
		Count:     len(idx.vectors),
	})
	if err != nil {
		return fmt.Errorf("encoding snapshot header: %w", err)
	}
	if _, err := w.Write(append(header, '\n')); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	// Records are written in chunk-ID order so identical indexes
	// produce byte-identical snapshots.
	ids := make([]string, 0, len(idx.vectors))
	for id := range idx.vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(id))); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		if _, err := io.WriteString(w, id); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, idx.vectors[id]); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}
	return nil
}

// Open restores an index from a snapshot at path. The snapshot's recorded
// dimensionality must match dimension. Any structural inconsistency
// (bad magic, unknown version or metric, truncated payload, trailing
// bytes) is reported as ErrIndexCorrupt so the caller can fall back to a
// rebuild from the document store.
func Open(path string, dimension int) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	idx, err := readSnapshot(bufio.NewReader(f), dimension)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return idx, nil
}

func readSnapshot(r *bufio.Reader, dimension int) (*Index, error) {
	got := make([]byte, len(magic))
	if _, err := io.ReadFull(r, got); err != nil || string(got) != magic {
		return nil, fmt.Errorf("%w: bad magic", domain.ErrIndexCorrupt)
	}

	headerLine, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: missing header", domain.ErrIndexCorrupt)
	}
	var header snapshotHeader
	if err := json.Unmarshal(headerLine, &header); err != nil {
		return nil, fmt.Errorf("%w: unreadable header", domain.ErrIndexCorrupt)
	}
	if header.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", domain.ErrIndexCorrupt, header.Version)
	}
	if header.Metric != Metric {
		return nil, fmt.Errorf("%w: unsupported metric %q", domain.ErrIndexCorrupt, header.Metric)
	}
	if header.Dimension != dimension {
		return nil, fmt.Errorf("%w: snapshot dimension %d, expected %d", domain.ErrIndexCorrupt, header.Dimension, dimension)
	}
	if header.Count < 0 {
		return nil, fmt.Errorf("%w: negative count", domain.ErrIndexCorrupt)
	}

	idx, err := New(dimension)
	if err != nil {
		return nil, err
	}

	for i := 0; i < header.Count; i++ {
		var idLen uint32
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return nil, fmt.Errorf("%w: truncated record %d", domain.ErrIndexCorrupt, i)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return nil, fmt.Errorf("%w: truncated record %d", domain.ErrIndexCorrupt, i)
		}
		vec := make([]float32, dimension)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("%w: truncated record %d", domain.ErrIndexCorrupt, i)
		}
		idx.vectors[string(idBytes)] = vec
	}

	if _, err := r.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after %d records", domain.ErrIndexCorrupt, header.Count)
	}
	return idx, nil
}
