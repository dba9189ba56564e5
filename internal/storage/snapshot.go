package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Alexander-D-Karpov/blockfs/internal/domain"
)

// Snapshot layout, little endian, no header:
//
//	[Blocks]byte                 pool, 1 = free, 0 = used
//	[MaxEntries]record
//
//	record:
//	  [MaxNameLen+1]byte         name, NUL padded
//	  uint8                      kind
//	  int32                      size
//	  [ceil(Blocks/8)]byte       owned blocks bitmap

var ErrCorruptSnapshot = errors.New("corrupt snapshot")

const (
	blockFree = 1
	blockUsed = 0
)

func recordSize(g domain.Geometry) int {
	return g.MaxNameLen + 1 + 1 + 4 + bitmapSize(g)
}

func bitmapSize(g domain.Geometry) int {
	return (g.Blocks + 7) / 8
}

// SnapshotSize is the exact length of an encoded volume of geometry g.
func SnapshotSize(g domain.Geometry) int {
	return g.Blocks + g.MaxEntries*recordSize(g)
}

func (v *Volume) MarshalBinary() ([]byte, error) {
	g := v.geo
	buf := make([]byte, SnapshotSize(g))

	for i := 0; i < g.Blocks; i++ {
		if v.pool.IsFree(i) {
			buf[i] = blockFree
		} else {
			buf[i] = blockUsed
		}
	}

	off := g.Blocks
	rs := recordSize(g)
	for slot := 0; slot < g.MaxEntries; slot++ {
		rec := buf[off : off+rs]
		e := v.table.Get(slot)
		if !e.IsFree() {
			if len(e.Name) > g.MaxNameLen {
				return nil, fmt.Errorf("encode slot %d: name %q: %w", slot, e.Name, domain.ErrInvalidName)
			}
			copy(rec[:g.MaxNameLen], e.Name)
			rec[g.MaxNameLen+1] = byte(e.Kind)
			binary.LittleEndian.PutUint32(rec[g.MaxNameLen+2:g.MaxNameLen+6], uint32(int32(e.Size)))
			bitmap := rec[g.MaxNameLen+6:]
			for _, b := range e.Blocks {
				bitmap[b/8] |= 1 << (uint(b) % 8)
			}
		}
		off += rs
	}

	return buf, nil
}

func (v *Volume) UnmarshalBinary(data []byte) error {
	g := v.geo
	if len(data) != SnapshotSize(g) {
		return fmt.Errorf("%w: length %d, want %d", ErrCorruptSnapshot, len(data), SnapshotSize(g))
	}

	pool := NewBlockPool(g.Blocks)
	for i := 0; i < g.Blocks; i++ {
		if data[i] != blockFree {
			pool.markUsed(i)
		}
	}

	table := NewEntryTable(g.MaxEntries)
	seen := make(map[string]bool)
	owned := make([]bool, g.Blocks)
	off := g.Blocks
	rs := recordSize(g)
	for slot := 0; slot < g.MaxEntries; slot++ {
		rec := data[off : off+rs]
		off += rs

		nameField := rec[:g.MaxNameLen+1]
		end := bytes.IndexByte(nameField, 0)
		if end < 0 {
			return fmt.Errorf("%w: slot %d name not terminated", ErrCorruptSnapshot, slot)
		}
		if end == 0 {
			continue
		}
		name := string(nameField[:end])
		if seen[name] {
			return fmt.Errorf("%w: duplicate entry %q", ErrCorruptSnapshot, name)
		}
		seen[name] = true

		kind := domain.Kind(rec[g.MaxNameLen+1])
		if kind != domain.KindFile && kind != domain.KindDir {
			return fmt.Errorf("%w: slot %d kind %d", ErrCorruptSnapshot, slot, kind)
		}
		size := int64(int32(binary.LittleEndian.Uint32(rec[g.MaxNameLen+2 : g.MaxNameLen+6])))
		if size < 0 {
			return fmt.Errorf("%w: slot %d size %d", ErrCorruptSnapshot, slot, size)
		}

		var blocks []int
		bitmap := rec[g.MaxNameLen+6:]
		for b := 0; b < g.Blocks; b++ {
			if bitmap[b/8]&(1<<(uint(b)%8)) == 0 {
				continue
			}
			if owned[b] {
				return fmt.Errorf("%w: block %d claimed twice (slot %d)", ErrCorruptSnapshot, b, slot)
			}
			owned[b] = true
			blocks = append(blocks, b)
			pool.markUsed(b)
		}
		if need := g.BlocksNeeded(size); len(blocks) != need {
			return fmt.Errorf("%w: slot %d owns %d blocks, size %d needs %d", ErrCorruptSnapshot, slot, len(blocks), size, need)
		}

		table.Write(slot, domain.Entry{Name: name, Kind: kind, Size: size, Blocks: blocks})
	}

	v.pool = pool
	v.table = table
	v.ensureRoot()
	return nil
}

// LoadVolume decodes a snapshot into a new volume of geometry geo.
func LoadVolume(geo domain.Geometry, opts Options, data []byte) (*Volume, error) {
	v := &Volume{geo: geo, opts: opts}
	if err := v.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return v, nil
}
