package storage

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/Alexander-D-Karpov/blockfs/internal/domain"
)

type Options struct {
	Containment domain.Containment
	Listing     domain.ListMode
}

func DefaultOptions() Options {
	return Options{
		Containment: domain.ContainmentPrefix,
		Listing:     domain.ListLegacy,
	}
}

// Volume owns one block pool and one entry table. Every operation validates
// fully before it mutates, so a failed call leaves the volume untouched.
type Volume struct {
	geo   domain.Geometry
	opts  Options
	pool  *BlockPool
	table *EntryTable
}

type MoveResult struct {
	Overwrote      bool
	ReleasedBlocks int
}

func NewVolume(geo domain.Geometry, opts Options) *Volume {
	v := &Volume{
		geo:   geo,
		opts:  opts,
		pool:  NewBlockPool(geo.Blocks),
		table: NewEntryTable(geo.MaxEntries),
	}
	v.ensureRoot()
	return v
}

func (v *Volume) ensureRoot() {
	if _, ok := v.table.FindByName(domain.RootName); ok {
		return
	}
	if slot, ok := v.table.FindFreeSlot(); ok {
		v.table.Write(slot, domain.Entry{Name: domain.RootName, Kind: domain.KindDir})
	}
}

func (v *Volume) Geometry() domain.Geometry { return v.geo }
func (v *Volume) Options() Options           { return v.opts }
func (v *Volume) Pool() *BlockPool           { return v.pool }
func (v *Volume) Table() *EntryTable         { return v.table }

func (v *Volume) Stats() domain.Stats {
	free := v.pool.CountFree()
	return domain.Stats{
		TotalBlocks: v.pool.Len(),
		FreeBlocks:  free,
		UsedBlocks:  v.pool.Len() - free,
		TotalSlots:  v.table.Len(),
		UsedSlots:   v.table.Used(),
	}
}

func (v *Volume) Lookup(name string) (domain.Entry, bool) {
	slot, ok := v.table.FindByName(name)
	if !ok {
		return domain.Entry{}, false
	}
	return cloneEntry(*v.table.Get(slot)), true
}

func (v *Volume) validateName(name string) error {
	if name == "" || len(name) > v.geo.MaxNameLen {
		return fmt.Errorf("%q: %w", name, domain.ErrInvalidName)
	}
	for _, r := range name {
		if r == 0 || unicode.IsSpace(r) {
			return fmt.Errorf("%q: %w", name, domain.ErrInvalidName)
		}
	}
	return nil
}

// allocate checks space before slot availability, then reserves and writes.
func (v *Volume) allocate(op, name string, kind domain.Kind, size int64) (domain.Entry, error) {
	need := v.geo.BlocksNeeded(size)
	if free := v.pool.CountFree(); free < need {
		return domain.Entry{}, fmt.Errorf("%s %s: need %d blocks, %d free: %w", op, name, need, free, domain.ErrInsufficientSpace)
	}

	slot, ok := v.table.FindFreeSlot()
	if !ok {
		return domain.Entry{}, fmt.Errorf("%s %s: %w", op, name, domain.ErrTableFull)
	}

	blocks, err := v.pool.Reserve(need)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("%s %s: %w", op, name, err)
	}

	entry := domain.Entry{Name: name, Kind: kind, Size: size, Blocks: blocks}
	v.table.Write(slot, entry)
	return cloneEntry(entry), nil
}

func (v *Volume) free(slot int) int {
	e := v.table.Get(slot)
	released := v.pool.ReleaseBlocks(e.Blocks)
	v.table.Clear(slot)
	return released
}

func (v *Volume) CreateFile(name string, size int64) (domain.Entry, error) {
	if err := v.validateName(name); err != nil {
		return domain.Entry{}, fmt.Errorf("create: %w", err)
	}
	if size < 0 || size > math.MaxInt32 {
		return domain.Entry{}, fmt.Errorf("create %s: size %d: %w", name, size, domain.ErrInvalidSize)
	}
	if _, ok := v.table.FindByName(name); ok {
		return domain.Entry{}, fmt.Errorf("create %s: %w", name, domain.ErrAlreadyExists)
	}
	return v.allocate("create", name, domain.KindFile, size)
}

func (v *Volume) DeleteFile(name string) error {
	slot, ok := v.table.FindByName(name)
	if !ok {
		return fmt.Errorf("delete %s: %w", name, domain.ErrNotFound)
	}
	if v.table.Get(slot).IsDir() {
		return fmt.Errorf("delete %s: %w", name, domain.ErrIsDirectory)
	}
	v.free(slot)
	return nil
}

// CopyFile adds dst with the size of src and its own freshly reserved
// blocks. No content is duplicated.
func (v *Volume) CopyFile(src, dst string) (domain.Entry, error) {
	slot, ok := v.table.FindByName(src)
	if !ok {
		return domain.Entry{}, fmt.Errorf("copy %s: %w", src, domain.ErrNotFound)
	}
	source := v.table.Get(slot)
	if source.IsDir() {
		return domain.Entry{}, fmt.Errorf("copy %s: %w", src, domain.ErrIsDirectory)
	}
	if err := v.validateName(dst); err != nil {
		return domain.Entry{}, fmt.Errorf("copy: %w", err)
	}
	if _, ok := v.table.FindByName(dst); ok {
		return domain.Entry{}, fmt.Errorf("copy %s: %w", dst, domain.ErrAlreadyExists)
	}
	return v.allocate("copy", dst, domain.KindFile, source.Size)
}

// MoveFile renames src to dst in place. An existing dst file is overwritten
// and its blocks released; src keeps the blocks it owns.
func (v *Volume) MoveFile(src, dst string) (MoveResult, error) {
	var res MoveResult

	srcSlot, ok := v.table.FindByName(src)
	if !ok {
		return res, fmt.Errorf("move %s: %w", src, domain.ErrNotFound)
	}
	if v.table.Get(srcSlot).IsDir() {
		return res, fmt.Errorf("move %s: %w", src, domain.ErrIsDirectory)
	}
	if src == dst {
		return res, nil
	}
	if err := v.validateName(dst); err != nil {
		return res, fmt.Errorf("move: %w", err)
	}

	dstSlot, exists := v.table.FindByName(dst)
	if exists && v.table.Get(dstSlot).IsDir() {
		return res, fmt.Errorf("move %s: %w", dst, domain.ErrIsDirectory)
	}

	if exists {
		res.Overwrote = true
		res.ReleasedBlocks = v.free(dstSlot)
	}
	v.table.Get(srcSlot).Name = dst
	return res, nil
}

func (v *Volume) CreateDirectory(path string) (domain.Entry, error) {
	if err := v.validateName(path); err != nil {
		return domain.Entry{}, fmt.Errorf("mkdir: %w", err)
	}
	if _, ok := v.table.FindByName(path); ok {
		return domain.Entry{}, fmt.Errorf("mkdir %s: %w", path, domain.ErrAlreadyExists)
	}

	parent, err := parentOf(path)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("mkdir %s: %w", path, err)
	}
	slot, ok := v.table.FindByName(parent)
	if !ok {
		return domain.Entry{}, fmt.Errorf("mkdir %s: parent %s: %w", path, parent, domain.ErrParentNotFound)
	}
	if !v.table.Get(slot).IsDir() {
		return domain.Entry{}, fmt.Errorf("mkdir %s: parent %s: %w", path, parent, domain.ErrNotDirectory)
	}

	return v.allocate("mkdir", path, domain.KindDir, 0)
}

// parentOf returns the part of path before its last separator. Top-level
// paths have the root as parent.
func parentOf(path string) (string, error) {
	idx := strings.LastIndexByte(path, domain.Separator)
	if idx < 0 {
		return "", domain.ErrInvalidPath
	}
	if idx == 0 {
		return domain.RootName, nil
	}
	return path[:idx], nil
}

// RemoveDirectory removes path and every entry the containment rule places
// beneath it. Victims are collected before anything is cleared. It returns
// the removed names in slot order.
func (v *Volume) RemoveDirectory(path string) ([]string, error) {
	slot, ok := v.table.FindByName(path)
	if !ok {
		return nil, fmt.Errorf("rmdir %s: %w", path, domain.ErrNotFound)
	}
	if path == domain.RootName {
		return nil, fmt.Errorf("rmdir %s: %w", path, domain.ErrRootDirectory)
	}
	if !v.table.Get(slot).IsDir() {
		return nil, fmt.Errorf("rmdir %s: %w", path, domain.ErrNotDirectory)
	}

	var victims []int
	for i := 0; i < v.table.Len(); i++ {
		e := v.table.Get(i)
		if e.IsFree() || e.Name == domain.RootName {
			continue
		}
		if i == slot || v.contains(path, e.Name) {
			victims = append(victims, i)
		}
	}

	removed := make([]string, 0, len(victims))
	for _, i := range victims {
		removed = append(removed, v.table.Get(i).Name)
		v.free(i)
	}
	return removed, nil
}

func (v *Volume) contains(dir, name string) bool {
	if name == dir {
		return false
	}
	switch v.opts.Containment {
	case domain.ContainmentPath:
		return strings.HasPrefix(name, dir+string(domain.Separator))
	default:
		return strings.HasPrefix(name, dir)
	}
}

// ListAllFiles returns the entries a listing shows, in slot order.
func (v *Volume) ListAllFiles() []domain.Entry {
	var listed []domain.Entry
	for _, e := range v.table.Entries() {
		switch {
		case e.IsDir():
			listed = append(listed, e)
		case v.opts.Listing == domain.ListAll:
			listed = append(listed, e)
		case e.Size > 0 && e.Size < int64(v.geo.BlockSize) && legacyListable(e.Name):
			listed = append(listed, e)
		}
	}
	return listed
}

func legacyListable(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c < 'A' || c > 'z') && c != '.' {
			return false
		}
	}
	return true
}
