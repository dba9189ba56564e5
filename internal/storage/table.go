package storage

import "github.com/Alexander-D-Karpov/blockfs/internal/domain"

// EntryTable is a fixed-capacity array of entries. A slot whose name is
// empty is free.
type EntryTable struct {
	slots []domain.Entry
}

func NewEntryTable(capacity int) *EntryTable {
	return &EntryTable{slots: make([]domain.Entry, capacity)}
}

func (t *EntryTable) Len() int {
	return len(t.slots)
}

func (t *EntryTable) Used() int {
	n := 0
	for i := range t.slots {
		if !t.slots[i].IsFree() {
			n++
		}
	}
	return n
}

func (t *EntryTable) FindByName(name string) (int, bool) {
	if name == "" {
		return -1, false
	}
	for i := range t.slots {
		if t.slots[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

func (t *EntryTable) FindFreeSlot() (int, bool) {
	for i := range t.slots {
		if t.slots[i].IsFree() {
			return i, true
		}
	}
	return -1, false
}

func (t *EntryTable) Get(slot int) *domain.Entry {
	if slot < 0 || slot >= len(t.slots) {
		return nil
	}
	return &t.slots[slot]
}

func (t *EntryTable) Write(slot int, e domain.Entry) {
	t.slots[slot] = e
}

func (t *EntryTable) Clear(slot int) {
	t.slots[slot] = domain.Entry{}
}

// Entries returns copies of the occupied slots in slot order.
func (t *EntryTable) Entries() []domain.Entry {
	var entries []domain.Entry
	for i := range t.slots {
		if t.slots[i].IsFree() {
			continue
		}
		entries = append(entries, cloneEntry(t.slots[i]))
	}
	return entries
}

func cloneEntry(e domain.Entry) domain.Entry {
	if e.Blocks != nil {
		blocks := make([]int, len(e.Blocks))
		copy(blocks, e.Blocks)
		e.Blocks = blocks
	}
	return e
}
