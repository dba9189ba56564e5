package storage

import (
	"fmt"

	"github.com/Alexander-D-Karpov/blockfs/internal/domain"
)

// BlockPool tracks which blocks of the volume are free. Slots carry no
// identity beyond their index.
type BlockPool struct {
	free []bool
}

func NewBlockPool(n int) *BlockPool {
	p := &BlockPool{free: make([]bool, n)}
	for i := range p.free {
		p.free[i] = true
	}
	return p
}

func (p *BlockPool) Len() int {
	return len(p.free)
}

func (p *BlockPool) IsFree(i int) bool {
	return i >= 0 && i < len(p.free) && p.free[i]
}

func (p *BlockPool) CountFree() int {
	n := 0
	for _, f := range p.free {
		if f {
			n++
		}
	}
	return n
}

func (p *BlockPool) CountUsed() int {
	return len(p.free) - p.CountFree()
}

// Reserve marks the first n free blocks in scan order as used and returns
// their indices. When fewer than n blocks are free nothing is touched.
func (p *BlockPool) Reserve(n int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}
	if avail := p.CountFree(); avail < n {
		return nil, fmt.Errorf("reserve %d blocks, %d free: %w", n, avail, domain.ErrInsufficientSpace)
	}

	blocks := make([]int, 0, n)
	for i := 0; i < len(p.free) && len(blocks) < n; i++ {
		if p.free[i] {
			p.free[i] = false
			blocks = append(blocks, i)
		}
	}
	return blocks, nil
}

// Release frees the first n used blocks in scan order, regardless of who
// owns them. It returns how many were actually freed.
func (p *BlockPool) Release(n int) int {
	released := 0
	for i := 0; i < len(p.free) && released < n; i++ {
		if !p.free[i] {
			p.free[i] = true
			released++
		}
	}
	return released
}

// ReleaseBlocks frees exactly the given blocks. Indices that are out of
// range or already free are skipped.
func (p *BlockPool) ReleaseBlocks(blocks []int) int {
	released := 0
	for _, b := range blocks {
		if b < 0 || b >= len(p.free) || p.free[b] {
			continue
		}
		p.free[b] = true
		released++
	}
	return released
}

func (p *BlockPool) markUsed(i int) {
	if i >= 0 && i < len(p.free) {
		p.free[i] = false
	}
}
