package domain

const (
	RootName  = "/"
	Separator = '/'

	DefaultBlocks     = 128
	DefaultBlockSize  = 1024
	DefaultMaxEntries = 16
	DefaultMaxNameLen = 8
)

// Geometry fixes the shape of a volume. Two volumes with the same geometry
// encode to snapshots of the same length.
type Geometry struct {
	Blocks     int
	BlockSize  int
	MaxEntries int
	MaxNameLen int
}

func DefaultGeometry() Geometry {
	return Geometry{
		Blocks:     DefaultBlocks,
		BlockSize:  DefaultBlockSize,
		MaxEntries: DefaultMaxEntries,
		MaxNameLen: DefaultMaxNameLen,
	}
}

// BlocksNeeded rounds size up to whole blocks.
func (g Geometry) BlocksNeeded(size int64) int {
	if size <= 0 {
		return 0
	}
	bs := int64(g.BlockSize)
	return int((size + bs - 1) / bs)
}

type Stats struct {
	TotalBlocks int
	FreeBlocks  int
	UsedBlocks  int
	TotalSlots  int
	UsedSlots   int
}

// Containment decides whether an entry lies beneath a directory.
type Containment string

const (
	ContainmentPrefix Containment = "prefix"
	ContainmentPath   Containment = "path"
)

// ListMode selects which entries ListAllFiles reports.
type ListMode string

const (
	ListLegacy ListMode = "legacy"
	ListAll    ListMode = "all"
)
