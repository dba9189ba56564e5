package domain

type Kind uint8

const (
	KindFree Kind = iota
	KindFile
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	default:
		return "free"
	}
}

// Entry is one slot of the entry table. A zero Entry is a free slot.
type Entry struct {
	Name   string
	Kind   Kind
	Size   int64
	Blocks []int
}

func (e *Entry) IsFree() bool {
	return e.Name == ""
}

func (e *Entry) IsDir() bool {
	return e.Kind == KindDir
}

func (e *Entry) IsFile() bool {
	return e.Kind == KindFile
}
