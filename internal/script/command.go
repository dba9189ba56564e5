// Package script executes line-oriented command scripts against a volume.
package script

import "strings"

const (
	OpCreate   = "CR"
	OpCopy     = "CP"
	OpMkdir    = "CD"
	OpDelete   = "DL"
	OpRmdir    = "DD"
	OpMove     = "MV"
	OpList     = "LL"
	commentTag = "#"
)

// arity is the number of arguments each opcode needs. Extra tokens on a line
// are ignored.
var arity = map[string]int{
	OpCreate: 2,
	OpCopy:   2,
	OpMkdir:  1,
	OpDelete: 1,
	OpRmdir:  1,
	OpMove:   2,
	OpList:   0,
}

var usage = map[string]string{
	OpCreate: "CR <name> <size>",
	OpCopy:   "CP <source> <destination>",
	OpMkdir:  "CD <path>",
	OpDelete: "DL <name>",
	OpRmdir:  "DD <path>",
	OpMove:   "MV <source> <destination>",
	OpList:   "LL",
}

type Command struct {
	Op   string
	Args []string
	Line int
	Raw  string
}

func (c Command) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

// Mutates reports whether a successful run of c changes the volume.
func (c Command) Mutates() bool {
	return c.Op != OpList
}

// ParseLine splits a script line into opcode and arguments. Blank lines and
// comments yield ok == false.
func ParseLine(line string) (cmd Command, ok bool) {
	raw := strings.TrimRight(line, "\r\n")
	fields := strings.Fields(raw)
	if len(fields) == 0 || strings.HasPrefix(fields[0], commentTag) {
		return Command{}, false
	}
	return Command{Op: fields[0], Args: fields[1:], Raw: strings.TrimSpace(raw)}, true
}

// Known reports whether op is one of the seven opcodes.
func Known(op string) bool {
	_, ok := arity[op]
	return ok
}
