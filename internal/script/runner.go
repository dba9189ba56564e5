package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/ideamans/go-l10n"

	"github.com/Alexander-D-Karpov/blockfs/internal/domain"
	"github.com/Alexander-D-Karpov/blockfs/internal/logger"
	"github.com/Alexander-D-Karpov/blockfs/internal/storage"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingArgs    = errors.New("missing arguments")
)

// Recorder receives the raw line of every command that changed the volume.
type Recorder interface {
	Append(line string) error
}

type Summary struct {
	Commands int
	Applied  int
	Failed   int
}

// Runner applies commands to one volume and writes a status line per result.
// Failed commands leave the volume untouched and do not stop the run.
type Runner struct {
	vol *storage.Volume
	out io.Writer
	rec Recorder
}

func NewRunner(vol *storage.Volume, out io.Writer) *Runner {
	return &Runner{vol: vol, out: out}
}

func (r *Runner) SetRecorder(rec Recorder) {
	r.rec = rec
}

// Run executes every command read from in. Lines of any length are
// accepted. Only a read error or a cancelled context ends the run early.
func (r *Runner) Run(ctx context.Context, in io.Reader) (Summary, error) {
	var sum Summary

	br := bufio.NewReader(in)
	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return sum, fmt.Errorf("read script: %w", readErr)
		}
		if line == "" && readErr == io.EOF {
			return sum, nil
		}
		lineNo++

		if cmd, ok := ParseLine(line); ok {
			cmd.Line = lineNo
			sum.Commands++
			if err := r.Exec(cmd); err != nil {
				sum.Failed++
				logger.Debug("line %d: %v", lineNo, err)
			} else {
				sum.Applied++
			}
		}

		if readErr == io.EOF {
			return sum, nil
		}
	}
}

// Exec runs one command. The returned error has already been reported on
// the output.
func (r *Runner) Exec(cmd Command) error {
	if !Known(cmd.Op) {
		r.say("Unknown command: %s", cmd.Op)
		return fmt.Errorf("%s: %w", cmd.Op, ErrUnknownCommand)
	}
	if len(cmd.Args) < arity[cmd.Op] {
		r.say("Usage: %s", usage[cmd.Op])
		return fmt.Errorf("%s: %w", cmd.Op, ErrMissingArgs)
	}

	logger.Debug("Executing %s %v", cmd.Op, cmd.Args)

	var err error
	switch cmd.Op {
	case OpCreate:
		err = r.create(cmd.Arg(0), cmd.Arg(1))
	case OpCopy:
		err = r.copy(cmd.Arg(0), cmd.Arg(1))
	case OpMkdir:
		err = r.mkdir(cmd.Arg(0))
	case OpDelete:
		err = r.delete(cmd.Arg(0))
	case OpRmdir:
		err = r.rmdir(cmd.Arg(0))
	case OpMove:
		err = r.move(cmd.Arg(0), cmd.Arg(1))
	case OpList:
		r.list()
	}
	if err != nil {
		return err
	}

	if r.rec != nil && cmd.Mutates() {
		if jerr := r.rec.Append(cmd.Raw); jerr != nil {
			logger.Warn("Journal append failed: %v", jerr)
		}
	}
	return nil
}

func (r *Runner) create(name, sizeArg string) error {
	size, perr := strconv.ParseInt(sizeArg, 10, 64)
	if perr != nil {
		err := fmt.Errorf("create %s: size %q: %w", name, sizeArg, domain.ErrInvalidSize)
		r.fail(err, sizeArg)
		return err
	}
	if _, err := r.vol.CreateFile(name, size); err != nil {
		subject := name
		if errors.Is(err, domain.ErrInvalidSize) {
			subject = sizeArg
		}
		r.fail(err, subject)
		return err
	}
	r.say("File '%s' created with size %d bytes", name, size)
	return nil
}

func (r *Runner) copy(src, dst string) error {
	if _, err := r.vol.CopyFile(src, dst); err != nil {
		r.fail(err, pickSubject(err, src, dst))
		return err
	}
	r.say("File '%s' copied to '%s'", src, dst)
	return nil
}

func (r *Runner) move(src, dst string) error {
	res, err := r.vol.MoveFile(src, dst)
	if err != nil {
		subject := pickSubject(err, src, dst)
		if errors.Is(err, domain.ErrIsDirectory) {
			if e, ok := r.vol.Lookup(src); ok && !e.IsDir() {
				subject = dst
			}
		}
		r.fail(err, subject)
		return err
	}
	if res.Overwrote {
		r.say("Destination file '%s' already exists.", dst)
	}
	r.say("File '%s' moved to '%s'", src, dst)
	return nil
}

func (r *Runner) mkdir(path string) error {
	if _, err := r.vol.CreateDirectory(path); err != nil {
		r.fail(err, path)
		return err
	}
	r.say("New directory '%s' created.", path)
	return nil
}

func (r *Runner) delete(name string) error {
	if err := r.vol.DeleteFile(name); err != nil {
		r.fail(err, name)
		return err
	}
	r.say("File '%s' deleted successfully", name)
	return nil
}

func (r *Runner) rmdir(path string) error {
	removed, err := r.vol.RemoveDirectory(path)
	if err != nil {
		r.fail(err, path)
		return err
	}
	logger.Debug("Removed %d entries under %s", len(removed), path)
	r.say("Directory '%s' removed.", path)
	return nil
}

func (r *Runner) list() {
	fmt.Fprintln(r.out)
	r.say("Here's the list of all files and directories:")
	for _, e := range r.vol.ListAllFiles() {
		if e.IsDir() {
			r.say("Directory: %s", e.Name)
		} else {
			r.say("%s %d bytes.", e.Name, e.Size)
		}
	}
	fmt.Fprintln(r.out)
}

// pickSubject names the argument an error is about: errors on the new name
// refer to dst, everything else to src.
func pickSubject(err error, src, dst string) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrInvalidName):
		return dst
	default:
		return src
	}
}

func (r *Runner) fail(err error, subject string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.say("'%s' does not exist.", subject)
	case errors.Is(err, domain.ErrAlreadyExists):
		r.say("'%s' already exists.", subject)
	case errors.Is(err, domain.ErrInsufficientSpace):
		r.say("Not enough space for '%s'.", subject)
	case errors.Is(err, domain.ErrTableFull):
		r.say("Max file limit reached.")
	case errors.Is(err, domain.ErrInvalidPath):
		r.say("Invalid directory path '%s'.", subject)
	case errors.Is(err, domain.ErrParentNotFound):
		r.say("Parent directory of '%s' does not exist.", subject)
	case errors.Is(err, domain.ErrInvalidName):
		r.say("Invalid name '%s'.", subject)
	case errors.Is(err, domain.ErrInvalidSize):
		r.say("Invalid size '%s'.", subject)
	case errors.Is(err, domain.ErrIsDirectory):
		r.say("'%s' is a directory.", subject)
	case errors.Is(err, domain.ErrNotDirectory):
		r.say("'%s' is not a directory.", subject)
	case errors.Is(err, domain.ErrRootDirectory):
		r.say("The root directory cannot be removed.")
	default:
		r.say("Error: %v", err)
	}
}

func (r *Runner) say(format string, args ...interface{}) {
	fmt.Fprintln(r.out, l10n.F(format, args...))
}
