// Package shell is a line-oriented front end for the tracker.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"inventory-tracker/internal/parse"
	"inventory-tracker/internal/tracker"
)

const helpText = `Commands (indexes start at 1):
  ls                                   show the tree
  sel [p [c]]                          select machine p, child c of p, or nothing
  part <i>                             select part i of the part list
  add-machine <name>                   add a top-level machine
  add-layer <name>                     add a sub-machine to the selected machine
  add-part <number> <qty> <location>   add a part to the selected machine
  edit <name>                          rename the selected machine
  edit <number> <qty> <location>       edit the selected part
  rm                                   delete the selected part or machine
  move                                 toggle move mode
  mv <from> <to>                       reorder machines, sub-machines or parts
  reload                               fetch the tree from the server
  help                                 show this text
  quit                                 leave`

var errUsage = errors.New("wrong number of arguments")

// Shell reads commands from in and writes results to out.
type Shell struct {
	tracker *tracker.Tracker
	in      *bufio.Scanner
	out     io.Writer
	prompt  string

	startRead sync.Once
	lines     chan string
	readErr   error // set before lines is closed
}

// New creates a shell driving t.
func New(t *tracker.Tracker, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		tracker: t,
		in:      bufio.NewScanner(in),
		out:     out,
		prompt:  "> ",
		lines:   make(chan string),
	}
}

// Run loads the tree and processes commands until quit or end of input.
func (s *Shell) Run(ctx context.Context) error {
	if err := s.tracker.Load(ctx); err != nil {
		s.printErr(err)
	} else {
		render(s.out, s.tracker)
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(s.out, s.prompt)
		line, ok := s.readLine(ctx)
		if !ok {
			fmt.Fprintln(s.out)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return s.readErr
		}
		quit, err := s.Exec(ctx, line)
		if err != nil {
			s.printErr(err)
		}
		if quit {
			return nil
		}
	}
}

// readLine waits for the next input line or for ctx to end. Scanning runs on
// its own goroutine since a blocked read cannot be interrupted.
func (s *Shell) readLine(ctx context.Context) (string, bool) {
	s.startRead.Do(func() {
		go func() {
			defer close(s.lines)
			for s.in.Scan() {
				s.lines <- s.in.Text()
			}
			s.readErr = s.in.Err()
		}()
	})

	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-s.lines:
		if !ok {
			return "", false
		}
		return strings.TrimSpace(line), true
	}
}

func (s *Shell) printErr(err error) {
	fmt.Fprintf(s.out, "error: %v\n", err)
}

// Exec runs a single command line. It reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	t := s.tracker

	var err error
	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
		return false, nil
	case "ls":
	case "reload":
		err = t.Load(ctx)
	case "sel":
		err = s.selectMachine(args)
	case "part":
		err = s.selectPart(args)
	case "add-machine":
		err = t.AddMachine(ctx, strings.Join(args, " "))
	case "add-layer":
		err = t.AddLayer(ctx, strings.Join(args, " "))
	case "add-part":
		var in parse.PartInput
		if in, err = partArgs(args); err == nil {
			err = t.AddPart(ctx, in)
		}
	case "edit":
		err = s.edit(ctx, args)
	case "rm":
		err = s.remove(ctx)
	case "move":
		if t.ToggleMove() {
			fmt.Fprintln(s.out, "Move mode on. Use mv <from> <to>; run move again to finish.")
		}
	case "mv":
		err = s.move(ctx, args)
	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	if err != nil {
		return false, err
	}
	render(s.out, t)
	return false, nil
}

func (s *Shell) selectMachine(args []string) error {
	switch len(args) {
	case 0:
		s.tracker.ClearSelection()
		return nil
	case 1:
		p, err := index(args[0])
		if err != nil {
			return err
		}
		return s.tracker.SelectParent(p)
	case 2:
		p, err := index(args[0])
		if err != nil {
			return err
		}
		c, err := index(args[1])
		if err != nil {
			return err
		}
		return s.tracker.SelectChild(p, c)
	default:
		return errUsage
	}
}

func (s *Shell) selectPart(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	i, err := index(args[0])
	if err != nil {
		return err
	}
	return s.tracker.SelectPart(i)
}

func (s *Shell) edit(ctx context.Context, args []string) error {
	if _, ok := s.tracker.SelectedPart(); ok {
		in, err := partArgs(args)
		if err != nil {
			return err
		}
		return s.tracker.EditPart(ctx, in)
	}
	return s.tracker.Rename(ctx, strings.Join(args, " "))
}

func (s *Shell) remove(ctx context.Context) error {
	t := s.tracker
	var what string
	if vp, ok := t.SelectedPart(); ok {
		what = "part " + vp.PartNumber
	} else if m := t.SelectedMachine(); m != nil {
		what = "machine " + m.Name
		if m.HasChildren() {
			what += " and its sub-machines"
		}
	} else {
		return tracker.ErrNoSelection
	}

	fmt.Fprintf(s.out, "Delete %s? [y/N] ", what)
	answer, ok := s.readLine(ctx)
	if !ok || !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(s.out, "Cancelled.")
		return nil
	}
	return t.Delete(ctx)
}

// move reorders whatever the selection points at: parts when a part is
// selected, sub-machines when a sub-machine is selected, else top-level
// machines.
func (s *Shell) move(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	from, err := index(args[0])
	if err != nil {
		return err
	}
	to, err := index(args[1])
	if err != nil {
		return err
	}

	t := s.tracker
	sel := t.Selected()
	switch {
	case sel.Part != tracker.None:
		return t.MovePart(ctx, from, to)
	case sel.Child != tracker.None:
		return t.MoveChild(ctx, sel.Parent, from, to)
	default:
		return t.MoveParent(ctx, from, to)
	}
}

// index converts a 1-based index typed by the user.
func index(raw string) (int, error) {
	n, err := parse.Index(raw)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: indexes start at 1", parse.ErrInvalid)
	}
	return n - 1, nil
}

func partArgs(args []string) (parse.PartInput, error) {
	if len(args) < 3 {
		return parse.PartInput{}, fmt.Errorf("%w: need <number> <qty> <location>", errUsage)
	}
	qty, err := parse.Quantity(args[1])
	if err != nil {
		return parse.PartInput{}, err
	}
	return parse.Part(args[0], qty, strings.Join(args[2:], " "))
}
