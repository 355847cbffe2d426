package shell

import (
	"fmt"
	"io"
	"strings"

	"inventory-tracker/internal/tracker"
)

const (
	markSelected = "*"
	markLast     = "~"
)

func marker(selected, last bool) string {
	switch {
	case selected:
		return markSelected
	case last:
		return markLast
	default:
		return " "
	}
}

// render writes the tree, the part pane and the enabled commands.
func render(w io.Writer, t *tracker.Tracker) {
	sel, last := t.Selected(), t.LastSelected()
	machines := t.Machines()

	fmt.Fprintln(w, "Machines:")
	if len(machines) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for pi, p := range machines {
		mark := marker(
			pi == sel.Parent && sel.Child == tracker.None,
			pi == last.Parent && last.Child == tracker.None,
		)
		fmt.Fprintf(w, "%s %d %s\n", mark, pi+1, p.Name)
		for ci, c := range p.Children {
			mark := marker(
				pi == sel.Parent && ci == sel.Child,
				pi == last.Parent && ci == last.Child,
			)
			fmt.Fprintf(w, "    %s %d.%d %s\n", mark, pi+1, ci+1, c.Name)
		}
	}

	if m := t.SelectedMachine(); m != nil {
		fmt.Fprintf(w, "Parts of %s:\n", m.Name)
		parts := t.VisibleParts()
		if len(parts) == 0 {
			fmt.Fprintln(w, "  (none)")
		}
		children := machines[sel.Parent].Children
		for i, vp := range parts {
			mark := marker(i == sel.Part, i == last.Part)
			line := fmt.Sprintf("%s %d %s  qty %d  @ %s", mark, i+1, vp.PartNumber, vp.Quantity, vp.Location)
			if sel.Child == tracker.None && vp.Owner != tracker.None {
				line += fmt.Sprintf("  [%s]", children[vp.Owner].Name)
			}
			fmt.Fprintln(w, line)
		}
	} else {
		fmt.Fprintln(w, "No machine selected.")
	}

	if t.MoveMode() {
		fmt.Fprintln(w, "Move mode: on")
	}
	fmt.Fprintf(w, "Commands: %s\n", strings.Join(enabled(t.Actions()), " "))
}

func enabled(a tracker.Actions) []string {
	var out []string
	add := func(on bool, name string) {
		if on {
			out = append(out, name)
		}
	}
	add(a.AddMachine, "add-machine")
	add(a.AddLayer, "add-layer")
	add(a.AddDetail, "add-part")
	add(a.Edit, "edit")
	add(a.Delete, "rm")
	add(a.Move, "move")
	return out
}
