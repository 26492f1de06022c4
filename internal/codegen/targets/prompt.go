package targets

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	selectedColor = color.New(color.FgHiGreen)
	skippedColor  = color.New(color.FgHiRed)
)

// List writes the target names, one per line.
func List(w io.Writer, s *Set) {
	fmt.Fprintln(w, "Available targets:")
	for _, t := range s.All() {
		deps := ""
		if len(t.Deps) > 0 {
			deps = color.New(color.Faint).Sprintf(" (needs %s)", strings.Join(t.Deps, ", "))
		}
		fmt.Fprintf(w, "  %s%s\n", t.Name, deps)
	}
}

func printStatus(w io.Writer, all []*Target, decided map[string]bool) {
	fmt.Fprint(w, "\033[H\033[J")
	fmt.Fprintln(w, "Target list:")
	for _, t := range all {
		sel, ok := decided[t.Name]
		switch {
		case !ok:
			fmt.Fprintln(w, t.Name)
		case sel:
			selectedColor.Fprintln(w, t.Name)
		default:
			skippedColor.Fprintln(w, t.Name)
		}
	}
}

// Prompt asks for every target of s whether it should be generated. An empty
// answer selects the target.
func Prompt(in io.Reader, out io.Writer, s *Set) ([]*Target, error) {
	all := s.All()
	decided := map[string]bool{}
	scanner := bufio.NewScanner(in)

	var selected []*Target
	for _, t := range all {
		for {
			printStatus(out, all, decided)
			fmt.Fprintf(out, "\nDo you want to generate %s? [y/n] (default=yes): ", t.Name)
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, err
				}
				return nil, io.ErrUnexpectedEOF
			}
			choice := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if choice == "" || strings.HasPrefix(choice, "y") {
				decided[t.Name] = true
				selected = append(selected, t)
				break
			}
			if choice == "n" || choice == "no" {
				decided[t.Name] = false
				break
			}
			fmt.Fprintln(out, "Please enter 'y' or 'n'.")
		}
	}
	printStatus(out, all, decided)
	return selected, nil
}
