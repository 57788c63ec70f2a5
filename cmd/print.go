package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
)

// printMarkdown renders markdown for the terminal. When rendering fails the
// raw markdown is still printed, a report is never lost to a styling error.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Println(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render error: %v\n", err)
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
