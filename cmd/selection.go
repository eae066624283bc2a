package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/timvw/assistant-pane/internal/model"
	"github.com/timvw/assistant-pane/internal/selection"
)

var (
	flagSelFile  string
	flagSelText  string
	flagSelStart string
	flagSelEnd   string
)

var selectionCmd = &cobra.Command{
	Use:   "selection",
	Short: "Feed editor selections to a running server",
}

var selectionRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a text selection",
	Long: `Send one selection to the server started with "assistant-pane serve".

Either pass --file (with optional --text, --start and --end as LINE:COL,
zero-based), or pipe a JSON selection on stdin:

  {"text":"...","filePath":"/abs/path","selection":{"start":{"line":0,"character":0},"end":{...}}}`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := selectionFromInput()
		if err != nil {
			return err
		}
		return selection.Send(selectionSocket(), sel)
	},
}

func selectionFromInput() (model.Selection, error) {
	var sel model.Selection
	if flagSelFile == "" {
		if err := json.NewDecoder(os.Stdin).Decode(&sel); err != nil {
			return sel, fmt.Errorf("read selection from stdin: %w", err)
		}
	} else {
		path, err := filepath.Abs(flagSelFile)
		if err != nil {
			return sel, err
		}
		start, err := parsePosition(flagSelStart)
		if err != nil {
			return sel, fmt.Errorf("--start: %w", err)
		}
		end := start
		if flagSelEnd != "" {
			if end, err = parsePosition(flagSelEnd); err != nil {
				return sel, fmt.Errorf("--end: %w", err)
			}
		}
		sel = model.Selection{
			Text:      flagSelText,
			FilePath:  path,
			Selection: model.Range{Start: start, End: end, IsEmpty: start == end},
		}
	}
	if sel.RecordedAt.IsZero() {
		sel.RecordedAt = time.Now().UTC()
	}
	return sel.WithFileURL(), nil
}

// parsePosition parses "LINE:COL". An empty string is the document start.
func parsePosition(s string) (model.Position, error) {
	if s == "" {
		return model.Position{}, nil
	}
	line, col, ok := strings.Cut(s, ":")
	if !ok {
		return model.Position{}, fmt.Errorf("invalid position %q (want LINE:COL)", s)
	}
	l, err := strconv.Atoi(line)
	if err != nil {
		return model.Position{}, fmt.Errorf("invalid line in %q: %w", s, err)
	}
	c, err := strconv.Atoi(col)
	if err != nil {
		return model.Position{}, fmt.Errorf("invalid column in %q: %w", s, err)
	}
	return model.Position{Line: l, Character: c}, nil
}

func init() {
	selectionRecordCmd.Flags().StringVar(&flagSelFile, "file", "", "file the selection is in")
	selectionRecordCmd.Flags().StringVar(&flagSelText, "text", "", "selected text")
	selectionRecordCmd.Flags().StringVar(&flagSelStart, "start", "", "selection start as LINE:COL")
	selectionRecordCmd.Flags().StringVar(&flagSelEnd, "end", "", "selection end as LINE:COL (default: start)")
	selectionCmd.AddCommand(selectionRecordCmd)
	rootCmd.AddCommand(selectionCmd)
}
