package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/scanlog"
)

func newParseCommand(g *globalFlags) *cobra.Command {
	var fromStdin, verbose bool

	cmd := &cobra.Command{
		Use:   "parse [file...]",
		Short: "Parse receipts and print the detected amount",
		Long: "Parse receipts and print the detected amount.\n\n" +
			"Text files are read as already recognized text; images go through tesseract.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !fromStdin && len(args) == 0 {
				return errors.New("no receipt given: pass files or --stdin")
			}
			return runParse(cmd, g.project, args, fromStdin, verbose)
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read receipt text from stdin")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show hints and every candidate")

	return cmd
}

func runParse(cmd *cobra.Command, root string, files []string, fromStdin, verbose bool) (err error) {
	p, err := openProject(root)
	if err != nil {
		return err
	}
	defer closeInto(p, &err)

	out := cmd.OutOrStdout()
	now := time.Now().UTC()
	var entries []scanlog.Entry

	if fromStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		res := p.engine.Parse(string(data))
		printResult(out, "stdin", res, verbose)
		entries = append(entries, scanlog.FromResult(now, "stdin", res))
	}

	reg := p.recognizers()
	for _, f := range files {
		text, err := reg.Recognize(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("recognizing %s: %w", f, err)
		}
		name := filepath.Base(f)
		res := p.engine.Parse(text)
		printResult(out, name, res, verbose)
		entries = append(entries, scanlog.FromResult(now, name, res))
	}

	return scanlog.Append(p.root, entries)
}
