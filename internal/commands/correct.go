package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/learn"
	"github.com/cleared-dev/receipts/internal/money"
	"github.com/cleared-dev/receipts/internal/scanlog"
)

func newCorrectCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correct <file> <amount>",
		Short: "Record the right amount for a receipt and learn a pattern from it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorrect(cmd, g.project, args[0], args[1])
		},
	}
	return cmd
}

func runCorrect(cmd *cobra.Command, root, file, amountArg string) (err error) {
	corrected, err := money.ParseAmount(amountArg)
	if err != nil {
		return err
	}

	p, err := openProject(root)
	if err != nil {
		return err
	}
	defer closeInto(p, &err)

	text, err := p.recognizers().Recognize(cmd.Context(), file)
	if err != nil {
		return fmt.Errorf("recognizing %s: %w", file, err)
	}

	out := cmd.OutOrStdout()
	name := filepath.Base(file)
	detected := p.engine.Evaluate(text)
	entry := scanlog.FromResult(time.Now().UTC(), name, detected)
	entry.Action = scanlog.ActionCorrect
	entry.Amount = money.Format(corrected)
	entry.Patterns = nil

	prop, err := p.engine.Correct(text, detected, corrected, name)
	switch {
	case errors.Is(err, learn.ErrNoCorrection):
		fmt.Fprintf(out, "%s: %s was already detected, nothing to learn\n", name, money.Format(corrected))
		return scanlog.Append(p.root, []scanlog.Entry{entry})
	case errors.Is(err, learn.ErrNoLearnableContext):
		fmt.Fprintf(out, "%s: cannot learn: %v (check the OCR quality of this receipt)\n", name, err)
		return scanlog.Append(p.root, []scanlog.Entry{entry})
	case err != nil:
		return fmt.Errorf("learning from correction: %w", err)
	}

	entry.Patterns = []string{prop.PatternID}
	if err := scanlog.Append(p.root, []scanlog.Entry{entry}); err != nil {
		return err
	}
	paths, err := p.saveCatalogue()
	if err != nil {
		return err
	}
	if _, err := p.commit("learn: "+prop.PatternID+" from "+name, paths...); err != nil {
		return err
	}

	state := "pending approval"
	if prop.Enabled {
		state = "enabled"
	}
	fmt.Fprintf(out, "Learned %s: %s (%s, from %q)\n", prop.PatternID, prop.Expression, state, prop.Label)
	if !prop.Enabled {
		fmt.Fprintf(out, "Approve with: receipts patterns approve %s\n", prop.PatternID)
	}
	return nil
}
