package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/patterns"
)

func newPatternsCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Inspect and edit the pattern catalogue",
	}
	cmd.AddCommand(
		newPatternsListCommand(g),
		newPatternsToggleCommand(g, "enable", true),
		newPatternsToggleCommand(g, "disable", false),
		newPatternsApproveCommand(g),
		newPatternsAddCommand(g),
		newPatternsDiscoverCommand(g),
		newPatternsMerchantCommand(g),
	)
	return cmd
}

func newPatternsListCommand(g *globalFlags) *cobra.Command {
	var category string
	var pending bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patterns with their counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			p, err := openProject(g.project)
			if err != nil {
				return err
			}
			defer closeInto(p, &err)

			list := p.catalogue.All()
			if pending {
				list = p.catalogue.Pending()
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tPRIORITY\tENABLED\tSOURCE\tOK\tFAIL\tTIER\tPATTERN")
			for _, pat := range list {
				if category != "" && string(pat.Category) != category {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\t%d\t%d\t%s\t%s\n",
					pat.ID, pat.Category, pat.Priority, pat.Enabled, pat.Source,
					pat.Counters.Success, pat.Counters.Failure, pat.Tier(), pat.Expression)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only this category (amount or payment)")
	cmd.Flags().BoolVar(&pending, "pending", false, "only learned patterns awaiting approval")

	return cmd
}

// editCatalogue opens the project, applies edit, then saves and commits the pattern files.
func editCatalogue(g *globalFlags, message string, edit func(*project) error) (err error) {
	p, err := openProject(g.project)
	if err != nil {
		return err
	}
	defer closeInto(p, &err)

	if err := edit(p); err != nil {
		return err
	}
	paths, err := p.saveCatalogue()
	if err != nil {
		return err
	}
	_, err = p.commit(message, paths...)
	return err
}

func newPatternsToggleCommand(g *globalFlags, verb string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			err := editCatalogue(g, "patterns: "+verb+" "+id, func(p *project) error {
				return p.catalogue.SetEnabled(id, enabled)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%sd %s\n", verb, id)
			return nil
		},
	}
}

func newPatternsApproveCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a learned pattern so detection uses it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			err := editCatalogue(g, "patterns: approve "+id, func(p *project) error {
				return p.catalogue.Approve(id)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "approved %s\n", id)
			return nil
		},
	}
}

func newPatternsAddCommand(g *globalFlags) *cobra.Command {
	var (
		category    string
		priority    int
		description string
	)

	cmd := &cobra.Command{
		Use:   "add <expression>",
		Short: "Add a curated pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := model.Category(category)
			if !cat.Valid() {
				return fmt.Errorf("unknown category %q", category)
			}
			var id string
			err := editCatalogue(g, "patterns: add "+args[0], func(p *project) error {
				var err error
				id, err = p.catalogue.Add(args[0], cat, priority, description)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", string(model.CategoryAmount), "amount or payment")
	cmd.Flags().IntVar(&priority, "priority", patterns.DefaultPriority, "higher is tried first")
	cmd.Flags().StringVar(&description, "description", "", "free text")

	return cmd
}

func newPatternsMerchantCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "merchant <name>",
		Short: "Add a known merchant name used for merchant hints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			err := editCatalogue(g, "patterns: add merchant "+name, func(p *project) error {
				if !p.catalogue.AddMerchant(name) {
					return fmt.Errorf("merchant %q is blank or already known", name)
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added merchant %s\n", name)
			return nil
		},
	}
}

func newPatternsDiscoverCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "discover <file>",
		Short: "List amount labels in a receipt that no pattern recognizes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			p, err := openProject(g.project)
			if err != nil {
				return err
			}
			defer closeInto(p, &err)

			text, err := p.recognizers().Recognize(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("recognizing %s: %w", args[0], err)
			}
			hints := p.engine.Discover(text)
			out := cmd.OutOrStdout()
			if len(hints) == 0 {
				fmt.Fprintln(out, "No unknown labels")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tAMOUNT\tSUGGESTED PATTERN")
			for _, h := range hints {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", h.Label, h.Amount, h.Pattern)
			}
			return tw.Flush()
		},
	}
}
