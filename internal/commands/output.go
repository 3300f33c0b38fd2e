package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/money"
)

func verdict(res model.ParseResult) string {
	if res.Reliable {
		return "reliable"
	}
	return "review"
}

// printResult writes a one-line summary of res, plus hints and candidates when verbose.
func printResult(w io.Writer, name string, res model.ParseResult, verbose bool) {
	if !res.Found {
		fmt.Fprintf(w, "%s: no amount found (%s)\n", name, verdict(res))
	} else {
		fmt.Fprintf(w, "%s: %s [%s] confidence %.2f (%s) %s\n",
			name, money.Format(res.Amount), res.MethodTag(), res.Confidence, res.Level, verdict(res))
	}
	if !verbose {
		return
	}

	var hints []string
	if res.DateFound {
		hints = append(hints, "date "+res.Date.Format("2006-01-02"))
	}
	if res.Merchant != "" {
		hints = append(hints, "merchant "+res.Merchant)
	}
	if len(hints) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(hints, "  "))
	}
	for _, c := range res.Candidates {
		line := fmt.Sprintf("  %s %s", c.Method.Label(), money.Format(c.Value))
		if len(c.PatternIDs) > 0 {
			line += " (" + strings.Join(c.PatternIDs, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}
}
