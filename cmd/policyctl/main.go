package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/policyxray/policyxray/internal/analysis"
	"github.com/policyxray/policyxray/internal/analyzer"
	"github.com/policyxray/policyxray/internal/rules"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "policyctl",
		Short: "Privacy policy risk analysis from the command line",
		Long: `policyctl runs the PolicyX-Ray rule engine locally.

It segments a privacy policy into clauses, scans them against the
per-category keyword rules, and prints the scored result as JSON or
a readable report. AI enrichment is a server concern; policyctl only
runs the rule engine.`,
		Version: version,
	}

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(rulesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func analyzeCmd() *cobra.Command {
	var (
		rulesFile          string
		countPerOccurrence bool
		asJSON             bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a privacy policy from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readPolicy(args)
			if err != nil {
				return err
			}

			set, err := rules.Load(rulesFile)
			if err != nil {
				return err
			}
			az := analyzer.New(set, analyzer.Options{DedupePerSegment: !countPerOccurrence})
			res := az.Analyze(text)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printReport(os.Stdout, set, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesFile, "rules", "", "yaml rule file replacing the built-in set")
	cmd.Flags().BoolVar(&countPerOccurrence, "count-per-occurrence", false, "count repeated keywords in one clause per occurrence")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON result")
	return cmd
}

func rulesCmd() *cobra.Command {
	var rulesFile string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the active rule inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := rules.Load(rulesFile)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tBASE\tTOKEN\tKIND\tWEIGHT")
			for _, cat := range set.Categories() {
				for i := range cat.Keywords {
					kw := &cat.Keywords[i]
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\n",
						cat.ID, cat.BaseWeight, kw.Token, kw.Kind, cat.EffectiveWeight(kw))
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&rulesFile, "rules", "", "yaml rule file replacing the built-in set")
	return cmd
}

func readPolicy(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read policy: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func printReport(w io.Writer, set *rules.Set, res *analysis.Result) {
	fmt.Fprintf(w, "Overall: %d/100 (%s)\n\n", res.Overall.Score, res.Overall.RiskLevel)

	ids := set.IDs()
	sort.Strings(ids)
	for _, id := range ids {
		cr, ok := res.Categories[id]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s: %d/100 (%s), %d match(es)\n", id, cr.Score, cr.RiskLevel, cr.TotalMatches)
		for _, m := range cr.Matches {
			clause := m.Text
			if len(clause) > 120 {
				clause = clause[:120] + "..."
			}
			fmt.Fprintf(w, "  - [%s] %s\n", m.MatchedKeyword, clause)
		}
	}
}
