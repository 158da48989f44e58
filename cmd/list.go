package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/conneroisu/projtool/internal/engine"
	"github.com/conneroisu/projtool/internal/types"
	"github.com/spf13/cobra"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:     "list [project-roots...]",
	Aliases: []string{"l"},
	Short:   "Print the resolved build order and up-to-date status",
	Long: `List resolves the project graph from the given roots, topologically
sorts it, and prints each project's up-to-date status without building
anything.

Examples:
  projtool list                   # List the project rooted at .
  projtool list -f json ./a       # Output as JSON`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table|json)")
}

func runList(cmd *cobra.Command, args []string) error {
	roots := resolveRoots(args)
	s := newState()

	order, diag := s.Graph.BuildOrder(roots)
	if diag != nil {
		return fmt.Errorf("resolve project graph: %w", diag)
	}

	switch strings.ToLower(listFormat) {
	case "json":
		return listJSON(s, order)
	default:
		return listTable(s, order)
	}
}

func listTable(s *engine.State, order []types.CanonicalKey) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "PROJECT\tSTATUS\tERRORS")
	for _, key := range order {
		st := s.EvaluateStatus(key)
		fmt.Fprintf(w, "%s\t%s\t%s\n", string(key), st.Kind.String(), errorsColumn(s, key))
	}
	return nil
}

func errorsColumn(s *engine.State, key types.CanonicalKey) string {
	if info, ok := s.Registry.Get(key); ok && info.HasErrors {
		return "yes"
	}
	return "-"
}

func listJSON(s *engine.State, order []types.CanonicalKey) error {
	type row struct {
		Project   string `json:"project"`
		Status    string `json:"status"`
		HasErrors bool   `json:"hasErrors"`
	}
	rows := make([]row, len(order))
	for i, key := range order {
		st := s.EvaluateStatus(key)
		info, _ := s.Registry.Get(key)
		rows[i] = row{Project: string(key), Status: st.Kind.String(), HasErrors: info != nil && info.HasErrors}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
