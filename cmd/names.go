package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/investor-scout/internal/pipeline"
)

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "Preview normalized investor names without running discovery",
	Long:  "Parses the input the same way run does and prints each normalized name with its person/company classification. No searches are issued.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		names, err := gatherNames(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(os.Stderr, "No names found.")
			return nil
		}

		formatNamesList(os.Stdout, names)
		return nil
	},
}

func init() {
	namesCmd.Flags().StringVar(&runInput, "input", "", "investor list file (.csv, .xlsx, or .txt)")
	namesCmd.Flags().StringVar(&runNamesRaw, "names", "", "raw investor names (newline or bullet separated)")
	namesCmd.Flags().StringVar(&runNotionDB, "notion-db", "", "Notion database ID to pull names from (default from config)")
	rootCmd.AddCommand(namesCmd)
}

// formatNamesList writes a tabular preview of names and their classified
// types to w.
func formatNamesList(out io.Writer, names []string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tNAME\tTYPE")
	_, _ = fmt.Fprintln(w, "-\t----\t----")

	for i, name := range names {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, name, pipeline.ClassifyType(name))
	}
	_ = w.Flush()
}
