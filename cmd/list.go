package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/interviewlens/internal/store"
	"github.com/andresmejia3/interviewlens/internal/utils"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:         "list",
	Short:       "List saved evaluation reports",
	Annotations: map[string]string{dbAnnotation: dbRequired},
	Run: func(cmd *cobra.Command, args []string) {
		reports, err := DB.ListReports(cmd.Context(), listLimit)
		if err != nil {
			utils.Die("Failed to list reports", err, nil)
		}
		printReports(os.Stdout, reports)
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 50, "Maximum number of reports to show (0 for all)")
	rootCmd.AddCommand(listCmd)
}

func printReports(out io.Writer, reports []store.Summary) {
	if len(reports) == 0 {
		fmt.Fprintln(out, "No reports found in database.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tVIDEO\tSTATE\tSOURCE\tFACIAL\tTEXT\tWARNINGS\tCREATED")
	fmt.Fprintln(w, "------\t-----\t-----\t------\t------\t----\t--------\t-------")

	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.JobID, r.VideoPath, r.State, r.Source,
			fmtScore(r.OverallFacial, 3), fmtScore(r.OverallText, 2),
			r.Warnings, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}

// fmtScore prints "-" for a summary that was not produced.
func fmtScore(v *float64, decimals int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}
