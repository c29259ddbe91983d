package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/interviewlens/internal/report"
	"github.com/andresmejia3/interviewlens/internal/store"
)

var showCmd = &cobra.Command{
	Use:         "show <job-id>",
	Short:       "Print a saved evaluation report",
	Long:        "Prints the report of a job from the database, or from the output directory when no database is configured.",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{dbAnnotation: dbOptional},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runShow(cmd.Context(), os.Stdout, DB, Cfg.OutputDir, args[0])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(ctx context.Context, out io.Writer, db *store.Store, outputDir, jobID string) error {
	var (
		doc report.Document
		err error
	)
	if db != nil {
		doc, err = db.GetReport(ctx, jobID)
	} else {
		doc, err = readResults(outputDir, jobID)
	}
	if err != nil {
		return fmt.Errorf("report %s: %w", jobID, err)
	}

	data, err := report.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func readResults(outputDir, jobID string) (report.Document, error) {
	data, err := os.ReadFile(filepath.Join(report.JobDir(outputDir, jobID), report.ResultsFile))
	if err != nil {
		return report.Document{}, err
	}
	return report.Unmarshal(data)
}
