package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/alvinbaena/breachguard/internal/audit"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Audit a file of passwords, one per line, for strength and breaches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return auditCommand(cmd)
		},
	}
)

//goland:noinspection GoUnhandledErrorResult
func init() {
	auditCmd.Flags().StringVarP(&inputFile, "in-file", "i", "", "File with one password per line (required)")
	auditCmd.MarkFlagRequired("in-file")
	auditCmd.Flags().IntVarP(&threads, "threads", "t", 0, "Number of passwords analyzed concurrently. Defaults to twice the CPU count")
	auditCmd.Flags().IntVar(&requestsPerSecond, "rps", 10, "Maximum breach lookups started per second. 0 is unlimited, "+
		"which will get you rate limited by the range endpoint")
	auditCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the summary as JSON")

	rootCmd.AddCommand(auditCmd)
}

func auditCommand(cmd *cobra.Command) error {
	in, err := os.Open(inputFile)
	if err != nil {
		return fmt.Errorf("error opening passwords file: %w", err)
	}
	defer func(in *os.File) {
		if err := in.Close(); err != nil {
			log.Warn().Err(err).Msgf("error closing file %s", inputFile)
		}
	}(in)

	analyzer, _, err := newServices()
	if err != nil {
		return err
	}

	auditor := audit.New(analyzer, audit.Config{
		Workers:           threads,
		RequestsPerSecond: requestsPerSecond,
		Progress:          10 * time.Second,
	})

	log.Info().Msgf("auditing passwords in file %s, ^C to stop the process", inputFile)
	summary, err := auditor.Run(cmd.Context(), in)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err = printJSON(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
	} else {
		printSummary(cmd.OutOrStdout(), summary)
	}

	if summary.Failed() {
		return fmt.Errorf("%d breached passwords, %d lookups failed", summary.Found, summary.Unknown)
	}
	return nil
}
