// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"fmt"

	"github.com/alvinbaena/breachguard/internal/config"
	"github.com/alvinbaena/breachguard/internal/util"
	"github.com/alvinbaena/breachguard/pkg/analysis"
	"github.com/alvinbaena/breachguard/pkg/hibp"
	"github.com/alvinbaena/breachguard/pkg/strength"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "breachguard [COMMAND] [OPTIONS]",
		Short: "Estimate password strength and check passwords against the Pwned Passwords corpus",
		Long: "Estimate how guessable a password is and check whether it appears in the Pwned Passwords " +
			"(haveibeenpwned.com) breach corpus. Only the first 5 characters of the password's SHA1 hash " +
			"ever leave this machine.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			util.ApplyCliSettings(verbose, profile, pprofPort)
			cfg, err = config.Load(configFile)
			return err
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print more information on the processing")
	rootCmd.PersistentFlags().BoolVar(&profile, "profile", false, "Enable the profiling server (pprof) when running commands")
	rootCmd.PersistentFlags().Uint16Var(&pprofPort, "profile-port", 6060, "The port to use for the pprof server. Only used if the profile flag is set")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Optional YAML, JSON or TOML config file. "+
		"Environment variables prefixed with "+config.EnvPrefix+"_ take precedence")
}

// newServices wires the estimator, range client and analyzer from the loaded configuration.
func newServices() (*analysis.Analyzer, *hibp.Checker, error) {
	client, err := hibp.NewClient(cfg.ClientConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing range client: %w", err)
	}

	checker := hibp.NewChecker(client, nil)
	estimator := strength.NewEstimator(cfg.Policy())
	return analysis.New(estimator, checker, cfg.Range.Timeout), checker, nil
}

// Execute runs the CLI. Commands stop their work when ctx is done.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
