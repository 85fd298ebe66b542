package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alvinbaena/breachguard/pkg/analysis"
	"github.com/alvinbaena/breachguard/pkg/hibp"
	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	analyzeCmd = &cobra.Command{
		Use:   "analyze [password]",
		Short: "Estimate the strength of a password and check it against the breach corpus",
		Long: "Estimate the strength of a password and check it against the breach corpus. Passing the password " +
			"as an argument leaves it in your shell history, prefer --interactive or --stdin.",
		Args: func(cmd *cobra.Command, args []string) error {
			if interactive && fromStdin {
				return errors.New("flags --interactive and --stdin are mutually exclusive")
			}

			if !interactive && !fromStdin {
				return cobra.ExactArgs(1)(cmd, args)
			}

			return cobra.NoArgs(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, checker, err := newServices()
			if err != nil {
				return err
			}

			switch {
			case interactive:
				return analyzeInteractive(cmd.Context(), cmd.OutOrStdout(), analyzer, checker)
			case fromStdin:
				input, err := readStdin(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				return analyzeOne(cmd.Context(), cmd.OutOrStdout(), analyzer, checker, input)
			default:
				return analyzeOne(cmd.Context(), cmd.OutOrStdout(), analyzer, checker, args[0])
			}
		},
	}
)

func init() {
	analyzeCmd.Flags().BoolVarP(&interactive, "interactive", "n", false, "Interactive mode.")
	analyzeCmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the password from standard input. Input is not echoed when stdin is a terminal.")
	analyzeCmd.Flags().BoolVarP(&hashed, "hashed", "s", false, "If the supplied password will be a Hexadecimal SHA1 hash or a plain text string. "+
		"Hashes are only checked against the breach corpus.")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")

	rootCmd.AddCommand(analyzeCmd)
}

// readStdin reads one line from stdin, without echo when stdin is a terminal.
func readStdin(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(w, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("error reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("error reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func analyzeInteractive(ctx context.Context, w io.Writer, analyzer *analysis.Analyzer, checker *hibp.Checker) error {
	label := "Password"
	if hashed {
		label = "SHA1 Hex hash"
	}

	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if len(input) == 0 {
				return errors.New("please enter a valid password")
			}

			if hashed {
				if _, err := hibp.Split(input); err != nil {
					return err
				}
			}
			return nil
		},
	}

	if !hashed {
		prompt.Mask = '*'
	} else {
		log.Info().Msgf("Flag 'hashed' is set. Please use SHA1 Hashed passwords.")
	}

	log.Info().Msgf("Running interactive session. ^C to exit")
	for {
		input, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				log.Info().Msgf("Goodbye")
				return nil
			}
			return fmt.Errorf("error during interactive session: %w", err)
		}

		if err = analyzeOne(ctx, w, analyzer, checker, input); err != nil {
			log.Error().Err(err).Msg("Error processing input")
		}
	}
}

func analyzeOne(ctx context.Context, w io.Writer, analyzer *analysis.Analyzer, checker *hibp.Checker, input string) error {
	if hashed {
		breach, err := checkDigest(ctx, checker, input)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(w, struct {
				Breach analysis.Breach `json:"breach"`
			}{breach})
		}
		printBreach(w, breach)
		return breachOutcome(breach)
	}

	result, err := analyzer.Analyze(ctx, input)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err = printJSON(w, result); err != nil {
			return err
		}
	} else {
		printReport(w, result.Strength)
		printBreach(w, result.Breach)
	}

	return breachOutcome(result.Breach)
}

func checkDigest(ctx context.Context, checker *hibp.Checker, digest string) (analysis.Breach, error) {
	if cfg.Range.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Range.Timeout)
		defer cancel()
	}

	verdict, err := checker.CheckDigest(ctx, digest)
	if errors.Is(err, hibp.ErrInvalidDigest) {
		return analysis.Breach{}, err
	}

	return analysis.BreachFromVerdict(verdict, err), nil
}

// breachOutcome turns a failed lookup into a non-zero exit. An unknown status is never a pass.
func breachOutcome(b analysis.Breach) error {
	if b.Status == analysis.StatusUnknown {
		return fmt.Errorf("breach status unknown: %w", b.Err)
	}
	return nil
}
