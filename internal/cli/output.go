package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/alvinbaena/breachguard/internal/audit"
	"github.com/alvinbaena/breachguard/pkg/analysis"
	"github.com/alvinbaena/breachguard/pkg/strength"
	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()

	printer = message.NewPrinter(language.English)
)

func colorBand(band string) string {
	switch band {
	case "very weak", "weak":
		return colorError(band)
	case "fair":
		return colorWarn(band)
	default:
		return colorSuccess(band)
	}
}

func colorSeverity(s strength.Severity) string {
	switch s {
	case strength.Critical, strength.High:
		return colorError(string(s))
	case strength.Medium:
		return colorWarn(string(s))
	default:
		return colorInfo(string(s))
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, r strength.Report) {
	fmt.Fprintf(w, "Strength: %d/100 (%s)\n", r.Score, colorBand(r.Band))
	fmt.Fprintf(w, "Entropy:  %.1f bits over a %d character pool, cracked %s\n", r.EntropyBits, r.CharsetSize, r.CrackTime)
	for _, f := range r.Findings {
		fmt.Fprintf(w, "  [%s] %s\n", colorSeverity(f.Severity), f.Message)
	}
}

func printBreach(w io.Writer, b analysis.Breach) {
	switch b.Status {
	case analysis.StatusFound:
		fmt.Fprintf(w, "Breach:   %s, seen %s times\n", colorError("FOUND"), printer.Sprintf("%d", b.Occurrences))
	case analysis.StatusNotFound:
		fmt.Fprintf(w, "Breach:   %s\n", colorSuccess("not found"))
	case analysis.StatusUnknown:
		fmt.Fprintf(w, "Breach:   %s, the lookup failed: %s\n", colorWarn("unknown"), b.Error)
	default:
		fmt.Fprintf(w, "Breach:   %s\n", colorInfo(string(b.Status)))
	}
}

func printSummary(w io.Writer, s audit.Summary) {
	fmt.Fprintf(w, "Audited %s passwords in %v\n", printer.Sprintf("%d", s.Total), s.Elapsed)
	fmt.Fprintf(w, "  breached:  %s\n", colorError(printer.Sprintf("%d", s.Found)))
	fmt.Fprintf(w, "  clean:     %s\n", colorSuccess(printer.Sprintf("%d", s.NotFound)))
	fmt.Fprintf(w, "  unknown:   %s\n", colorWarn(printer.Sprintf("%d", s.Unknown)))
	fmt.Fprintf(w, "  weak:      %s\n", colorWarn(printer.Sprintf("%d", s.Weak)))
	fmt.Fprintf(w, "  invalid:   %s\n", printer.Sprintf("%d", s.Invalid))
	if s.Skipped > 0 {
		fmt.Fprintf(w, "  skipped:   %s\n", printer.Sprintf("%d", s.Skipped))
	}

	for _, e := range s.Entries {
		switch {
		case e.Error != "":
			fmt.Fprintf(w, "line %d: %s\n", e.Line, e.Error)
		case e.Breach.Status == analysis.StatusFound:
			fmt.Fprintf(w, "line %d: %s (%s times), strength %d (%s)\n", e.Line, colorError("breached"),
				printer.Sprintf("%d", e.Breach.Occurrences), e.Score, colorBand(e.Band))
		case e.Breach.Status == analysis.StatusUnknown:
			fmt.Fprintf(w, "line %d: %s, strength %d (%s)\n", e.Line, colorWarn("lookup failed"), e.Score, colorBand(e.Band))
		}
	}
}
