package pricing

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const lineHeader = "%-4s %-55s %6s %4s %10s %12s\n"

func usd(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func truncateDesc(s string) string {
	r := []rune(s)
	if len(r) > 54 {
		return string(r[:54])
	}
	return s
}

func writeLine(b *strings.Builder, n int, l PricedLine) {
	flag := ""
	if l.Flagged {
		flag = " *"
	}
	fmt.Fprintf(b, "%-4d %-55s %6.1f %4s %10s %12s%s\n",
		n, truncateDesc(l.Description), l.Quantity, l.Unit, usd(l.AppliedUnitCost), usd(l.RCV), flag)
}

func writeFlags(b *strings.Builder, flags []Flag) {
	if len(flags) == 0 {
		return
	}
	fmt.Fprint(b, "\nFLAGS (* items above):")
	for _, f := range flags {
		fmt.Fprintf(b, "\n  - %s", f.Reason)
	}
}

// FormatEstimate renders a single-phase estimate as a text table.
func FormatEstimate(res Result) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "DRAFT ESTIMATE")
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, lineHeader, "#", "Description", "Qty", "Unit", "Cost", "RCV")
	fmt.Fprintln(&b, strings.Repeat("-", 95))

	for i, l := range res.Lines {
		writeLine(&b, i+1, l)
	}

	fmt.Fprintln(&b, strings.Repeat("-", 95))
	fmt.Fprintf(&b, "%75s %12s", "SUBTOTAL RCV", usd(res.SubtotalRCV))
	if res.TotalTax > 0 {
		fmt.Fprintf(&b, "\n%75s %12s", "TAX", usd(res.TotalTax))
		fmt.Fprintf(&b, "\n%75s %12s", "TOTAL", usd(res.TotalWithTax))
	}
	writeFlags(&b, res.Flags)
	return b.String()
}

// FormatFivePhase renders a phased estimate with per-phase subtotals and a
// phase summary.
func FormatFivePhase(res Result) string {
	var b strings.Builder
	rule := strings.Repeat("=", 95)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "DRAFT ESTIMATE (5-Phase Structure)")
	fmt.Fprintln(&b, rule)

	totals := res.PhaseTotals()
	byPhase := make(map[Phase]float64, len(totals))
	for _, pt := range totals {
		byPhase[pt.Phase] = pt.RCV
	}

	subtotal := func(p Phase) {
		fmt.Fprintf(&b, "%4s %55s %6s %4s %10s %12s\n", "", "Phase subtotal:", "", "", "", usd(byPhase[p]))
	}

	current, started := PhaseNone, false
	for i, l := range res.Lines {
		if !started || l.Phase != current {
			if started {
				subtotal(current)
				fmt.Fprintln(&b)
			}
			current, started = l.Phase, true
			name := string(l.Phase)
			if name == "" {
				name = "Other"
			}
			fmt.Fprintf(&b, "--- %s ---\n", name)
			fmt.Fprintf(&b, lineHeader, "#", "Description", "Qty", "Unit", "Cost", "RCV")
			fmt.Fprintln(&b, strings.Repeat("-", 95))
		}
		writeLine(&b, i+1, l)
	}
	if started {
		subtotal(current)
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "PHASE SUMMARY:")
	for _, pt := range totals {
		pct := 0.0
		if res.SubtotalRCV > 0 {
			pct = pt.RCV / res.SubtotalRCV * 100
		}
		fmt.Fprintf(&b, "  %-30s %12s  (%5.1f%%)\n", pt.Phase, usd(pt.RCV), pct)
	}
	fmt.Fprintf(&b, "  %s\n", strings.Repeat("-", 50))
	fmt.Fprintf(&b, "  %-30s %12s", "SUBTOTAL RCV", usd(res.SubtotalRCV))
	if res.TotalTax > 0 {
		fmt.Fprintf(&b, "\n  %-30s %12s", "TAX", usd(res.TotalTax))
		fmt.Fprintf(&b, "\n  %-30s %12s", "TOTAL", usd(res.TotalWithTax))
	}
	writeFlags(&b, res.Flags)
	return b.String()
}
