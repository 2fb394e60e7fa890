package subpulse

import (
	"fmt"
	"strings"
	"time"
)

// RenderReport formats agg into the daily summary message: cross-platform
// totals followed by the per-platform breakdowns, with a generation
// timestamp footer in Jakarta local time.
func RenderReport(agg *DailyAggregate, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("╔═══════════════════════════\n")
	fmt.Fprintf(&b, "║ 📊 DAILY SUMMARY • %s\n", agg.Date)
	writeReportSection(&b, "📱 TOTAL", agg.Totals())
	writeReportSection(&b, "🤖 ANDROID", agg.Android)
	writeReportSection(&b, "🍎 iOS", agg.IOS)
	b.WriteString("╚═══════════════════════════\n\n")
	fmt.Fprintf(&b, "Generated: %s WIB", jakartaTimestamp(generatedAt))

	return b.String()
}

func writeReportSection(b *strings.Builder, title string, c PlatformCounters) {
	b.WriteString("╠═══════════════════════════\n")
	fmt.Fprintf(b, "║ %s\n", title)
	b.WriteString("╟───────────────────────────\n")
	fmt.Fprintf(b, "║ 🎉 New Purchases    : %d\n", c.InitialPurchases)
	fmt.Fprintf(b, "║ ♻️ Renewals         : %d\n", c.Renewals)
	fmt.Fprintf(b, "║ ❌ Cancellations    : %d\n", c.Cancellations)
	fmt.Fprintf(b, "║ 🔁 Product Changes  : %d\n", c.ProductChanges)
	fmt.Fprintf(b, "║ 💰 Revenue         : Rp%s\n", formatThousands(c.TotalRevenue))
}
