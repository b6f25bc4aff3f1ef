package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"unit-watcher/internal/diff"
	"unit-watcher/internal/models"
)

const (
	separator    = "────────────────────────"
	subSeparator = "· · · · · · · · · · · · · · · · · · · · · · · · ·"
)

// Composer renders engine output into notification text. It receives
// fully-resolved, presentation-ordered data and never re-derives
// aggregation or stability.
type Composer struct {
	listingBaseURL string
}

// NewComposer creates a composer. listingBaseURL is the marketplace
// site root used for unit deep links.
func NewComposer(listingBaseURL string) *Composer {
	return &Composer{listingBaseURL: strings.TrimRight(listingBaseURL, "/")}
}

// UnitURL builds the deep link for one unit and date range.
func (c *Composer) UnitURL(propertyID, unitID int64, checkIn, checkOut time.Time) string {
	return fmt.Sprintf("%s/en/property/%d/units/%d/detail?check_in=%s&check_out=%s",
		c.listingBaseURL, propertyID, unitID,
		checkIn.Format("2006-01-02"), checkOut.Format("2006-01-02"))
}

// ComposeAlert renders the change report: the three primary sections
// first (new, removed, price changes, each by unit ID), then the three
// suggestion sections (ordered by smallest compromise first).
func (c *Composer) ComposeAlert(report *diff.Report, primaryCheckIn, primaryCheckOut time.Time) string {
	var b strings.Builder

	b.WriteString("🗼 Unit Watcher Alerts\n")
	b.WriteString("Here are the latest updates on the properties for your filters:\n\n")

	if !report.Primary.IsEmpty() {
		b.WriteString(subSeparator + "\n")
	}

	newUnits := report.Primary.SortedNew()
	if len(newUnits) > 0 {
		b.WriteString("✨ New units have been detected in your time range ✨\n\n")
		for _, u := range newUnits {
			c.writeUnitLine(&b, "▪", u, primaryCheckIn, primaryCheckOut)
		}
	}

	removedUnits := report.Primary.SortedRemoved()
	if len(removedUnits) > 0 {
		b.WriteString("❌ Removed units have been detected in your time range:\n\n")
		for _, u := range removedUnits {
			c.writeUnitLine(&b, "▪", u, primaryCheckIn, primaryCheckOut)
		}
	}

	priceChanges := report.Primary.SortedPriceChanged()
	if len(priceChanges) > 0 {
		b.WriteString("💰 Price changes have been detected in your time range:\n\n")
		for _, pc := range priceChanges {
			u := pc.Latest
			arrow := priceArrow(pc.OldPrice, pc.NewPrice)
			fmt.Fprintf(&b, "%s [Unit %d] %s | %s | %s floor | %s m² | 💴 %s → 💴 %s\n",
				arrow, u.UnitID, u.PropertyNameEN, u.Layout,
				Ordinal(models.InferFloor(u.UnitNumber)), formatSize(u.SizeSquareMeters),
				formatYen(pc.OldPrice), formatYen(pc.NewPrice))
			fmt.Fprintf(&b, "  ➡️ %s\n\n", c.UnitURL(u.PropertyID, u.UnitID, primaryCheckIn, primaryCheckOut))
		}
	}

	if report.Primary.IsEmpty() {
		b.WriteString("✅ No changes in your main search\n\n")
	}

	hasSuggestions := len(report.NewSuggestions) > 0 ||
		len(report.RemovedSuggestions) > 0 ||
		len(report.SuggestionPriceChanges) > 0
	if hasSuggestions {
		b.WriteString(subSeparator + "\n")
	}

	if len(report.NewSuggestions) > 0 {
		b.WriteString("💡 Have you also considered these properties?\n")
		b.WriteString("They are available if you start your lease slightly earlier!\n")
		b.WriteString("ℹ️ You can pay for the extra days at the start of the lease, but physically move in on your preferred date.\n\n")
		for _, s := range report.NewSuggestions {
			c.writeSuggestionLine(&b, s, primaryCheckIn, primaryCheckOut)
		}
	}

	if len(report.RemovedSuggestions) > 0 {
		b.WriteString("❌ Removed properties detected from earlier move-in options:\n\n")
		for _, s := range report.RemovedSuggestions {
			c.writeUnitLine(&b, "▪", s, s.CheckInDate, primaryCheckOut)
		}
	}

	if len(report.SuggestionPriceChanges) > 0 {
		b.WriteString("💰 Price changes detected for earlier move in options:\n\n")
		for _, pair := range report.SuggestionPriceChanges {
			l := pair.Latest
			arrow := priceArrow(pair.Previous.PriceJPY, l.PriceJPY)
			fmt.Fprintf(&b, "%s [Unit %d] %s | %s | %s floor | %s m²\n 💴 %s → %s\n",
				arrow, l.UnitID, l.PropertyNameEN, l.Layout,
				Ordinal(models.InferFloor(l.UnitNumber)), formatSize(l.SizeSquareMeters),
				formatYen(pair.Previous.PriceJPY), formatYen(l.PriceJPY))
			fmt.Fprintf(&b, "  ➡️ %s\n\n", c.UnitURL(l.PropertyID, l.UnitID, l.CheckInDate, primaryCheckOut))
		}
	}

	b.WriteString(subSeparator + "\n")
	fmt.Fprintf(&b, "Snapshot taken at: %s\n\n", report.LatestAt.Format("2006-01-02 15:04:05"))
	b.WriteString("Generated by your friendly unit availability bot 🤖\n")
	b.WriteString("Have a great day! 🌞\n")

	return b.String()
}

// ComposeRoundup renders a full listing of the latest snapshot: primary
// units by price, then suggestions by smallest compromise.
func (c *Composer) ComposeRoundup(roundup *diff.Roundup, primaryCheckIn, primaryCheckOut time.Time) string {
	var b strings.Builder

	b.WriteString("🗼 Your Weekly Roundup\n\n")
	b.WriteString("A summary of availability for your preferred and alternative dates, could one of these be your future home?\n\n")
	b.WriteString("☕ Grab a drink and take a moment to browse this week's available units!\n\n")
	fmt.Fprintf(&b, "Query dates: %s → %s\n\n",
		primaryCheckIn.Format("2006-01-02"), primaryCheckOut.Format("2006-01-02"))
	b.WriteString(subSeparator + "\n")

	b.WriteString("🏠 Available units in your primary time range:\n\n")
	if len(roundup.PrimaryUnits) == 0 {
		b.WriteString("  (No units available for the primary dates in this snapshot.)\n\n")
	} else {
		for _, u := range roundup.PrimaryUnits {
			c.writeUnitLine(&b, "▪", u, primaryCheckIn, primaryCheckOut)
		}
	}

	b.WriteString(subSeparator + "\n")
	b.WriteString("💡 Have you also considered these properties?\n")
	b.WriteString("They are also available if you start your lease slightly earlier!\n")
	b.WriteString("ℹ️ You can pay for the extra days at the start of the lease, but physically move in on your preferred date.\n\n")
	if len(roundup.Suggestions) == 0 {
		b.WriteString("  (No secondary suggestions in this snapshot.)\n\n")
	} else {
		for _, s := range roundup.Suggestions {
			c.writeSuggestionLine(&b, s, primaryCheckIn, primaryCheckOut)
		}
	}

	b.WriteString(subSeparator + "\n")
	fmt.Fprintf(&b, "Snapshot taken at: %s\n\n", roundup.SnapshotAt.Format("2006-01-02 15:04:05"))
	b.WriteString("Generated by your friendly unit availability bot 🤖\n")
	b.WriteString("Have a great day! 🌞\n")

	return b.String()
}

// ComposeWeeklyRoundup is the roundup plus a section for buildings that
// opened within the last week, cheapest first.
func (c *Composer) ComposeWeeklyRoundup(roundup *diff.Roundup, primaryCheckIn, primaryCheckOut time.Time, newProperties []models.PropertySnapshot) string {
	message := c.ComposeRoundup(roundup, primaryCheckIn, primaryCheckOut)
	if len(newProperties) == 0 {
		return message
	}

	var b strings.Builder
	b.WriteString(subSeparator + "\n")
	b.WriteString("🎉 New buildings opened this week:\n")
	b.WriteString("While there may not be availability for your dates yet, they're worth keeping an eye on as there could be soon!\n\n")
	for _, p := range sortByMinPrice(newProperties) {
		fmt.Fprintf(&b, "🏢 [Property %d] %s (%s)\n💴 From %s\n",
			p.PropertyID, p.PropertyNameEN, p.PropertyNameJA, formatYen(p.MinimumListPrice))
		fmt.Fprintf(&b, "  🏠 Rooms Available: %d\n\n", p.AvailableRoomCount)
		b.WriteString(separator + "\n")
	}

	return message + b.String()
}

// ComposePropertyAlert renders newly detected buildings, by property ID.
func (c *Composer) ComposePropertyAlert(newProperties []models.PropertySnapshot) string {
	var b strings.Builder
	b.WriteString("🗼 New Properties Detected!\n\n")
	b.WriteString(subSeparator + "\n")

	for _, p := range sortByPropertyID(newProperties) {
		fmt.Fprintf(&b, "▪ %s (%s)\n  🏠 Rooms Available: %d\n  💴 From %s\n\n",
			p.PropertyNameEN, p.PropertyNameJA, p.AvailableRoomCount, formatYen(p.MinimumListPrice))
	}

	return b.String()
}

func (c *Composer) writeUnitLine(b *strings.Builder, marker string, u diff.Row, checkIn, checkOut time.Time) {
	fmt.Fprintf(b, "%s [Unit %d] %s | %s | %s floor | %s m² | %s | 💴 %s\n",
		marker, u.UnitID, u.PropertyNameEN, u.Layout,
		Ordinal(models.InferFloor(u.UnitNumber)), formatSize(u.SizeSquareMeters),
		u.CityEN, formatYen(u.PriceJPY))
	fmt.Fprintf(b, "  ➡️ %s\n\n", c.UnitURL(u.PropertyID, u.UnitID, checkIn, checkOut))
}

func (c *Composer) writeSuggestionLine(b *strings.Builder, s diff.Row, primaryCheckIn, primaryCheckOut time.Time) {
	fmt.Fprintf(b, "▪ [Unit %d] %s | %s | %s floor | %s m² | %s | 💴 %s\n",
		s.UnitID, s.PropertyNameEN, s.Layout,
		Ordinal(models.InferFloor(s.UnitNumber)), formatSize(s.SizeSquareMeters),
		s.CityEN, formatYen(s.PriceJPY))
	delta := diff.DaysEarlier(primaryCheckIn, s.CheckInDate)
	fmt.Fprintf(b, "  📆 %d days earlier (%s)\n", delta, s.CheckInDate.Format("2006-01-02"))
	fmt.Fprintf(b, "  ➡️ %s\n\n", c.UnitURL(s.PropertyID, s.UnitID, s.CheckInDate, primaryCheckOut))
}

// Ordinal renders a floor number as "1st", "2nd", "10th". Unknown
// floors render as "?".
func Ordinal(n *int) string {
	if n == nil {
		return "?"
	}
	v := *n
	suffix := "th"
	if v%100 < 11 || v%100 > 13 {
		switch v % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", v, suffix)
}

func priceArrow(oldPrice, newPrice *int) string {
	if oldPrice != nil && newPrice != nil && *newPrice > *oldPrice {
		return "⬆️"
	}
	return "⬇️"
}

// formatYen renders a price with thousands separators, or "¥?" when the
// listing carried no price.
func formatYen(price *int) string {
	if price == nil {
		return "¥?"
	}
	v := *price
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	digits := fmt.Sprintf("%d", v)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	return sign + "¥" + strings.Join(groups, ",")
}

func formatSize(size *float64) string {
	if size == nil {
		return "?"
	}
	return fmt.Sprintf("%g", *size)
}

func sortByMinPrice(props []models.PropertySnapshot) []models.PropertySnapshot {
	out := append([]models.PropertySnapshot(nil), props...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].MinimumListPrice, out[j].MinimumListPrice
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})
	return out
}

func sortByPropertyID(props []models.PropertySnapshot) []models.PropertySnapshot {
	out := append([]models.PropertySnapshot(nil), props...)
	sort.Slice(out, func(i, j int) bool { return out[i].PropertyID < out[j].PropertyID })
	return out
}
