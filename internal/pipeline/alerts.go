package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// FormatAlert renders an opportunity into a notification subject and body.
func FormatAlert(opp domain.Opportunity) (subject, body string) {
	switch o := opp.(type) {
	case domain.Arbitrage:
		return formatArbitrage(o)
	case domain.ValueEdge:
		return formatValueEdge(o)
	default:
		key := opp.Key()
		return fmt.Sprintf("Opportunity: %s", key.MarketName),
			fmt.Sprintf("%s vs %s, odds %.2f / %.2f", key.VenueA, key.VenueB, key.OddsA, key.OddsB)
	}
}

func formatArbitrage(a domain.Arbitrage) (string, string) {
	subject := fmt.Sprintf("Arbitrage %.2f%%: %s", a.ProfitPct, a.MarketName)

	var b strings.Builder
	fmt.Fprintf(&b, "Market: %s\n", a.MarketName)
	if a.EventName != "" && a.EventName != a.MarketName {
		fmt.Fprintf(&b, "Event: %s\n", a.EventName)
	}
	if a.Sport != "" {
		fmt.Fprintf(&b, "Sport: %s\n", a.Sport)
	}
	fmt.Fprintf(&b, "Back %s on %s @ %.2f\n", a.Team, domain.VenuePolymarket, a.OddsA)
	fmt.Fprintf(&b, "Back %s on %s @ %.2f\n", a.OppositeTeam, domain.VenueCloudbet, a.OddsB)
	fmt.Fprintf(&b, "Combined probability: %.4f\n", a.TotalProb)
	fmt.Fprintf(&b, "Profit: %.2f%%\n", a.ProfitPct)
	if a.Stakes != nil {
		fmt.Fprintf(&b, "Stakes: %.2f / %.2f (capital %.2f, guaranteed %.2f)\n",
			a.Stakes.StakeA, a.Stakes.StakeB, a.Stakes.TotalCapital, a.Stakes.GuaranteedProfit)
	}
	if a.StartTime != nil {
		fmt.Fprintf(&b, "Starts: %s\n", a.StartTime.UTC().Format(time.RFC3339))
	}
	return subject, strings.TrimRight(b.String(), "\n")
}

func formatValueEdge(v domain.ValueEdge) (string, string) {
	subject := fmt.Sprintf("Value edge %+.1f%%: %s", v.EdgePct, v.MarketName)

	var b strings.Builder
	fmt.Fprintf(&b, "Market: %s\n", v.MarketName)
	if v.EventName != "" && v.EventName != v.MarketName {
		fmt.Fprintf(&b, "Event: %s\n", v.EventName)
	}
	if v.Sport != "" {
		fmt.Fprintf(&b, "Sport: %s\n", v.Sport)
	}
	fmt.Fprintf(&b, "Team: %s\n", v.Team)
	fmt.Fprintf(&b, "Implied probability: %.4f (%s) vs %.4f (%s)\n",
		v.ProbA, domain.VenuePolymarket, v.ProbB, domain.VenueCloudbet)
	fmt.Fprintf(&b, "Better price on: %s\n", v.BetterVenue)
	if v.Stake > 0 {
		fmt.Fprintf(&b, "Suggested stake: %.2f\n", v.Stake)
	}
	fmt.Fprintf(&b, "No guaranteed profit; this is an expectancy play.\n")
	return subject, strings.TrimRight(b.String(), "\n")
}
