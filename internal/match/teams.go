package match

import (
	"regexp"
	"strings"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// The extraction battery is ordered. The first pattern that yields two
// non-empty names wins; a single extracted name marks a futures or prop
// market, which the event matcher excludes.
var (
	reVersus      = regexp.MustCompile(`(?i)([A-Za-z\s]+?)\s+v(?:s|\.)?\.?\s+([A-Za-z\s]+?)(?:\s*[-:(]|\s*$)`)
	reHyphen      = regexp.MustCompile(`(?i)([A-Za-z\s]+?)\s+-\s+([A-Za-z\s]+?)(?:\s*\(|$)`)
	reBeat        = regexp.MustCompile(`(?i)will\s+(?:the\s+)?([A-Za-z\s]+?)\s+beat\s+(?:the\s+)?([A-Za-z\s]+?)(?:\s+on|\s+in|\s+at|\?|$)`)
	reDefeat      = regexp.MustCompile(`(?i)will\s+(?:the\s+)?([A-Za-z\s]+?)\s+(?:win\s+against|defeat)\s+(?:the\s+)?([A-Za-z\s]+?)(?:\s+on|\s+in|\s+at|\?|$)`)
	reFutures     = regexp.MustCompile(`(?i)will\s+(?:the\s+)?([A-Za-z\s]+?)\s+win\s+([A-Za-z\s]+?)(?:\s+\d{4}|\?|$)`)
	reAbbrevPair  = regexp.MustCompile(`([A-Z]{2,4}\s+[A-Za-z\s]+?)\s+v\.?\s+([A-Z]{2,4}\s+[A-Za-z\s]+?)(?:\s|$)`)
	reSimpleVs    = regexp.MustCompile(`^([A-Za-z\s]+?)\s+v\.?\s+([A-Za-z\s]+?)(?:\s|$)`)
	reAbbrevName  = regexp.MustCompile(`([A-Z]{2,4})\s+([A-Za-z\s]+?)(?:\s+\d+-\d+)?(?:\s|$)`)
	reNameRecord  = regexp.MustCompile(`([A-Za-z\s]+?)\s+\d+-\d+`)
	reTrailingCut = regexp.MustCompile(`(?i)\s+(on|at|in|the|match|winner|game)\b.*$`)
	reColonCut    = regexp.MustCompile(`\s*:.*$`)
	reLeadingThe  = regexp.MustCompile(`(?i)^(will the|the|can)\s+`)
)

// ExtractTeams pulls competitor names out of a market or event title.
// Handles "Lakers vs Warriors", "Baltimore Ravens - Pittsburgh Steelers",
// "Will the Lakers beat the Warriors", abbreviated codes like
// "ATL Falcons v NO Saints", and "NYK Knicks 23-12" record formats.
// Futures titles like "Will the Ravens win the Super Bowl?" yield a single
// name with Team2 empty.
func ExtractTeams(title string) domain.TeamPair {
	if m := reVersus.FindStringSubmatch(title); m != nil {
		t1 := reTrailingCut.ReplaceAllString(strings.TrimSpace(m[1]), "")
		t2 := reTrailingCut.ReplaceAllString(strings.TrimSpace(m[2]), "")
		t2 = reColonCut.ReplaceAllString(t2, "")
		return domain.TeamPair{Team1: strings.TrimSpace(t1), Team2: strings.TrimSpace(t2)}
	}
	if m := reHyphen.FindStringSubmatch(title); m != nil {
		return domain.TeamPair{
			Team1: stripLeading(strings.TrimSpace(m[1])),
			Team2: stripLeading(strings.TrimSpace(m[2])),
		}
	}
	if m := reBeat.FindStringSubmatch(title); m != nil {
		return domain.TeamPair{Team1: strings.TrimSpace(m[1]), Team2: strings.TrimSpace(m[2])}
	}
	if m := reDefeat.FindStringSubmatch(title); m != nil {
		return domain.TeamPair{Team1: strings.TrimSpace(m[1]), Team2: strings.TrimSpace(m[2])}
	}
	if m := reFutures.FindStringSubmatch(title); m != nil {
		return domain.TeamPair{Team1: stripLeading(strings.TrimSpace(m[1]))}
	}
	if m := reAbbrevPair.FindStringSubmatch(title); m != nil {
		return domain.TeamPair{Team1: strings.TrimSpace(m[1]), Team2: strings.TrimSpace(m[2])}
	}
	if m := reSimpleVs.FindStringSubmatch(title); m != nil {
		return domain.TeamPair{
			Team1: stripLeading(strings.TrimSpace(m[1])),
			Team2: stripLeading(strings.TrimSpace(m[2])),
		}
	}
	if ms := reAbbrevName.FindAllStringSubmatch(title, -1); len(ms) >= 2 {
		return domain.TeamPair{
			Team1: strings.TrimSpace(ms[0][2]),
			Team2: strings.TrimSpace(ms[1][2]),
		}
	}
	if ms := reNameRecord.FindAllStringSubmatch(title, -1); len(ms) >= 2 {
		return domain.TeamPair{
			Team1: stripLeading(strings.TrimSpace(ms[0][1])),
			Team2: stripLeading(strings.TrimSpace(ms[1][1])),
		}
	}
	return domain.TeamPair{}
}

func stripLeading(name string) string {
	return strings.TrimSpace(reLeadingThe.ReplaceAllString(name, ""))
}

var cityTokens = []string{
	"los angeles", "la ", "new york", "ny ", "san francisco", "sf ",
	"golden state", "gs ", "manchester", "liverpool", "real", "fc ",
	"cf ", "ac ", "atlanta", "boston", "chicago", "dallas", "denver",
	"detroit", "houston", "indiana", "miami", "milwaukee", "minnesota",
	"new orleans", "oklahoma", "orlando", "philadelphia", "phoenix",
	"portland", "sacramento", "san antonio", "toronto", "utah",
	"washington", "brooklyn", "charlotte", "cleveland",
}

var franchiseSuffixes = []string{
	" fc", " cf", " united", " city", " town", " albion", " athletic",
	" county", " & hove albion", " rangers", " hotspur",
	" de futbol", " balompie", " borussia", " munich",
}

// NormalizeName lower-cases a competitor name, strips sportsbook feed
// prefixes (s-, h-, a-), city and locale tokens, franchise suffixes and
// separators, then collapses whitespace. Idempotent: normalizing an
// already-normalized name returns it unchanged.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	name = strings.ToLower(strings.TrimSpace(name))

	name = strings.ReplaceAll(name, "s-", "")
	name = strings.ReplaceAll(name, "h-", "")
	name = strings.ReplaceAll(name, "a-", "")

	for _, city := range cityTokens {
		name = strings.TrimSpace(strings.ReplaceAll(name, city, ""))
	}
	for _, suffix := range franchiseSuffixes {
		name = strings.TrimSpace(strings.ReplaceAll(name, suffix, ""))
	}

	name = strings.NewReplacer("-", " ", "_", " ", ",", "", ".", "").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}
