package match

import (
	"regexp"
	"strings"
)

// SportUnknown is returned when no keyword bucket claims a title.
const SportUnknown = "unknown"

// sportKeywords maps a sport bucket to the league and franchise keywords
// that identify it. Coverage is inherently incomplete; an unknown bucket
// never blocks a match.
var sportKeywords = map[string][]string{
	"american-football": {
		"nfl", "super bowl", "ravens", "steelers", "patriots", "cowboys", "chiefs",
		"eagles", "bills", "bengals", "browns", "broncos", "texans", "colts",
		"jaguars", "titans", "jets", "dolphins", "chargers", "raiders", "packers",
		"bears", "lions", "vikings", "saints", "falcons", "panthers", "buccaneers",
		"49ers", "seahawks", "rams", "cardinals", "commanders",
	},
	"basketball": {
		"nba", "lakers", "warriors", "celtics", "heat", "bucks", "nets", "knicks",
		"sixers", "raptors", "bulls", "cavaliers", "pistons", "pacers", "hawks",
		"hornets", "magic", "wizards", "nuggets", "timberwolves", "thunder",
		"trail blazers", "jazz", "suns", "clippers", "mavericks", "rockets",
		"grizzlies", "pelicans", "spurs",
	},
	"ice-hockey": {
		"nhl", "stanley cup", "bruins", "maple leafs", "canadiens", "senators",
		"lightning", "red wings", "sabres", "islanders", "devils", "flyers",
		"penguins", "capitals", "blue jackets", "hurricanes", "predators",
		"blackhawks", "blues", "stars", "wild", "avalanche", "flames", "oilers",
		"canucks", "kraken", "ducks", "sharks", "golden knights", "coyotes",
	},
	"baseball": {
		"mlb", "world series", "yankees", "red sox", "blue jays", "orioles",
		"rays", "white sox", "guardians", "tigers", "royals", "twins", "astros",
		"angels", "athletics", "mariners", "braves", "marlins", "mets",
		"phillies", "nationals", "cubs", "reds", "brewers", "pirates",
		"diamondbacks", "rockies", "dodgers", "padres",
	},
	"soccer": {
		"premier league", "epl", "fa cup", "champions league", "europa",
		"la liga", "bundesliga", "serie a", "ligue 1", "mls", "world cup",
		"euro 20", "copa america",
		"manchester", "liverpool", "chelsea", "arsenal", "tottenham",
		"leicester", "everton", "west ham", "newcastle", "aston villa",
		"brighton", "wolves",
		"barcelona", "real madrid", "atletico", "sevilla", "valencia",
		"villarreal", "bayern", "dortmund", "leipzig", "leverkusen",
		"frankfurt", "juventus", "inter", "milan", "napoli", "roma", "lazio",
		"atalanta", "psg", "monaco", "lyon", "marseille", "lille",
		"ajax", "benfica", "porto", "sporting", "celtic",
	},
}

// generalSportsKeywords flags sports-related titles regardless of bucket.
var generalSportsKeywords = []string{
	"nba", "nfl", "mlb", "nhl", "mls", "premier league", "la liga", "serie a",
	"soccer", "futbol", "bundesliga", "champions league", "world cup",
	"super bowl", "finals", "playoff", "championship", "match", "game",
	"score", "win", "lose", "season", "mvp", "golden boot", "touchdown",
	"goal", "home run", "vs", "versus", "against",
	"moneyline", "spread", "over/under", "total", "handicap",
	"winner", "champion", "division", "conference",
	"boxing", "ufc", "mma", "fight", "bout", "knockout",
	"tennis", "grand slam", "wimbledon", "us open", "french open",
	"australian open",
	"formula 1", "f1", "racing", "olympics", "gold medal",
	"golf", "masters", "pga",
}

// sportOrder fixes the bucket lookup order so classification is
// deterministic when a title mentions keywords from several buckets.
var sportOrder = []string{"american-football", "basketball", "ice-hockey", "baseball", "soccer"}

var reTeamVsTeam = regexp.MustCompile(`\b\w+\s+vs\.?\s+\w+\b`)

// DetectSport classifies a title into a sport bucket by keyword lookup.
func DetectSport(title string) string {
	lower := strings.ToLower(title)
	for _, sport := range sportOrder {
		for _, kw := range sportKeywords[sport] {
			if strings.Contains(lower, kw) {
				return sport
			}
		}
	}
	return SportUnknown
}

// IsSportsMarket reports whether a market title looks sports-related.
func IsSportsMarket(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range generalSportsKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, keywords := range sportKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return reTeamVsTeam.MatchString(lower)
}

// SportsCompatible reports whether two classified buckets can belong to
// the same game. Unknown on either side never blocks; known buckets match
// when equal or when one contains the other after separator folding.
func SportsCompatible(a, b string) bool {
	if a == SportUnknown || b == SportUnknown || a == "" || b == "" {
		return true
	}
	fold := func(s string) string {
		return strings.ToLower(strings.NewReplacer("-", " ", "_", " ").Replace(s))
	}
	fa, fb := fold(a), fold(b)
	return fa == fb || strings.Contains(fa, fb) || strings.Contains(fb, fa)
}
