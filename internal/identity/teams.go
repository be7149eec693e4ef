package identity

// Team code tables. Matching is exact alias lookup only; a code absent from
// these tables stays a lowercase literal and pairs only against the identical
// literal on the other venue.

// aliasMap folds venue-specific team abbreviations onto one canonical code.
var aliasMap = map[string]string{
	"gcan": "gcu",
	"nmx":  "nm",
	"marq": "marq",
	"sju":  "sju",
	"gcu":  "gcu",
	"nm":   "nm",
}

// NormalizeTeamCode lowercases the code and folds known abbreviation variants
// onto their canonical form. Unknown codes are returned as lowercase literals.
func NormalizeTeamCode(code string) string {
	lower := lowerTrim(code)
	if canonical, ok := aliasMap[lower]; ok {
		return canonical
	}
	return lower
}

// searchTerms maps a canonical team code to the city/nickname strings that
// identify the team inside market titles and outcome labels.
var searchTerms = map[string][]string{
	// NFL
	"buf": {"buffalo", "bills"},
	"ne":  {"new england", "patriots"},
	"nyj": {"new york jets", "jets", "ny jets"},
	"nyg": {"new york giants", "giants", "ny giants"},
	"bal": {"baltimore", "ravens"},
	"cin": {"cincinnati", "bengals"},
	"pit": {"pittsburgh", "steelers"},
	"jax": {"jacksonville", "jaguars"},
	"ten": {"tennessee", "titans"},
	"kc":  {"kansas city", "chiefs"},
	"lv":  {"las vegas", "raiders"},
	"sea": {"seattle", "seahawks"},
	"sfs": {"san francisco", "49ers", "niners"},
	"ari": {"arizona", "cardinals"},
	"car": {"carolina", "panthers"},
	"gb":  {"green bay", "packers"},
	"no":  {"new orleans", "saints"},
	"tb":  {"tampa bay", "buccaneers"},

	// Codes shared across leagues carry both sports' names.
	"atl": {"atlanta", "falcons", "hawks"},
	"bos": {"boston", "celtics"},
	"bkn": {"brooklyn", "nets"},
	"cha": {"charlotte", "hornets"},
	"chi": {"chicago", "bears", "bulls"},
	"cle": {"cleveland", "browns", "cavaliers", "cavs"},
	"dal": {"dallas", "cowboys", "mavericks", "mavs"},
	"den": {"denver", "broncos", "nuggets"},
	"det": {"detroit", "lions", "pistons"},
	"gsw": {"golden state", "warriors"},
	"hou": {"houston", "texans", "rockets"},
	"ind": {"indianapolis", "colts", "indiana", "pacers"},
	"lac": {"los angeles clippers", "clippers", "la clippers", "los angeles chargers", "chargers", "la chargers"},
	"lal": {"los angeles lakers", "lakers", "la lakers"},
	"lar": {"los angeles rams", "rams", "la rams"},
	"mem": {"memphis", "grizzlies"},
	"mia": {"miami", "dolphins", "heat"},
	"mil": {"milwaukee", "bucks"},
	"min": {"minnesota", "vikings", "timberwolves", "wolves"},
	"nop": {"new orleans", "pelicans"},
	"nyk": {"new york knicks", "knicks", "ny knicks"},
	"okc": {"oklahoma city", "thunder"},
	"orl": {"orlando", "magic"},
	"phi": {"philadelphia", "eagles", "76ers", "sixers"},
	"phx": {"phoenix", "suns"},
	"por": {"portland", "trail blazers"},
	"sac": {"sacramento", "kings"},
	"sas": {"san antonio", "spurs"},
	"tor": {"toronto", "raptors"},
	"uta": {"utah", "jazz"},
	"was": {"washington", "commanders", "wizards"},

	// CBB
	"gcu":   {"grand canyon", "antelopes"},
	"nm":    {"new mexico", "lobos"},
	"marq":  {"marquette", "golden eagles"},
	"sju":   {"st johns", "st. john's", "red storm"},
	"duke":  {"duke", "blue devils"},
	"unc":   {"north carolina", "tar heels"},
	"ku":    {"kansas", "jayhawks"},
	"uk":    {"kentucky", "wildcats"},
	"nova":  {"villanova", "wildcats"},
	"prov":  {"providence", "friars"},
	"gonz":  {"gonzaga", "bulldogs", "zags"},
	"uconn": {"uconn", "connecticut", "huskies"},
	"ucla":  {"ucla", "bruins"},
	"pur":   {"purdue", "boilermakers"},
	"tenn":  {"tennessee", "volunteers", "vols"},
	"txam":  {"texas a&m", "aggies", "texas am"},
	"pepp":  {"pepperdine", "waves"},
	"port":  {"portland", "pilots"},
}

// SearchTerms returns the strings that identify a team code inside free text.
// Unknown codes search for their own literal.
func SearchTerms(code string) []string {
	lower := lowerTrim(code)
	if terms, ok := searchTerms[lower]; ok {
		return terms
	}
	return []string{lower}
}

// TeamMentioned reports whether any search term for code appears in text.
// The text must already be lowercase.
func TeamMentioned(text, code string) bool {
	for _, term := range SearchTerms(code) {
		if containsTerm(text, term) {
			return true
		}
	}
	return false
}
