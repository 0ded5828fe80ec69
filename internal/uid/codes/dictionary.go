package codes

// OtherSport is the reserved code for identifiers without a sport.
const OtherSport = "OT"

var categories = map[string]string{
	"student":        "a",
	"coach":          "c",
	"institute":      "i",
	"club":           "b",
	"event incharge": "e",
	"event":          "EVT",
	"certificate":    "CERT",
	"order":          "ORDR",
}

// regions maps normalised state and union territory names to their codes.
var regions = map[string]string{
	"andhra pradesh":    "AP",
	"arunachal pradesh": "AR",
	"assam":             "AS",
	"bihar":             "BR",
	"chhattisgarh":      "CG",
	"goa":               "GA",
	"gujarat":           "GJ",
	"haryana":           "HR",
	"himachal pradesh":  "HP",
	"jharkhand":         "JH",
	"karnataka":         "KA",
	"kerala":            "KL",
	"madhya pradesh":    "MP",
	"maharashtra":       "MH",
	"manipur":           "MN",
	"meghalaya":         "ML",
	"mizoram":           "MZ",
	"nagaland":          "NL",
	"odisha":            "OD",
	"punjab":            "PB",
	"rajasthan":         "RJ",
	"sikkim":            "SK",
	"tamil nadu":        "TN",
	"telangana":         "TS",
	"tripura":           "TR",
	"uttar pradesh":     "UP",
	"uttarakhand":       "UK",
	"west bengal":       "WB",

	"andaman and nicobar islands":              "AN",
	"chandigarh":                               "CH",
	"dadra and nagar haveli and daman and diu": "DD",
	"delhi":             "DL",
	"jammu and kashmir": "JK",
	"ladakh":            "LA",
	"lakshadweep":       "LD",
	"puducherry":        "PY",

	// Legacy and common alternate spellings.
	"orissa":       "OD",
	"pondicherry":  "PY",
	"new delhi":    "DL",
	"nct of delhi": "DL",
	"uttaranchal":  "UK",
}

var sports = map[string]string{
	"cricket":       "CR",
	"football":      "FB",
	"hockey":        "HK",
	"basketball":    "BB",
	"volleyball":    "VB",
	"badminton":     "BD",
	"tennis":        "TN",
	"table tennis":  "TT",
	"athletics":     "AT",
	"swimming":      "SW",
	"kabaddi":       "KB",
	"kho kho":       "KK",
	"chess":         "CH",
	"wrestling":     "WR",
	"boxing":        "BX",
	"archery":       "AR",
	"shooting":      "SH",
	"weightlifting": "WL",
	"gymnastics":    "GY",
	"cycling":       "CY",
	"judo":          "JU",
	"karate":        "KR",
	"taekwondo":     "TK",
	"handball":      "HB",
	"yoga":          "YG",
	"skating":       "SK",
	"squash":        "SQ",
	"golf":          "GF",
	"rugby":         "RG",
	"throwball":     "TB",
	"netball":       "NB",
	"fencing":       "FN",
	"other":         OtherSport,
}

var (
	regionCodes = invert(regions)
	sportCodes  = invert(sports)
)

func invert(m map[string]string) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for _, code := range m {
		out[code] = struct{}{}
	}
	return out
}

// Regions returns a copy of the region dictionary.
func Regions() map[string]string {
	return copyMap(regions)
}

// Sports returns a copy of the sport dictionary.
func Sports() map[string]string {
	return copyMap(sports)
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
