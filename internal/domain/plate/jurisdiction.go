package plate

const UnknownJurisdiction = "Unknown"

// jurisdictions maps issuing codes to state names. AB is kept as Abuja to
// match the registry data issued under it.
var jurisdictions = map[string]string{
	"AB": "Abuja",
	"AD": "Adamawa",
	"AK": "Akwa Ibom",
	"AN": "Anambra",
	"BA": "Bauchi",
	"BE": "Benue",
	"BO": "Borno",
	"BY": "Bayelsa",
	"CR": "Cross River",
	"DE": "Delta",
	"EB": "Ebonyi",
	"ED": "Edo",
	"EK": "Ekiti",
	"EN": "Enugu",
	"FC": "Federal",
	"FG": "Federal",
	"GO": "Gombe",
	"IM": "Imo",
	"JI": "Jigawa",
	"KB": "Kebbi",
	"KD": "Kaduna",
	"KN": "Kano",
	"KO": "Kogi",
	"KT": "Katsina",
	"KW": "Kwara",
	"LA": "Lagos",
	"NA": "Nasarawa",
	"NI": "Niger",
	"OG": "Ogun",
	"ON": "Ondo",
	"OS": "Osun",
	"OY": "Oyo",
	"PL": "Plateau",
	"RI": "Rivers",
	"SO": "Sokoto",
	"TA": "Taraba",
	"YO": "Yobe",
	"ZA": "Zamfara",
}

// JurisdictionName resolves a 2 or 3 letter code. Three letter codes that are
// not listed fall back to their two letter state prefix.
func JurisdictionName(code string) string {
	if name, ok := jurisdictions[code]; ok {
		return name
	}
	if len(code) == 3 {
		if name, ok := jurisdictions[code[:2]]; ok {
			return name
		}
	}
	return UnknownJurisdiction
}
