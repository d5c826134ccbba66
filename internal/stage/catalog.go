package stage

// IndianStates lists the states and union territories accepted as an
// address state.
var IndianStates = []string{
	"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh", "Goa", "Gujarat", "Haryana",
	"Himachal Pradesh", "Jharkhand", "Karnataka", "Kerala", "Madhya Pradesh", "Maharashtra", "Manipur",
	"Meghalaya", "Mizoram", "Nagaland", "Odisha", "Punjab", "Rajasthan", "Sikkim", "Tamil Nadu", "Telangana",
	"Tripura", "Uttar Pradesh", "Uttarakhand", "West Bengal",
	"Andaman and Nicobar Islands", "Chandigarh", "Dadra and Nagar Haveli and Daman and Diu", "Delhi",
	"Jammu and Kashmir", "Ladakh", "Lakshadweep", "Puducherry",
}

var (
	Genders         = []string{"male", "female", "other"}
	MaritalStatuses = []string{"single", "married"}
	OccupationTypes = []string{"business", "profession", "self-employed", "salaried"}
	OtherOccupation = "Others"
	DefaultCountry  = "India"
	Occupations     = []string{
		"Salaried (Private Sector)",
		"Salaried (Government / PSU)",
		"Self-employed / Professional",
		"Business Owner",
		"Student",
		"Retired",
		"Homemaker",
		"Agriculturist / Farmer",
		OtherOccupation,
	}
)

// Catalog bundles the fixed choices the KYC forms offer.
type Catalog struct {
	States          []string `json:"states"`
	Genders         []string `json:"genders"`
	MaritalStatuses []string `json:"maritalStatuses"`
	OccupationTypes []string `json:"occupationTypes"`
	Occupations     []string `json:"occupations"`
}

func KYCCatalog() Catalog {
	return Catalog{
		States:          IndianStates,
		Genders:         Genders,
		MaritalStatuses: MaritalStatuses,
		OccupationTypes: OccupationTypes,
		Occupations:     Occupations,
	}
}
