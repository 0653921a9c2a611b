package clean

// Record is one applicant entry with typed fields extracted from the raw
// free text. All pointer fields are nil when the source text never matched
// the corresponding pattern; zero values are never used as sentinels.
type Record struct {
	ProgramName  string   `json:"Program Name"`
	University   string   `json:"University"`
	Comments     *string  `json:"Comments"`
	DateAdded    string   `json:"date_added"`
	URL          string   `json:"URL"`
	Status       *string  `json:"Applicant Status"`
	DecisionDate *string  `json:"Decision Date"`
	Term         *string  `json:"Program Start Date"`
	Citizenship  *string  `json:"Citizenship"`
	GRE          *int     `json:"GRE Score"`
	GREVerbal    *int     `json:"GRE V Score"`
	GREAW        *float64 `json:"GRE AW"`
	Degree       *string  `json:"Degree Program"`
	GPA          *float64 `json:"GPA"`

	LLMProgram    string `json:"llm-generated-program,omitempty"`
	LLMUniversity string `json:"llm-generated-university,omitempty"`
}
