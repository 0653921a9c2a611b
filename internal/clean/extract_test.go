package clean

import (
	"testing"

	"github.com/ewalsh/admitdb/internal/gradcafe"
)

func strVal(t *testing.T, p *string) string {
	t.Helper()
	if p == nil {
		t.Fatal("expected non-nil string")
	}
	return *p
}

func TestExtractDecision_AllStatuses(t *testing.T) {
	tests := []struct {
		text       string
		wantStatus string
		wantDate   string
	}{
		{"Accepted on 12 Feb 2026", "Accepted", "12 Feb 2026"},
		{"Rejected on 3 Mar", "Rejected", "3 Mar"},
		{"Wait listed on 1 Apr 2025", "Wait listed", "1 Apr 2025"},
		{"Waitlisted on 1 Apr 2025", "Waitlisted", "1 Apr 2025"},
		{"Interview on 28 Jan 2026", "Interview", "28 Jan 2026"},
		{"Withdrawn on 15 Dec 2025", "Withdrawn", "15 Dec 2025"},
	}
	for _, tt := range tests {
		status, date := ExtractDecision(tt.text)
		if strVal(t, status) != tt.wantStatus || strVal(t, date) != tt.wantDate {
			t.Errorf("ExtractDecision(%q) = %v, %v; want %q, %q",
				tt.text, *status, *date, tt.wantStatus, tt.wantDate)
		}
	}
}

func TestExtractDecision_PriorityOrder(t *testing.T) {
	// Both statuses are present; Accepted is checked first and wins.
	text := "Rejected on 1 Jan 2026 then Accepted on 12 Feb 2026"
	status, date := ExtractDecision(text)
	if strVal(t, status) != "Accepted" {
		t.Errorf("status = %q, want Accepted", *status)
	}
	if strVal(t, date) != "12 Feb 2026" {
		t.Errorf("date = %q, want 12 Feb 2026", *date)
	}
}

func TestExtractDecision_NoMatch(t *testing.T) {
	status, date := ExtractDecision("no decision mentioned here")
	if status != nil || date != nil {
		t.Errorf("ExtractDecision = %v, %v; want nil, nil", status, date)
	}
}

func TestExtractComments(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *string
	}{
		{"plain", "Fall 2026 International Great school overall", ptr("Great school overall")},
		{"gpa stripped", "Fall 2026 International GPA 3.9 loved the visit", ptr("loved the visit")},
		{"scores and decision stripped", "Fall 2026 International GPA 3.9 GRE 325 GRE V 160 GRE AW 5.0 Accepted on 12 Feb 2026 Great experience", ptr("Great experience")},
		{"only gpa", "Fall 2026 American GPA 3.7", nil},
		{"no marker", "just some text", nil},
		{"empty after marker", "Spring 2025 American ", nil},
	}
	for _, tt := range tests {
		got := ExtractComments(tt.text)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("%s: ExtractComments = %q, want nil", tt.name, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("%s: ExtractComments = %v, want %q", tt.name, got, *tt.want)
		}
	}
}

func TestExtractCitizenship_Capitalizes(t *testing.T) {
	got := ExtractCitizenship("fall 2026 iNtErNaTiOnAl student")
	if strVal(t, got) != "International" {
		t.Errorf("citizenship = %q, want International", *got)
	}
	if ExtractCitizenship("domestic applicant") != nil {
		t.Error("citizenship should be nil without a whole-word match")
	}
}

func TestExtractGPA(t *testing.T) {
	gpa, err := ExtractGPA("strong profile GPA 3.85 and more")
	if err != nil {
		t.Fatalf("ExtractGPA error: %v", err)
	}
	if gpa == nil || *gpa != 3.85 {
		t.Errorf("gpa = %v, want 3.85", gpa)
	}

	gpa, err = ExtractGPA("no gpa here")
	if err != nil || gpa != nil {
		t.Errorf("absent pattern should yield nil, nil; got %v, %v", gpa, err)
	}
}

func TestExtractGRE_DoesNotCaptureVerbalFirst(t *testing.T) {
	gre, err := ExtractGRE("GRE 325 GRE V 160 GRE AW 5.0")
	if err != nil {
		t.Fatal(err)
	}
	if gre == nil || *gre != 325 {
		t.Errorf("gre = %v, want 325", gre)
	}

	greV, err := ExtractGREVerbal("GRE 325 GRE V 160")
	if err != nil {
		t.Fatal(err)
	}
	if greV == nil || *greV != 160 {
		t.Errorf("gre verbal = %v, want 160", greV)
	}

	greAW, err := ExtractGREAW("GRE AW 4.5")
	if err != nil {
		t.Fatal(err)
	}
	if greAW == nil || *greAW != 4.5 {
		t.Errorf("gre aw = %v, want 4.5", greAW)
	}
}

func TestExtractDegree(t *testing.T) {
	if got := ExtractDegree("applying for a PhD in History"); strVal(t, got) != "PhD" {
		t.Errorf("degree = %q, want PhD", *got)
	}
	// Case preserved exactly as written.
	if got := ExtractDegree("masters program"); strVal(t, got) != "masters" {
		t.Errorf("degree = %q, want masters", *got)
	}
	if ExtractDegree("BS in Biology") != nil {
		t.Error("degree should be nil for unlisted degree types")
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct{ in, want string }{
		{"February 12, 2026", "2026-02-12"},
		{"12 Feb 2026", "2026-02-12"},
		{"2026-02-12", "2026-02-12"},
		{"sometime soon", "sometime soon"},
	}
	for _, tt := range tests {
		if got := NormalizeDate(tt.in); got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFromRaw_FullEntry(t *testing.T) {
	raw := gradcafe.RawRecord{
		University: "Johns Hopkins University",
		Program:    "Computer Science",
		DateAdded:  "February 12, 2026",
		Decision:   "Accepted on 12 Feb 2026",
		FullText:   "Johns Hopkins University PhD Computer Science, Fall 2026 International GPA 3.9 GRE 325 GRE V 160 GRE AW 5.0 Accepted on 12 Feb 2026 Great experience",
		Page:       1,
		URL:        "https://example.com/survey/?page=1",
	}

	rec, err := FromRaw(raw)
	if err != nil {
		t.Fatalf("FromRaw error: %v", err)
	}

	if strVal(t, rec.Status) != "Accepted" {
		t.Errorf("status = %q", *rec.Status)
	}
	if strVal(t, rec.DecisionDate) != "12 Feb 2026" {
		t.Errorf("decision date = %q", *rec.DecisionDate)
	}
	if strVal(t, rec.Term) != "Fall 2026" {
		t.Errorf("term = %q", *rec.Term)
	}
	if strVal(t, rec.Citizenship) != "International" {
		t.Errorf("citizenship = %q", *rec.Citizenship)
	}
	if rec.GPA == nil || *rec.GPA != 3.9 {
		t.Errorf("gpa = %v, want 3.9", rec.GPA)
	}
	if rec.GRE == nil || *rec.GRE != 325 {
		t.Errorf("gre = %v, want 325", rec.GRE)
	}
	if rec.GREVerbal == nil || *rec.GREVerbal != 160 {
		t.Errorf("gre verbal = %v, want 160", rec.GREVerbal)
	}
	if rec.GREAW == nil || *rec.GREAW != 5.0 {
		t.Errorf("gre aw = %v, want 5.0", rec.GREAW)
	}
	if strVal(t, rec.Degree) != "PhD" {
		t.Errorf("degree = %q", *rec.Degree)
	}
	if strVal(t, rec.Comments) != "Great experience" {
		t.Errorf("comments = %q, want Great experience", *rec.Comments)
	}
	if rec.DateAdded != "2026-02-12" {
		t.Errorf("date added = %q, want 2026-02-12", rec.DateAdded)
	}
}

func ptr[T any](v T) *T { return &v }
