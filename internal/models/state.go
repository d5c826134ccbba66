package models

// Step names a top-level stage of the onboarding flow.
type Step string

const (
	StepAuth       Step = "auth"
	StepKYC        Step = "kyc"
	StepRisk       Step = "risk"
	StepAssessment Step = "assessment"
	StepDocs       Step = "docs"
	StepPlan       Step = "plan"
	StepSign       Step = "sign"
	StepPayment    Step = "payment"
)

// Steps lists every stage in flow order.
var Steps = []Step{StepAuth, StepKYC, StepRisk, StepAssessment, StepDocs, StepPlan, StepSign, StepPayment}

// Index returns the position of the step in the flow, or -1 for unknown values.
func (s Step) Index() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

func (s Step) Valid() bool {
	return s.Index() >= 0
}

// Next returns the stage that follows s. The payment stage is terminal.
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i < 0 || i == len(Steps)-1 {
		return "", false
	}
	return Steps[i+1], true
}

// KYC sub-steps, in order.
const (
	KYCPersonal     = 1
	KYCAddress      = 2
	KYCProfessional = 3
	KYCReview       = 4
)

type RiskProfile string

const (
	RiskConservative RiskProfile = "Conservative"
	RiskModerate     RiskProfile = "Moderate"
	RiskAggressive   RiskProfile = "Aggressive"
)

// OnboardingState is the unit of persistence: one snapshot per identity.
type OnboardingState struct {
	CurrentUser      string       `json:"currentUser,omitempty"`
	CurrentStep      Step         `json:"currentStep"`
	KYCSubStep       int          `json:"kycSubStep"`
	KYCSubStepStatus map[int]bool `json:"kycSubStepStatus"`
	EmailVerified    bool         `json:"emailVerified"`
	MobileVerified   bool         `json:"mobileVerified"`
	Flags            Flags        `json:"flags"`
	UserData         UserData     `json:"userData"`
}

// Flags record later-stage completion. Each is set once by its owning stage.
type Flags struct {
	AssessmentAck   bool `json:"assessmentAck"`
	AgreementSigned bool `json:"agreementSigned"`
	PaymentDone     bool `json:"paymentDone"`
}

type UserData struct {
	Name         string                `json:"name"`
	Email        string                `json:"email"`
	Mobile       string                `json:"mobile"`
	Password     string                `json:"password"`
	KYC          KYCDetails            `json:"kyc"`
	DocsStatus   map[string]bool       `json:"docsStatus"`
	Documents    map[string]Document   `json:"documents"`
	RiskAnswers  map[string]RiskAnswer `json:"riskAnswers"`
	RiskScore    int                   `json:"riskScore"`
	RiskProfile  RiskProfile           `json:"riskProfile,omitempty"`
	SelectedPlan *SelectedPlan         `json:"selectedPlan,omitempty"`
}

// KYCDetails accumulates across the KYC sub-steps; each sub-step owns a
// disjoint group of fields.
type KYCDetails struct {
	// Personal
	Name          string `json:"name,omitempty"`
	FatherName    string `json:"fatherName,omitempty"`
	DOB           string `json:"dob,omitempty"`
	PAN           string `json:"pan,omitempty"`
	Aadhaar       string `json:"aadhar,omitempty"`
	Gender        string `json:"gender,omitempty"`
	MaritalStatus string `json:"maritalStatus,omitempty"`

	// Address & contact
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Pincode string `json:"pincode,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	Mobile  string `json:"mobile,omitempty"`
	Email   string `json:"email,omitempty"`

	// Professional
	OccupationType  string `json:"occupationType,omitempty"`
	Occupation      string `json:"occupation,omitempty"`
	OtherOccupation string `json:"otherOccupation,omitempty"`
}

// Document is an uploaded file. Location is either a data URL holding the
// file itself or a link to the object store it was pushed to.
type Document struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Location    string `json:"location"`
}

type SelectedPlan struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Price   string `json:"price"`
	Details string `json:"details"`
}

// RequiredDocuments are the document slots the docs stage must fill.
var RequiredDocuments = []DocumentSlot{
	{ID: "pan", Title: "PAN Card"},
	{ID: "aadhaar-front", Title: "Aadhaar Card (Front)"},
	{ID: "aadhaar-back", Title: "Aadhaar Card (Back)"},
	{ID: "profile", Title: "Profile Photo"},
}

type DocumentSlot struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// FreshState returns the known-good starting value of an onboarding record.
func FreshState() OnboardingState {
	docs := make(map[string]bool, len(RequiredDocuments))
	for _, slot := range RequiredDocuments {
		docs[slot.ID] = false
	}

	return OnboardingState{
		CurrentStep:      StepAuth,
		KYCSubStep:       KYCPersonal,
		KYCSubStepStatus: map[int]bool{KYCPersonal: false, KYCAddress: false, KYCProfessional: false, KYCReview: false},
		UserData: UserData{
			DocsStatus:  docs,
			Documents:   map[string]Document{},
			RiskAnswers: map[string]RiskAnswer{},
		},
	}
}

// Clone returns a deep copy so a mutator never aliases the previous state.
func (s OnboardingState) Clone() OnboardingState {
	c := s

	if s.KYCSubStepStatus != nil {
		c.KYCSubStepStatus = make(map[int]bool, len(s.KYCSubStepStatus))
		for k, v := range s.KYCSubStepStatus {
			c.KYCSubStepStatus[k] = v
		}
	}

	if s.UserData.DocsStatus != nil {
		c.UserData.DocsStatus = make(map[string]bool, len(s.UserData.DocsStatus))
		for k, v := range s.UserData.DocsStatus {
			c.UserData.DocsStatus[k] = v
		}
	}

	if s.UserData.Documents != nil {
		c.UserData.Documents = make(map[string]Document, len(s.UserData.Documents))
		for k, v := range s.UserData.Documents {
			c.UserData.Documents[k] = v
		}
	}

	if s.UserData.RiskAnswers != nil {
		c.UserData.RiskAnswers = make(map[string]RiskAnswer, len(s.UserData.RiskAnswers))
		for k, v := range s.UserData.RiskAnswers {
			c.UserData.RiskAnswers[k] = v.Clone()
		}
	}

	if s.UserData.SelectedPlan != nil {
		plan := *s.UserData.SelectedPlan
		c.UserData.SelectedPlan = &plan
	}

	return c
}

// EnsureMaps allocates any map a decoded record left nil, so later writes
// into it cannot panic.
func (s *OnboardingState) EnsureMaps() {
	if s.KYCSubStepStatus == nil {
		s.KYCSubStepStatus = map[int]bool{}
	}
	if s.UserData.DocsStatus == nil {
		s.UserData.DocsStatus = map[string]bool{}
	}
	if s.UserData.Documents == nil {
		s.UserData.Documents = map[string]Document{}
	}
	if s.UserData.RiskAnswers == nil {
		s.UserData.RiskAnswers = map[string]RiskAnswer{}
	}
}

// IdentityKeys returns every key the record can be looked up by.
func (s OnboardingState) IdentityKeys() []string {
	var keys []string
	for _, key := range []string{s.CurrentUser, NormalizeIdentity(s.UserData.Email), NormalizeIdentity(s.UserData.Mobile)} {
		if key == "" {
			continue
		}

		seen := false
		for _, k := range keys {
			if k == key {
				seen = true
				break
			}
		}
		if !seen {
			keys = append(keys, key)
		}
	}
	return keys
}

// DocumentsComplete reports whether every required slot holds an upload.
func (s OnboardingState) DocumentsComplete() bool {
	for _, slot := range RequiredDocuments {
		if !s.UserData.DocsStatus[slot.ID] {
			return false
		}
	}
	return true
}

// KYCComplete reports whether all four sub-steps have been committed.
func (s OnboardingState) KYCComplete() bool {
	for i := KYCPersonal; i <= KYCReview; i++ {
		if !s.KYCSubStepStatus[i] {
			return false
		}
	}
	return true
}
