package stage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/validator"
)

const dateLayout = "2006-01-02"

type PersonalInput struct {
	Name          string `json:"name"`
	FatherName    string `json:"fatherName"`
	DOB           string `json:"dob"`
	PAN           string `json:"pan"`
	Aadhaar       string `json:"aadhar"`
	Gender        string `json:"gender"`
	MaritalStatus string `json:"maritalStatus"`
}

type AddressInput struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
	State   string `json:"state"`
	Country string `json:"country"`
	Mobile  string `json:"mobile"`
	Email   string `json:"email"`
}

type ProfessionalInput struct {
	OccupationType  string `json:"occupationType"`
	Occupation      string `json:"occupation"`
	OtherOccupation string `json:"otherOccupation"`
}

// KYCForms holds what each KYC sub-step starts out showing: committed values
// first, then whatever signup already knows.
type KYCForms struct {
	SubStep      int               `json:"subStep"`
	Steps        []flow.SubStep    `json:"steps"`
	Personal     PersonalInput     `json:"personal"`
	Address      AddressInput      `json:"address"`
	Professional ProfessionalInput `json:"professional"`
	Catalog      Catalog           `json:"catalog"`
}

func (svc *Service) KYCForms(sess *Session) (KYCForms, error) {
	s, err := at(sess, models.StepKYC)
	if err != nil {
		return KYCForms{}, err
	}

	kyc := s.UserData.KYC

	return KYCForms{
		SubStep: s.KYCSubStep,
		Steps:   flow.SubSteps(s),
		Personal: PersonalInput{
			Name:          firstNonEmpty(kyc.Name, s.UserData.Name),
			FatherName:    kyc.FatherName,
			DOB:           kyc.DOB,
			PAN:           kyc.PAN,
			Aadhaar:       kyc.Aadhaar,
			Gender:        kyc.Gender,
			MaritalStatus: kyc.MaritalStatus,
		},
		Address: AddressInput{
			Address: kyc.Address,
			City:    kyc.City,
			Pincode: kyc.Pincode,
			State:   kyc.State,
			Country: firstNonEmpty(kyc.Country, DefaultCountry),
			Mobile:  firstNonEmpty(kyc.Mobile, s.UserData.Mobile),
			Email:   firstNonEmpty(kyc.Email, s.UserData.Email),
		},
		Professional: ProfessionalInput{
			OccupationType:  kyc.OccupationType,
			Occupation:      kyc.Occupation,
			OtherOccupation: kyc.OtherOccupation,
		},
		Catalog: KYCCatalog(),
	}, nil
}

// SyncName pushes the name as per PAN to the display name while it is being
// typed, ahead of the personal details commit.
func (svc *Service) SyncName(ctx context.Context, sess *Session, name string) error {
	s, err := at(sess, models.StepKYC)
	if err != nil {
		return err
	}
	if err := onSubStep(s, models.KYCPersonal); err != nil {
		return err
	}

	sess.Flow.SyncName(ctx, name)
	return nil
}

func (svc *Service) SavePersonal(ctx context.Context, sess *Session, input PersonalInput) (models.OnboardingState, error) {
	s, err := at(sess, models.StepKYC)
	if err != nil {
		return s, err
	}
	if err := onSubStep(s, models.KYCPersonal); err != nil {
		return s, err
	}

	input.Name = strings.TrimSpace(input.Name)
	input.FatherName = strings.TrimSpace(input.FatherName)
	input.PAN = normalizePAN(input.PAN)
	input.Aadhaar = validator.DigitsOnly(input.Aadhaar)

	v := validator.Validator{}
	v.CheckField(validator.NotBlank(input.Name), "name", "Name required")
	v.CheckField(validator.NotBlank(input.FatherName), "fatherName", "Father's name required")
	v.CheckField(validator.NotBlank(input.DOB), "dob", "Date of birth required")
	v.CheckField(validDOB(input.DOB), "dob", "Enter a valid date of birth")
	v.CheckField(validator.NotBlank(input.PAN), "pan", "PAN required")
	v.CheckField(validator.IsPAN(input.PAN), "pan", "Invalid PAN (e.g., ABCDE1234F)")
	v.CheckField(validator.NotBlank(input.Aadhaar), "aadhar", "Aadhaar required")
	v.CheckField(validator.IsAadhaar(input.Aadhaar), "aadhar", "Aadhaar must be 12 digits")
	v.CheckField(validator.In(input.Gender, Genders...), "gender", "Select gender")
	v.CheckField(validator.In(input.MaritalStatus, MaritalStatuses...), "maritalStatus", "Select marital status")
	if err := flow.Validate(&v); err != nil {
		return s, err
	}

	// the committed name wins over any sync still waiting on its timer
	sess.Flow.CancelNameSync()

	return sess.Flow.PersistAt(ctx, models.StepKYC, func(s models.OnboardingState) models.OnboardingState {
		s.UserData.Name = input.Name
		s.UserData.KYC.Name = input.Name
		s.UserData.KYC.FatherName = input.FatherName
		s.UserData.KYC.DOB = input.DOB
		s.UserData.KYC.PAN = input.PAN
		s.UserData.KYC.Aadhaar = input.Aadhaar
		s.UserData.KYC.Gender = input.Gender
		s.UserData.KYC.MaritalStatus = input.MaritalStatus
		s.KYCSubStepStatus[models.KYCPersonal] = true
		s.KYCSubStep = models.KYCAddress
		return s
	})
}

func (svc *Service) SaveAddress(ctx context.Context, sess *Session, input AddressInput) (models.OnboardingState, error) {
	s, err := at(sess, models.StepKYC)
	if err != nil {
		return s, err
	}
	if err := onSubStep(s, models.KYCAddress); err != nil {
		return s, err
	}

	input.Address = strings.TrimSpace(input.Address)
	input.City = strings.TrimSpace(input.City)
	input.Pincode = strings.TrimSpace(input.Pincode)
	input.Mobile = strings.TrimSpace(input.Mobile)
	input.Email = strings.TrimSpace(input.Email)
	input.Country = firstNonEmpty(strings.TrimSpace(input.Country), DefaultCountry)

	v := validator.Validator{}
	v.CheckField(validator.NotBlank(input.Address), "address", "Address required")
	v.CheckField(validator.NotBlank(input.City), "city", "City required")
	v.CheckField(validator.IsPincode(input.Pincode), "pincode", "6-digit PIN required")
	v.CheckField(validator.In(input.State, IndianStates...), "state", "Select state")
	v.CheckField(validator.IsPhone(input.Mobile), "mobile", "Valid 10-digit mobile required")
	v.CheckField(validator.IsEmail(input.Email), "email", "Valid email required")
	if err := flow.Validate(&v); err != nil {
		return s, err
	}

	return sess.Flow.PersistAt(ctx, models.StepKYC, func(s models.OnboardingState) models.OnboardingState {
		s.UserData.KYC.Address = input.Address
		s.UserData.KYC.City = input.City
		s.UserData.KYC.Pincode = input.Pincode
		s.UserData.KYC.State = input.State
		s.UserData.KYC.Country = input.Country
		s.UserData.KYC.Mobile = input.Mobile
		s.UserData.KYC.Email = input.Email
		s.KYCSubStepStatus[models.KYCAddress] = true
		s.KYCSubStep = models.KYCProfessional
		return s
	})
}

func (svc *Service) SaveProfessional(ctx context.Context, sess *Session, input ProfessionalInput) (models.OnboardingState, error) {
	s, err := at(sess, models.StepKYC)
	if err != nil {
		return s, err
	}
	if err := onSubStep(s, models.KYCProfessional); err != nil {
		return s, err
	}

	input.OtherOccupation = strings.TrimSpace(input.OtherOccupation)
	if input.Occupation != OtherOccupation {
		input.OtherOccupation = ""
	}

	v := validator.Validator{}
	v.CheckField(validator.In(input.OccupationType, OccupationTypes...), "occupationType", "Select occupation type")
	v.CheckField(validator.In(input.Occupation, Occupations...), "occupation", "Select occupation")
	if input.Occupation == OtherOccupation {
		v.CheckField(validator.NotBlank(input.OtherOccupation), "otherOccupation", "Specify other occupation")
	}
	if err := flow.Validate(&v); err != nil {
		return s, err
	}

	return sess.Flow.PersistAt(ctx, models.StepKYC, func(s models.OnboardingState) models.OnboardingState {
		s.UserData.KYC.OccupationType = input.OccupationType
		s.UserData.KYC.Occupation = input.Occupation
		s.UserData.KYC.OtherOccupation = input.OtherOccupation
		s.KYCSubStepStatus[models.KYCProfessional] = true
		s.KYCSubStep = models.KYCReview
		return s
	})
}

// Review returns the accumulated KYC details for the read-only summary.
func (svc *Service) Review(sess *Session) (models.KYCDetails, error) {
	s, err := at(sess, models.StepKYC)
	if err != nil {
		return models.KYCDetails{}, err
	}
	if err := onSubStep(s, models.KYCReview); err != nil {
		return models.KYCDetails{}, err
	}

	return s.UserData.KYC, nil
}

// ConfirmReview marks the review done and moves the flow on to risk
// profiling.
func (svc *Service) ConfirmReview(ctx context.Context, sess *Session) (models.OnboardingState, error) {
	s, err := at(sess, models.StepKYC)
	if err != nil {
		return s, err
	}
	if err := onSubStep(s, models.KYCReview); err != nil {
		return s, err
	}
	if err := flow.CanEnterSubStep(s, models.KYCReview); err != nil {
		return s, err
	}

	if _, err := sess.Flow.PersistAt(ctx, models.StepKYC, func(s models.OnboardingState) models.OnboardingState {
		s.KYCSubStepStatus[models.KYCReview] = true
		return s
	}); err != nil {
		return s, err
	}

	if err := sess.Flow.Advance(ctx, models.StepRisk); err != nil {
		return sess.Flow.State(), err
	}

	return sess.Flow.State(), nil
}

// GoToSubStep moves within KYC. Back is free; forward needs every earlier
// sub-step completed.
func (svc *Service) GoToSubStep(ctx context.Context, sess *Session, n int) (models.OnboardingState, error) {
	return sess.Flow.EnterSubStep(ctx, n)
}

func onSubStep(s models.OnboardingState, n int) error {
	if s.KYCSubStep != n {
		return &flow.TransitionError{
			From:   models.StepKYC,
			To:     models.StepKYC,
			Reason: fmt.Sprintf("KYC step %d is active, not step %d", s.KYCSubStep, n),
		}
	}
	return nil
}

// normalizePAN uppercases raw and drops separators.
func normalizePAN(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validDOB(value string) bool {
	if value == "" {
		return true
	}

	dob, err := time.Parse(dateLayout, value)
	if err != nil {
		return false
	}
	return !dob.After(time.Now())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
