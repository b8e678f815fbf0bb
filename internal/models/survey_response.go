package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NoneOfTheAbove is the purchase type sent by respondents who own none of
// the listed vehicles. Their submissions carry no vehicle details.
const NoneOfTheAbove = "None of the above"

// SubmissionRequest is the body of POST /api/submit.
type SubmissionRequest struct {
	Name         string `json:"name"`
	Age          string `json:"age"`
	Gender       string `json:"gender"`
	City         string `json:"city"`
	OtherCity    string `json:"otherCity,omitempty"`
	PurchaseType string `json:"purchaseType"`

	Brand            string `json:"brand,omitempty"`
	CustomBrand      string `json:"customBrand,omitempty"`
	VehicleModel     string `json:"vehicleModel,omitempty"`
	CustomModel      string `json:"customModel,omitempty"`
	PurchaseMonth    string `json:"purchaseMonth,omitempty"`
	PurchaseYear     string `json:"purchaseYear,omitempty"`
	VehicleCondition string `json:"vehicleCondition,omitempty"`

	RecommendLikelihood  *int     `json:"recommendLikelihood,omitempty" validate:"omitempty,min=0,max=10"`
	RecommendReason      []string `json:"recommendReason,omitempty"`
	CustomReason         string   `json:"customReason,omitempty"`
	SatisfactionLevel    *int     `json:"satisfactionLevel,omitempty" validate:"omitempty,min=0,max=5"`
	RepurchaseLikelihood *int     `json:"repurchaseLikelihood,omitempty" validate:"omitempty,min=0,max=10"`

	AlternativeBrand            string `json:"alternativeBrand,omitempty"`
	CustomAlternativeBrand      string `json:"customAlternativeBrand,omitempty"`
	AlternativeVehicle          string `json:"alternativeVehicle,omitempty"`
	CustomAlternativeModelOther string `json:"customAlternativeModelOther,omitempty"`

	Email         string `json:"email,omitempty" validate:"omitempty,survey_email"`
	ContactNumber string `json:"contactNumber,omitempty" validate:"omitempty,phone10"`

	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	RecaptchaToken string     `json:"recaptchaToken,omitempty"`
}

// OwnsVehicle reports whether the vehicle block applies to the request.
func (r *SubmissionRequest) OwnsVehicle() bool {
	return strings.TrimSpace(r.PurchaseType) != NoneOfTheAbove
}

// SurveyResponse is a stored submission.
type SurveyResponse struct {
	ID           string `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string `json:"name" gorm:"not null;size:255"`
	Age          string `json:"age" gorm:"not null;size:32"`
	Gender       string `json:"gender" gorm:"not null;size:64"`
	City         string `json:"city" gorm:"not null;size:128;index"`
	OtherCity    string `json:"otherCity,omitempty" gorm:"size:128"`
	PurchaseType string `json:"purchaseType" gorm:"not null;size:64;index"`

	Brand            string `json:"brand,omitempty" gorm:"size:128;index"`
	VehicleModel     string `json:"vehicleModel,omitempty" gorm:"size:128"`
	PurchaseMonth    string `json:"purchaseMonth,omitempty" gorm:"size:16"`
	PurchaseYear     string `json:"purchaseYear,omitempty" gorm:"size:4"`
	VehicleCondition string `json:"vehicleCondition,omitempty" gorm:"size:32"`

	RecommendLikelihood  *int                        `json:"recommendLikelihood,omitempty"`
	RecommendReason      datatypes.JSONSlice[string] `json:"recommendReason,omitempty" gorm:"type:jsonb"`
	SatisfactionLevel    *int                        `json:"satisfactionLevel,omitempty"`
	RepurchaseLikelihood *int                        `json:"repurchaseLikelihood,omitempty"`

	AlternativeBrand   string `json:"alternativeBrand,omitempty" gorm:"size:128"`
	AlternativeVehicle string `json:"alternativeVehicle,omitempty" gorm:"size:128"`

	Email         string `json:"email,omitempty" gorm:"size:255"`
	ContactNumber string `json:"contactNumber,omitempty" gorm:"size:16"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SurveyResponse) TableName() string { return "survey_responses" }

// BeforeCreate assigns a UUID when the caller did not.
func (r *SurveyResponse) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// NewSurveyResponse maps a validated request onto a storable record. Free
// text is trimmed and "Other" choices fall back to their companion fields.
func NewSurveyResponse(req *SubmissionRequest) *SurveyResponse {
	resp := &SurveyResponse{
		Name:         strings.TrimSpace(req.Name),
		Age:          req.Age,
		Gender:       req.Gender,
		City:         req.City,
		OtherCity:    strings.TrimSpace(req.OtherCity),
		PurchaseType: strings.TrimSpace(req.PurchaseType),

		Email:         strings.TrimSpace(req.Email),
		ContactNumber: strings.TrimSpace(req.ContactNumber),
	}
	if req.CreatedAt != nil {
		resp.CreatedAt = *req.CreatedAt
	}
	if !req.OwnsVehicle() {
		return resp
	}

	resp.Brand = companion(req.Brand, "Other", req.CustomBrand)
	resp.VehicleModel = companion(req.VehicleModel, "Other", req.CustomModel)
	resp.PurchaseMonth = req.PurchaseMonth
	resp.PurchaseYear = req.PurchaseYear
	resp.VehicleCondition = req.VehicleCondition
	resp.RecommendLikelihood = req.RecommendLikelihood
	resp.SatisfactionLevel = req.SatisfactionLevel
	resp.RepurchaseLikelihood = req.RepurchaseLikelihood
	resp.AlternativeBrand = companion(req.AlternativeBrand, "Other", req.CustomAlternativeBrand)
	resp.AlternativeVehicle = companion(req.AlternativeVehicle, "Other (please specify)", req.CustomAlternativeModelOther)

	reasons := make([]string, 0, len(req.RecommendReason))
	for _, r := range req.RecommendReason {
		reasons = append(reasons, companion(r, "Other", req.CustomReason))
	}
	resp.RecommendReason = reasons

	return resp
}

func companion(value, other, custom string) string {
	if value == other {
		if c := strings.TrimSpace(custom); c != "" {
			return c
		}
	}
	return strings.TrimSpace(value)
}
