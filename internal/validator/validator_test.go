package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintsurvey/survey-service/internal/models"
)

func intPtr(v int) *int { return &v }

func ownerRequest() *models.SubmissionRequest {
	return &models.SubmissionRequest{
		Name:                 "Asha",
		Age:                  "25-34",
		Gender:               "Female",
		City:                 "Pune",
		PurchaseType:         "1. New Car",
		Brand:                "Tata",
		VehicleModel:         "Nexon",
		PurchaseMonth:        "March",
		PurchaseYear:         "2023",
		VehicleCondition:     "New",
		RecommendLikelihood:  intPtr(9),
		RecommendReason:      []string{"Mileage"},
		SatisfactionLevel:    intPtr(4),
		RepurchaseLikelihood: intPtr(8),
		AlternativeBrand:     "Hyundai",
		AlternativeVehicle:   "Creta",
	}
}

func TestMissingFields(t *testing.T) {
	v := NewSubmissionValidator()

	tests := []struct {
		name   string
		mutate func(r *models.SubmissionRequest)
		want   []string
	}{
		{
			name:   "complete owner",
			mutate: func(r *models.SubmissionRequest) {},
		},
		{
			name: "non-owner skips vehicle block",
			mutate: func(r *models.SubmissionRequest) {
				*r = models.SubmissionRequest{
					Name:         "Ravi",
					Age:          "18-24",
					Gender:       "Male",
					City:         "Delhi",
					PurchaseType: models.NoneOfTheAbove,
				}
			},
		},
		{
			name: "blank demographics",
			mutate: func(r *models.SubmissionRequest) {
				r.Name = "  "
				r.City = ""
			},
			want: []string{"name", "city"},
		},
		{
			name:   "other city needs detail",
			mutate: func(r *models.SubmissionRequest) { r.City = "Other" },
			want:   []string{"otherCity"},
		},
		{
			name: "missing ratings and reasons",
			mutate: func(r *models.SubmissionRequest) {
				r.SatisfactionLevel = nil
				r.RecommendReason = nil
			},
			want: []string{"satisfactionLevel", "recommendReason"},
		},
		{
			name: "other choices need custom text",
			mutate: func(r *models.SubmissionRequest) {
				r.Brand = "Other"
				r.VehicleModel = "Other"
				r.RecommendReason = []string{"Other"}
				r.AlternativeBrand = "Other"
				r.AlternativeVehicle = "Other (please specify)"
			},
			want: []string{"customBrand", "customModel", "customReason", "customAlternativeBrand", "customAlternativeModelOther"},
		},
		{
			name:   "no purchase type",
			mutate: func(r *models.SubmissionRequest) { r.PurchaseType = "" },
			want:   []string{"purchaseType"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ownerRequest()
			tt.mutate(req)
			assert.Equal(t, tt.want, v.MissingFields(req))
		})
	}
}

func TestValidateStructContactFields(t *testing.T) {
	v := New()

	req := ownerRequest()
	require.NoError(t, v.ValidateStruct(req))

	req.Email = "asha@example.com"
	req.ContactNumber = "9876543210"
	require.NoError(t, v.ValidateStruct(req))

	req.Email = "asha@example"
	errs := ToValidationErrors(v.ValidateStruct(req))
	require.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].Field)

	req.Email = ""
	req.ContactNumber = "98765"
	errs = ToValidationErrors(v.ValidateStruct(req))
	require.Len(t, errs, 1)
	assert.Equal(t, "contactNumber", errs[0].Field)
}

func TestValidateStructRatingRange(t *testing.T) {
	req := ownerRequest()
	req.SatisfactionLevel = intPtr(6)

	errs := ToValidationErrors(New().ValidateStruct(req))
	require.Len(t, errs, 1)
	assert.Equal(t, "satisfactionLevel", errs[0].Field)
}
