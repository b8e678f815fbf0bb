package validator

import (
	"slices"
	"strings"

	"github.com/mintsurvey/survey-service/internal/models"
)

// SubmissionValidator checks which required fields a submission is missing.
// What is required depends on the purchase type and on "Other" choices.
type SubmissionValidator struct{}

func NewSubmissionValidator() *SubmissionValidator {
	return &SubmissionValidator{}
}

// MissingFields returns the JSON names of required fields that are absent
// or blank, in a stable order.
func (v *SubmissionValidator) MissingFields(req *models.SubmissionRequest) []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	checkInt := func(name string, value *int) {
		if value == nil {
			missing = append(missing, name)
		}
	}

	check("name", req.Name)
	check("age", req.Age)
	check("gender", req.Gender)
	check("city", req.City)
	check("purchaseType", req.PurchaseType)
	if req.City == "Other" {
		check("otherCity", req.OtherCity)
	}

	if strings.TrimSpace(req.PurchaseType) == "" || !req.OwnsVehicle() {
		return missing
	}

	check("brand", req.Brand)
	check("vehicleModel", req.VehicleModel)
	check("purchaseMonth", req.PurchaseMonth)
	check("purchaseYear", req.PurchaseYear)
	check("vehicleCondition", req.VehicleCondition)
	checkInt("recommendLikelihood", req.RecommendLikelihood)
	checkInt("satisfactionLevel", req.SatisfactionLevel)
	checkInt("repurchaseLikelihood", req.RepurchaseLikelihood)
	check("alternativeBrand", req.AlternativeBrand)
	check("alternativeVehicle", req.AlternativeVehicle)
	if len(req.RecommendReason) == 0 {
		missing = append(missing, "recommendReason")
	}

	if req.Brand == "Other" {
		check("customBrand", req.CustomBrand)
	}
	if req.VehicleModel == "Other" {
		check("customModel", req.CustomModel)
	}
	if slices.Contains(req.RecommendReason, "Other") {
		check("customReason", req.CustomReason)
	}
	if req.AlternativeBrand == "Other" {
		check("customAlternativeBrand", req.CustomAlternativeBrand)
	}
	if req.AlternativeVehicle == "Other (please specify)" {
		check("customAlternativeModelOther", req.CustomAlternativeModelOther)
	}

	return missing
}
