package gateway

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mintsurvey/survey-service/internal/catalog"
	"github.com/mintsurvey/survey-service/internal/models"
	"github.com/mintsurvey/survey-service/internal/survey"
)

// BuildPayload turns a finished record into the body of POST /api/submit.
// Respondents on the "None of the above" path send demographics only,
// without contact details.
func BuildPayload(rec survey.AnswerRecord, now time.Time, token string) models.SubmissionRequest {
	createdAt := now.UTC()
	payload := models.SubmissionRequest{
		Name:           strings.TrimSpace(rec.Name),
		Age:            rec.Age,
		Gender:         rec.Gender,
		City:           rec.City,
		OtherCity:      strings.TrimSpace(rec.OtherCity),
		PurchaseType:   catalog.DisplayType(rec.HighestPurchaseType()),
		CreatedAt:      &createdAt,
		RecaptchaToken: token,
	}
	if !rec.OwnsVehicle() {
		return payload
	}

	payload.Brand = substitute(rec.Brand, catalog.Other, rec.CustomBrand)
	payload.VehicleModel = substitute(rec.VehicleModel, catalog.Other, rec.CustomModel)
	payload.PurchaseMonth = rec.PurchaseMonth
	payload.PurchaseYear = rec.PurchaseYear
	payload.VehicleCondition = rec.VehicleCondition
	payload.RecommendLikelihood = rating(rec.RecommendLikelihood)
	payload.SatisfactionLevel = rating(rec.SatisfactionLevel)
	payload.RepurchaseLikelihood = rating(rec.RepurchaseLikelihood)
	payload.RecommendReason = reasons(rec.RecommendReasons, rec.CustomReason)
	payload.AlternativeBrand = substitute(rec.AlternativeBrand, catalog.Other, rec.CustomAlternativeBrand)
	payload.AlternativeVehicle = substitute(rec.AlternativeModel, catalog.OtherSpecify, rec.CustomAlternativeModel)
	payload.Email = strings.TrimSpace(rec.Email)
	payload.ContactNumber = strings.TrimSpace(rec.ContactNumber)

	return payload
}

// substitute replaces an "Other" marker with its free text. The marker
// itself is sent when the free text is blank.
func substitute(value, marker, custom string) string {
	if value != marker {
		return value
	}
	if c := strings.TrimSpace(custom); c != "" {
		return c
	}
	return catalog.Other
}

func rating(v string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		n = 0
	}
	return &n
}

// reasons moves the "Other" reason to the end, replaced by its free text.
func reasons(selected []string, custom string) []string {
	out := make([]string, 0, len(selected))
	for _, r := range selected {
		if r != catalog.Other {
			out = append(out, r)
		}
	}
	if slices.Contains(selected, catalog.Other) {
		out = append(out, substitute(catalog.Other, catalog.Other, custom))
	}
	return out
}
