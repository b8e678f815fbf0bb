package survey

import (
	"math"

	"github.com/mintsurvey/survey-service/internal/catalog"
)

// requiredFields lists the fields that count towards completion for the
// current shape of the record.
func requiredFields(rec *AnswerRecord) []Field {
	fields := []Field{FieldName, FieldAge, FieldGender, FieldCity, FieldPurchaseTypes}
	if rec.City == catalog.Other {
		fields = append(fields, FieldOtherCity)
	}
	// The vehicle block counts until the sentinel is chosen, so an empty
	// purchase-type set does not inflate the percentage.
	if rec.NoneSelected() {
		return fields
	}

	fields = append(fields,
		FieldBrand,
		FieldVehicleModel,
		FieldPurchaseMonth,
		FieldPurchaseYear,
		FieldVehicleCondition,
		FieldRecommendLikelihood,
		FieldRecommendReasons,
		FieldSatisfactionLevel,
		FieldRepurchaseLikelihood,
		FieldAlternativeBrand,
		FieldAlternativeModel,
	)
	if rec.Brand == catalog.Other {
		fields = append(fields, FieldCustomBrand)
	}
	if rec.VehicleModel == catalog.Other {
		fields = append(fields, FieldCustomModel)
	}
	for _, r := range rec.RecommendReasons {
		if r == catalog.Other {
			fields = append(fields, FieldCustomReason)
			break
		}
	}
	if rec.AlternativeBrand == catalog.Other {
		fields = append(fields, FieldCustomAlternativeBrand)
	}
	if rec.AlternativeModel == catalog.OtherSpecify {
		fields = append(fields, FieldCustomAlternativeModel)
	}
	return fields
}

// Progress is the rounded percentage of required fields that are filled,
// capped at 100.
func Progress(rec *AnswerRecord) int {
	fields := requiredFields(rec)
	if len(fields) == 0 {
		return 0
	}

	filled := 0
	for _, f := range fields {
		if isFilled(rec, f) {
			filled++
		}
	}

	pct := int(math.Round(float64(filled) * 100 / float64(len(fields))))
	return min(pct, 100)
}

func isFilled(rec *AnswerRecord, f Field) bool {
	switch f {
	case FieldPurchaseTypes:
		return len(rec.PurchaseTypes) > 0
	case FieldRecommendReasons:
		return len(rec.RecommendReasons) > 0
	}
	v, _ := rec.Value(f)
	return v != "" && v != "N/A"
}
