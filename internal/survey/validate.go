package survey

import (
	"regexp"
	"slices"
	"strings"

	"github.com/mintsurvey/survey-service/internal/catalog"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

const (
	msgName                   = "Name is required"
	msgAge                    = "Please select an age group"
	msgGender                 = "Please select a gender"
	msgCity                   = "Please select a city"
	msgOtherCity              = "Please specify your city"
	msgPurchaseTypes          = "Please select at least one purchase type"
	msgBrand                  = "Please select a brand"
	msgCustomBrand            = "Please specify your brand"
	msgVehicleModel           = "Please select a vehicle model"
	msgCustomModel            = "Please specify your model"
	msgPurchaseMonth          = "Please select a purchase month"
	msgPurchaseYear           = "Please select a purchase year"
	msgVehicleCondition       = "Please select vehicle condition"
	msgRecommendLikelihood    = "Please select a recommendation likelihood"
	msgRecommendReasons       = "Please select at least one reason"
	msgCustomReason           = "Please specify your reason"
	msgSatisfactionLevel      = "Please select a satisfaction level"
	msgRepurchaseLikelihood   = "Please select a repurchase likelihood"
	msgAlternativeBrand       = "Please select an alternative brand"
	msgCustomAlternativeBrand = "Please specify your alternative brand"
	msgAlternativeModel       = "Please select an alternative model"
	msgCustomAlternativeModel = "Please specify your model"
	msgEmail                  = "Please enter a valid email address"
	msgContactNumber          = "Please enter a valid 10-digit phone number"
)

// ValidateQuestion checks the fields shown by one question. It returns nil
// when the question is complete.
func ValidateQuestion(id QuestionID, rec *AnswerRecord) FieldErrors {
	errs := make(FieldErrors)
	require := func(ok bool, f Field, msg string) {
		if !ok {
			errs[f] = msg
		}
	}

	switch id {
	case QuestionName:
		require(!blank(rec.Name), FieldName, msgName)
	case QuestionAge:
		require(rec.Age != "", FieldAge, msgAge)
	case QuestionGender:
		require(rec.Gender != "", FieldGender, msgGender)
	case QuestionCity:
		require(rec.City != "", FieldCity, msgCity)
		if rec.City == catalog.Other {
			require(!blank(rec.OtherCity), FieldOtherCity, msgOtherCity)
		}
	case QuestionPurchaseTypes:
		require(len(rec.PurchaseTypes) > 0, FieldPurchaseTypes, msgPurchaseTypes)
	case QuestionBrand:
		require(rec.Brand != "", FieldBrand, msgBrand)
		if rec.Brand == catalog.Other {
			require(!blank(rec.CustomBrand), FieldCustomBrand, msgCustomBrand)
		}
	case QuestionVehicleModel:
		require(rec.VehicleModel != "", FieldVehicleModel, msgVehicleModel)
		if rec.VehicleModel == catalog.Other {
			require(!blank(rec.CustomModel), FieldCustomModel, msgCustomModel)
		}
	case QuestionPurchaseDate:
		require(rec.PurchaseMonth != "", FieldPurchaseMonth, msgPurchaseMonth)
		require(rec.PurchaseYear != "", FieldPurchaseYear, msgPurchaseYear)
	case QuestionVehicleCondition:
		require(rec.VehicleCondition != "", FieldVehicleCondition, msgVehicleCondition)
	case QuestionRecommendLikelihood:
		require(rec.RecommendLikelihood != "", FieldRecommendLikelihood, msgRecommendLikelihood)
	case QuestionRecommendReasons:
		require(len(rec.RecommendReasons) > 0, FieldRecommendReasons, msgRecommendReasons)
		if slices.Contains(rec.RecommendReasons, catalog.Other) {
			require(!blank(rec.CustomReason), FieldCustomReason, msgCustomReason)
		}
	case QuestionSatisfactionLevel:
		require(rec.SatisfactionLevel != "", FieldSatisfactionLevel, msgSatisfactionLevel)
	case QuestionRepurchaseLikelihood:
		require(rec.RepurchaseLikelihood != "", FieldRepurchaseLikelihood, msgRepurchaseLikelihood)
	case QuestionAlternativeBrand:
		require(rec.AlternativeBrand != "", FieldAlternativeBrand, msgAlternativeBrand)
		if rec.AlternativeBrand == catalog.Other {
			require(!blank(rec.CustomAlternativeBrand), FieldCustomAlternativeBrand, msgCustomAlternativeBrand)
		}
		if rec.AlternativeBrand != "" {
			require(rec.AlternativeModel != "", FieldAlternativeModel, msgAlternativeModel)
		}
		if rec.AlternativeModel == catalog.OtherSpecify {
			require(!blank(rec.CustomAlternativeModel), FieldCustomAlternativeModel, msgCustomAlternativeModel)
		}
	case QuestionContactDetails:
		validateContact(rec, errs)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Validate checks the whole record the way submission does: the prefix
// questions always, the vehicle and contact questions only for owners.
func Validate(rec *AnswerRecord) FieldErrors {
	errs := make(FieldErrors)
	ids := prefixQuestions
	if rec.OwnsVehicle() {
		ids = QuestionIDs(rec)
	}
	for _, id := range ids {
		errs.merge(ValidateQuestion(id, rec))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateContact(rec *AnswerRecord, errs FieldErrors) {
	if email := strings.TrimSpace(rec.Email); email != "" && !emailPattern.MatchString(email) {
		errs[FieldEmail] = msgEmail
	}
	if phone := strings.TrimSpace(rec.ContactNumber); phone != "" && !phonePattern.MatchString(phone) {
		errs[FieldContactNumber] = msgContactNumber
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
