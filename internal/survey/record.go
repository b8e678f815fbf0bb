package survey

import (
	"slices"

	"github.com/mintsurvey/survey-service/internal/catalog"
)

// Field names an answer slot. The values double as the JSON keys of the
// record and as the keys of the error map.
type Field string

const (
	FieldName                   Field = "name"
	FieldAge                    Field = "age"
	FieldGender                 Field = "gender"
	FieldCity                   Field = "city"
	FieldOtherCity              Field = "otherCity"
	FieldPurchaseTypes          Field = "purchaseTypes"
	FieldBrand                  Field = "brand"
	FieldCustomBrand            Field = "customBrand"
	FieldVehicleModel           Field = "vehicleModel"
	FieldCustomModel            Field = "customModel"
	FieldPurchaseMonth          Field = "purchaseMonth"
	FieldPurchaseYear           Field = "purchaseYear"
	FieldVehicleCondition       Field = "vehicleCondition"
	FieldRecommendLikelihood    Field = "recommendLikelihood"
	FieldRecommendReasons       Field = "recommendReasons"
	FieldCustomReason           Field = "customReason"
	FieldSatisfactionLevel      Field = "satisfactionLevel"
	FieldRepurchaseLikelihood   Field = "repurchaseLikelihood"
	FieldAlternativeBrand       Field = "alternativeBrand"
	FieldCustomAlternativeBrand Field = "customAlternativeBrand"
	FieldAlternativeModel       Field = "alternativeModel"
	FieldCustomAlternativeModel Field = "customAlternativeModel"
	FieldEmail                  Field = "email"
	FieldContactNumber          Field = "contactNumber"

	// FieldForm carries submission failures that belong to no single field.
	FieldForm Field = "form"
)

// AnswerRecord holds everything the respondent has entered. Likert answers
// are kept as strings so that "unset" stays distinguishable from zero.
type AnswerRecord struct {
	Name      string `json:"name"`
	Age       string `json:"age"`
	Gender    string `json:"gender"`
	City      string `json:"city"`
	OtherCity string `json:"otherCity"`

	PurchaseTypes []string `json:"purchaseTypes"`

	Brand            string `json:"brand"`
	CustomBrand      string `json:"customBrand"`
	VehicleModel     string `json:"vehicleModel"`
	CustomModel      string `json:"customModel"`
	PurchaseMonth    string `json:"purchaseMonth"`
	PurchaseYear     string `json:"purchaseYear"`
	VehicleCondition string `json:"vehicleCondition"`

	RecommendLikelihood  string   `json:"recommendLikelihood"`
	RecommendReasons     []string `json:"recommendReasons"`
	CustomReason         string   `json:"customReason"`
	SatisfactionLevel    string   `json:"satisfactionLevel"`
	RepurchaseLikelihood string   `json:"repurchaseLikelihood"`

	AlternativeBrand       string `json:"alternativeBrand"`
	CustomAlternativeBrand string `json:"customAlternativeBrand"`
	AlternativeModel       string `json:"alternativeModel"`
	CustomAlternativeModel string `json:"customAlternativeModel"`

	Email         string `json:"email"`
	ContactNumber string `json:"contactNumber"`
}

// Clone returns a deep copy of the record.
func (r AnswerRecord) Clone() AnswerRecord {
	r.PurchaseTypes = slices.Clone(r.PurchaseTypes)
	r.RecommendReasons = slices.Clone(r.RecommendReasons)
	return r
}

// HighestPurchaseType is the selected purchase type with the greatest
// numeric prefix, or "" when nothing is selected.
func (r *AnswerRecord) HighestPurchaseType() string {
	return catalog.HighestPriority(r.PurchaseTypes)
}

// NoneSelected reports whether the "None of the above" sentinel is active.
func (r *AnswerRecord) NoneSelected() bool {
	return slices.Contains(r.PurchaseTypes, catalog.NoneOfTheAbove)
}

// OwnsVehicle is true when the vehicle questions apply.
func (r *AnswerRecord) OwnsVehicle() bool {
	return len(r.PurchaseTypes) > 0 && !r.NoneSelected()
}

// Value returns a scalar field. Set-valued fields report false.
func (r *AnswerRecord) Value(f Field) (string, bool) {
	p := r.scalar(f)
	if p == nil {
		return "", false
	}
	return *p, true
}

func (r *AnswerRecord) scalar(f Field) *string {
	switch f {
	case FieldName:
		return &r.Name
	case FieldAge:
		return &r.Age
	case FieldGender:
		return &r.Gender
	case FieldCity:
		return &r.City
	case FieldOtherCity:
		return &r.OtherCity
	case FieldBrand:
		return &r.Brand
	case FieldCustomBrand:
		return &r.CustomBrand
	case FieldVehicleModel:
		return &r.VehicleModel
	case FieldCustomModel:
		return &r.CustomModel
	case FieldPurchaseMonth:
		return &r.PurchaseMonth
	case FieldPurchaseYear:
		return &r.PurchaseYear
	case FieldVehicleCondition:
		return &r.VehicleCondition
	case FieldRecommendLikelihood:
		return &r.RecommendLikelihood
	case FieldCustomReason:
		return &r.CustomReason
	case FieldSatisfactionLevel:
		return &r.SatisfactionLevel
	case FieldRepurchaseLikelihood:
		return &r.RepurchaseLikelihood
	case FieldAlternativeBrand:
		return &r.AlternativeBrand
	case FieldCustomAlternativeBrand:
		return &r.CustomAlternativeBrand
	case FieldAlternativeModel:
		return &r.AlternativeModel
	case FieldCustomAlternativeModel:
		return &r.CustomAlternativeModel
	case FieldEmail:
		return &r.Email
	case FieldContactNumber:
		return &r.ContactNumber
	}
	return nil
}

// clearVehicleDetails wipes every field that only applies to vehicle owners,
// contact details included.
func (r *AnswerRecord) clearVehicleDetails() {
	r.clearBrand()
	r.RecommendLikelihood = ""
	r.RecommendReasons = nil
	r.CustomReason = ""
	r.SatisfactionLevel = ""
	r.RepurchaseLikelihood = ""
	r.clearAlternative()
	r.Email = ""
	r.ContactNumber = ""
}

func (r *AnswerRecord) clearBrand() {
	r.Brand = ""
	r.CustomBrand = ""
	r.clearModel()
}

func (r *AnswerRecord) clearModel() {
	r.VehicleModel = ""
	r.CustomModel = ""
	r.PurchaseMonth = ""
	r.PurchaseYear = ""
	r.VehicleCondition = ""
}

func (r *AnswerRecord) clearAlternative() {
	r.AlternativeBrand = ""
	r.CustomAlternativeBrand = ""
	r.AlternativeModel = ""
	r.CustomAlternativeModel = ""
}

// FieldErrors maps a field to its user-facing message.
type FieldErrors map[Field]string

func (e FieldErrors) clear(fields ...Field) {
	for _, f := range fields {
		delete(e, f)
	}
}

func (e FieldErrors) merge(other FieldErrors) {
	for f, msg := range other {
		e[f] = msg
	}
}

// FlowPosition is the wizard cursor for one session.
type FlowPosition struct {
	Index      int                 `json:"index"`
	Interacted map[QuestionID]bool `json:"interacted"`
	Errors     FieldErrors         `json:"errors"`
	Progress   int                 `json:"progress"`
}

func newPosition() FlowPosition {
	return FlowPosition{
		Interacted: make(map[QuestionID]bool),
		Errors:     make(FieldErrors),
	}
}

func (p FlowPosition) clone() FlowPosition {
	out := FlowPosition{
		Index:      p.Index,
		Progress:   p.Progress,
		Interacted: make(map[QuestionID]bool, len(p.Interacted)),
		Errors:     make(FieldErrors, len(p.Errors)),
	}
	for k, v := range p.Interacted {
		out.Interacted[k] = v
	}
	for k, v := range p.Errors {
		out.Errors[k] = v
	}
	return out
}
