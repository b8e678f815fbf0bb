package survey

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mintsurvey/survey-service/internal/catalog"
)

// QuestionID is the stable tag of a question. Only the id correlates state
// across rebuilds of the question list.
type QuestionID string

const (
	QuestionName                 QuestionID = "name"
	QuestionAge                  QuestionID = "age"
	QuestionGender               QuestionID = "gender"
	QuestionCity                 QuestionID = "city"
	QuestionPurchaseTypes        QuestionID = "purchaseTypes"
	QuestionBrand                QuestionID = "brand"
	QuestionVehicleModel         QuestionID = "vehicleModel"
	QuestionPurchaseDate         QuestionID = "purchaseDate"
	QuestionVehicleCondition     QuestionID = "vehicleCondition"
	QuestionRecommendLikelihood  QuestionID = "recommendLikelihood"
	QuestionRecommendReasons     QuestionID = "recommendReasons"
	QuestionSatisfactionLevel    QuestionID = "satisfactionLevel"
	QuestionRepurchaseLikelihood QuestionID = "repurchaseLikelihood"
	QuestionAlternativeBrand     QuestionID = "alternativeBrand"
	QuestionContactDetails       QuestionID = "contactDetails"
)

var prefixQuestions = []QuestionID{
	QuestionName,
	QuestionAge,
	QuestionGender,
	QuestionCity,
	QuestionPurchaseTypes,
}

var vehicleQuestions = []QuestionID{
	QuestionBrand,
	QuestionVehicleModel,
	QuestionPurchaseDate,
	QuestionVehicleCondition,
	QuestionRecommendLikelihood,
	QuestionRecommendReasons,
	QuestionSatisfactionLevel,
	QuestionRepurchaseLikelihood,
	QuestionAlternativeBrand,
	QuestionContactDetails,
}

type questionKind struct {
	single bool
	multi  bool
}

var kinds = map[QuestionID]questionKind{
	QuestionAge:                  {single: true},
	QuestionGender:               {single: true},
	QuestionCity:                 {single: true},
	QuestionPurchaseTypes:        {multi: true},
	QuestionBrand:                {single: true},
	QuestionVehicleModel:         {single: true},
	QuestionPurchaseDate:         {single: true},
	QuestionVehicleCondition:     {single: true},
	QuestionRecommendLikelihood:  {single: true},
	QuestionRecommendReasons:     {multi: true},
	QuestionSatisfactionLevel:    {single: true},
	QuestionRepurchaseLikelihood: {single: true},
	QuestionAlternativeBrand:     {single: true},
}

// owners maps each choice field to the question it completes. Free-text
// fields are absent: typing never counts as an interaction.
var owners = map[Field]QuestionID{
	FieldAge:                  QuestionAge,
	FieldGender:               QuestionGender,
	FieldCity:                 QuestionCity,
	FieldBrand:                QuestionBrand,
	FieldVehicleModel:         QuestionVehicleModel,
	FieldPurchaseMonth:        QuestionPurchaseDate,
	FieldPurchaseYear:         QuestionPurchaseDate,
	FieldVehicleCondition:     QuestionVehicleCondition,
	FieldRecommendLikelihood:  QuestionRecommendLikelihood,
	FieldSatisfactionLevel:    QuestionSatisfactionLevel,
	FieldRepurchaseLikelihood: QuestionRepurchaseLikelihood,
	FieldAlternativeBrand:     QuestionAlternativeBrand,
	FieldAlternativeModel:     QuestionAlternativeBrand,
}

// fieldQuestions maps every scalar field to the question that displays it.
var fieldQuestions = map[Field]QuestionID{
	FieldName:                   QuestionName,
	FieldAge:                    QuestionAge,
	FieldGender:                 QuestionGender,
	FieldCity:                   QuestionCity,
	FieldOtherCity:              QuestionCity,
	FieldBrand:                  QuestionBrand,
	FieldCustomBrand:            QuestionBrand,
	FieldVehicleModel:           QuestionVehicleModel,
	FieldCustomModel:            QuestionVehicleModel,
	FieldPurchaseMonth:          QuestionPurchaseDate,
	FieldPurchaseYear:           QuestionPurchaseDate,
	FieldVehicleCondition:       QuestionVehicleCondition,
	FieldRecommendLikelihood:    QuestionRecommendLikelihood,
	FieldCustomReason:           QuestionRecommendReasons,
	FieldSatisfactionLevel:      QuestionSatisfactionLevel,
	FieldRepurchaseLikelihood:   QuestionRepurchaseLikelihood,
	FieldAlternativeBrand:       QuestionAlternativeBrand,
	FieldCustomAlternativeBrand: QuestionAlternativeBrand,
	FieldAlternativeModel:       QuestionAlternativeBrand,
	FieldCustomAlternativeModel: QuestionAlternativeBrand,
	FieldEmail:                  QuestionContactDetails,
	FieldContactNumber:          QuestionContactDetails,
}

// IsSingleChoice reports whether answering the question advances the wizard
// on its own.
func IsSingleChoice(id QuestionID) bool { return kinds[id].single }

// IsMultiChoice reports whether the question accumulates a set of answers.
func IsMultiChoice(id QuestionID) bool { return kinds[id].multi }

// QuestionIDs returns the ordered question tags that apply to a record.
func QuestionIDs(rec *AnswerRecord) []QuestionID {
	ids := make([]QuestionID, 0, len(prefixQuestions)+len(vehicleQuestions))
	ids = append(ids, prefixQuestions...)
	if rec.OwnsVehicle() {
		ids = append(ids, vehicleQuestions...)
	}
	return ids
}

// InputKind tells a front end how to render an input.
type InputKind string

const (
	InputText     InputKind = "text"
	InputSelect   InputKind = "select"
	InputCheckbox InputKind = "checkbox"
	InputRange    InputKind = "range"
	InputEmail    InputKind = "email"
	InputTel      InputKind = "tel"
)

// Input is one control of a question.
type Input struct {
	Field       Field     `json:"field"`
	Kind        InputKind `json:"kind"`
	Label       string    `json:"label,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Options     []string  `json:"options,omitempty"`
	Min         int       `json:"min"`
	Max         int       `json:"max"`
	Value       string    `json:"value,omitempty"`
	Values      []string  `json:"values,omitempty"`
}

// Question is a rendered question definition.
type Question struct {
	ID           QuestionID `json:"id"`
	Number       int        `json:"number"`
	Prompt       string     `json:"prompt"`
	Inputs       []Input    `json:"inputs"`
	Note         string     `json:"note,omitempty"`
	SingleChoice bool       `json:"singleChoice"`
	MultiChoice  bool       `json:"multiChoice"`
}

// Builder renders questions from the live record. It has no state of its
// own beyond the catalog and the clock used for the year drop-down.
type Builder struct {
	catalog *catalog.Catalog
	now     func() time.Time
}

// NewBuilder creates a Builder. A nil clock means time.Now.
func NewBuilder(cat *catalog.Catalog, now func() time.Time) *Builder {
	if cat == nil {
		cat = catalog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Builder{catalog: cat, now: now}
}

// Catalog returns the vehicle catalog the builder draws options from.
func (b *Builder) Catalog() *catalog.Catalog { return b.catalog }

// Questions renders every applicable question in order.
func (b *Builder) Questions(rec *AnswerRecord) []Question {
	ids := QuestionIDs(rec)
	out := make([]Question, len(ids))
	for i, id := range ids {
		out[i] = b.Render(id, i+1, rec)
	}
	return out
}

// Options returns the choices a select, checkbox or range field offers for
// the record, or nil for free-text fields.
func (b *Builder) Options(f Field, rec *AnswerRecord) []string {
	key := catalog.Normalize(rec.HighestPurchaseType())
	switch f {
	case FieldAge:
		return catalog.AgeGroups
	case FieldGender:
		return catalog.Genders
	case FieldCity:
		return catalog.Cities
	case FieldPurchaseTypes:
		return catalog.PurchaseTypes
	case FieldBrand, FieldAlternativeBrand:
		return b.catalog.Brands(key)
	case FieldVehicleModel:
		return b.catalog.Models(key, rec.Brand)
	case FieldAlternativeModel:
		return b.catalog.AlternativeModels(key, rec.AlternativeBrand)
	case FieldPurchaseMonth:
		return catalog.Months
	case FieldPurchaseYear:
		return catalog.Years(b.now())
	case FieldVehicleCondition:
		return catalog.Conditions
	case FieldRecommendReasons:
		return catalog.Reasons(rec.RecommendLikelihood)
	case FieldRecommendLikelihood, FieldRepurchaseLikelihood:
		return scale(0, 10)
	case FieldSatisfactionLevel:
		return scale(0, 5)
	}
	return nil
}

func scale(min, max int) []string {
	out := make([]string, 0, max-min+1)
	for i := min; i <= max; i++ {
		out = append(out, fmt.Sprint(i))
	}
	return out
}

// Render builds the display payload of one question. It reads the record
// and never modifies it.
func (b *Builder) Render(id QuestionID, number int, rec *AnswerRecord) Question {
	q := Question{
		ID:           id,
		Number:       number,
		SingleChoice: IsSingleChoice(id),
		MultiChoice:  IsMultiChoice(id),
	}

	selectInput := func(f Field, label, placeholder string) Input {
		v, _ := rec.Value(f)
		return Input{Field: f, Kind: InputSelect, Label: label, Placeholder: placeholder, Options: b.Options(f, rec), Value: v}
	}
	textInput := func(f Field, kind InputKind, placeholder string) Input {
		v, _ := rec.Value(f)
		return Input{Field: f, Kind: kind, Placeholder: placeholder, Value: v}
	}
	rangeInput := func(f Field, max int) Input {
		v, _ := rec.Value(f)
		return Input{Field: f, Kind: InputRange, Min: 0, Max: max, Options: b.Options(f, rec), Value: v}
	}

	highest := catalog.DisplayType(rec.HighestPurchaseType())

	switch id {
	case QuestionName:
		q.Prompt = "What's your name?"
		q.Inputs = []Input{textInput(FieldName, InputText, "Enter your name")}

	case QuestionAge:
		q.Prompt = "What's your age group?"
		q.Inputs = []Input{selectInput(FieldAge, "", "Select age group")}

	case QuestionGender:
		q.Prompt = "Please select your gender"
		q.Inputs = []Input{selectInput(FieldGender, "", "Select gender")}

	case QuestionCity:
		q.Prompt = "Which city do you live in?"
		q.Inputs = []Input{selectInput(FieldCity, "", "Select city")}
		if rec.City == catalog.Other {
			q.Inputs = append(q.Inputs, textInput(FieldOtherCity, InputText, "Please specify your city"))
		}

	case QuestionPurchaseTypes:
		q.Prompt = "Which of these vehicles do you own?"
		q.Note = "Select all that apply"
		q.Inputs = []Input{{
			Field:   FieldPurchaseTypes,
			Kind:    InputCheckbox,
			Options: b.Options(FieldPurchaseTypes, rec),
			Values:  append([]string(nil), rec.PurchaseTypes...),
		}}

	case QuestionBrand:
		q.Prompt = fmt.Sprintf("Which brand of %s do you own?", highest)
		q.Inputs = []Input{selectInput(FieldBrand, "", "Select brand")}
		if rec.Brand == catalog.Other {
			q.Inputs = append(q.Inputs, textInput(FieldCustomBrand, InputText, "Please specify your brand"))
		}

	case QuestionVehicleModel:
		q.Prompt = fmt.Sprintf("Which model of %s do you own?", or(brandName(rec), highest))
		q.Inputs = []Input{selectInput(FieldVehicleModel, "", "Select model")}
		if rec.VehicleModel == catalog.Other {
			q.Inputs = append(q.Inputs, textInput(FieldCustomModel, InputText, "Please specify your model"))
		}

	case QuestionPurchaseDate:
		q.Prompt = fmt.Sprintf("When did you purchase your %s?", ownedVehicle(rec, highest))
		q.Inputs = []Input{
			selectInput(FieldPurchaseMonth, "Month", "Select month"),
			selectInput(FieldPurchaseYear, "Year", "Select year"),
		}

	case QuestionVehicleCondition:
		q.Prompt = fmt.Sprintf("Was your %s purchased brand new or used?", ownedVehicle(rec, highest))
		q.Inputs = []Input{selectInput(FieldVehicleCondition, "", "Select condition")}

	case QuestionRecommendLikelihood:
		q.Prompt = fmt.Sprintf("How likely are you to recommend your %s to friends or family?", ownedVehicle(rec, "vehicle"))
		q.Note = "0 = Not at all likely, 10 = Extremely likely"
		q.Inputs = []Input{rangeInput(FieldRecommendLikelihood, 10)}

	case QuestionRecommendReasons:
		q.Prompt = fmt.Sprintf("What are the reasons for your rating of your %s?", ownedVehicle(rec, "vehicle"))
		q.Note = "Select all that apply"
		q.Inputs = []Input{{
			Field:   FieldRecommendReasons,
			Kind:    InputCheckbox,
			Options: b.Options(FieldRecommendReasons, rec),
			Values:  append([]string(nil), rec.RecommendReasons...),
		}}
		if slices.Contains(rec.RecommendReasons, catalog.Other) {
			q.Inputs = append(q.Inputs, textInput(FieldCustomReason, InputText, "Please specify your reason"))
		}

	case QuestionSatisfactionLevel:
		q.Prompt = fmt.Sprintf("How satisfied are you with your %s?", ownedVehicle(rec, "vehicle"))
		q.Note = "0 = Not at all satisfied, 5 = Extremely satisfied"
		q.Inputs = []Input{rangeInput(FieldSatisfactionLevel, 5)}

	case QuestionRepurchaseLikelihood:
		q.Prompt = fmt.Sprintf("How likely are you to repurchase a vehicle from %s?", or(brandName(rec), "this brand"))
		q.Note = "0 = Not at all likely, 10 = Extremely likely"
		q.Inputs = []Input{rangeInput(FieldRepurchaseLikelihood, 10)}

	case QuestionAlternativeBrand:
		q.Prompt = fmt.Sprintf("Which alternative vehicle did you consider when purchasing your %s?", ownedVehicle(rec, highest))
		q.Inputs = []Input{selectInput(FieldAlternativeBrand, "Brand", "Select brand")}
		if rec.AlternativeBrand == catalog.Other {
			q.Inputs = append(q.Inputs, textInput(FieldCustomAlternativeBrand, InputText, "Please specify your alternative brand"))
		}
		if rec.AlternativeBrand != "" {
			q.Inputs = append(q.Inputs, selectInput(FieldAlternativeModel, "Model", "Select model"))
		}
		if rec.AlternativeModel == catalog.OtherSpecify {
			q.Inputs = append(q.Inputs, textInput(FieldCustomAlternativeModel, InputText, "Please specify your model"))
		}

	case QuestionContactDetails:
		q.Prompt = "Please provide your contact details (optional)"
		q.Inputs = []Input{
			textInput(FieldEmail, InputEmail, "Email address"),
			textInput(FieldContactNumber, InputTel, "10-digit phone number"),
		}
	}

	return q
}

// brandName is the brand the respondent owns, with the free-text brand
// standing in for "Other".
func brandName(rec *AnswerRecord) string {
	if rec.Brand == catalog.Other {
		return strings.TrimSpace(rec.CustomBrand)
	}
	return rec.Brand
}

func modelName(rec *AnswerRecord) string {
	if rec.VehicleModel == catalog.Other {
		return strings.TrimSpace(rec.CustomModel)
	}
	return rec.VehicleModel
}

// ownedVehicle renders "Brand Model" once both are chosen, else fallback.
func ownedVehicle(rec *AnswerRecord, fallback string) string {
	if rec.Brand == "" || rec.VehicleModel == "" {
		return fallback
	}
	return or(brandName(rec), catalog.Other) + " " + or(modelName(rec), catalog.Other)
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
