package survey

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintsurvey/survey-service/internal/catalog"
)

func TestQuestionIDs(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  int
	}{
		{"nothing selected", nil, 5},
		{"sentinel", []string{catalog.NoneOfTheAbove}, 5},
		{"owner", []string{"3. Motorcycle"}, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := QuestionIDs(&AnswerRecord{PurchaseTypes: tt.types})
			require.Len(t, ids, tt.want)
			assert.Equal(t, prefixQuestions, ids[:5])
		})
	}
}

func TestQuestionsAreIdempotent(t *testing.T) {
	b := newTestBuilder()
	rec := &AnswerRecord{
		Name:                "Ravi",
		PurchaseTypes:       []string{"1. Cars/SUVs", "3. Motorcycle"},
		Brand:               "Royal Enfield",
		VehicleModel:        "Classic 350",
		RecommendLikelihood: "8",
	}
	before := rec.Clone()

	first := b.Questions(rec)
	second := b.Questions(rec)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("rebuild changed the question list (-first +second):\n%s", diff)
	}
	assert.Equal(t, before, *rec)
}

func TestPromptsFollowAnswers(t *testing.T) {
	b := newTestBuilder()
	rec := &AnswerRecord{PurchaseTypes: []string{"2. Scooter/Moped", "5. Electric Car"}}

	render := func(id QuestionID) Question { return b.Render(id, 1, rec) }

	assert.Equal(t, "Which brand of Electric Car do you own?", render(QuestionBrand).Prompt)
	assert.Equal(t, "Which model of Electric Car do you own?", render(QuestionVehicleModel).Prompt)
	assert.Equal(t, "When did you purchase your Electric Car?", render(QuestionPurchaseDate).Prompt)
	assert.Equal(t, "How likely are you to recommend your vehicle to friends or family?", render(QuestionRecommendLikelihood).Prompt)
	assert.Equal(t, "How likely are you to repurchase a vehicle from this brand?", render(QuestionRepurchaseLikelihood).Prompt)

	rec.Brand = "Tata"
	rec.VehicleModel = "Nexon"
	assert.Equal(t, "Which model of Tata do you own?", render(QuestionVehicleModel).Prompt)
	assert.Equal(t, "Was your Tata Nexon purchased brand new or used?", render(QuestionVehicleCondition).Prompt)
	assert.Equal(t, "How satisfied are you with your Tata Nexon?", render(QuestionSatisfactionLevel).Prompt)
	assert.Equal(t, "Which alternative vehicle did you consider when purchasing your Tata Nexon?", render(QuestionAlternativeBrand).Prompt)

	rec.VehicleModel = catalog.Other
	rec.CustomModel = "  Nexon Dark  "
	assert.Equal(t, "When did you purchase your Tata Nexon Dark?", render(QuestionPurchaseDate).Prompt)

	rec.CustomModel = ""
	assert.Equal(t, "When did you purchase your Tata Other?", render(QuestionPurchaseDate).Prompt)
}

func TestRenderOptions(t *testing.T) {
	b := newTestBuilder()
	rec := &AnswerRecord{PurchaseTypes: []string{"2. Scooter/Moped"}, Brand: "Honda", AlternativeBrand: "TVS"}

	brand := b.Render(QuestionBrand, 6, rec)
	assert.Equal(t, b.Catalog().Brands("2-wheeler"), brand.Inputs[0].Options)
	assert.Equal(t, "Honda", brand.Inputs[0].Value)
	assert.Len(t, brand.Inputs, 1)

	model := b.Render(QuestionVehicleModel, 7, rec)
	assert.Equal(t, []string{"Activa", "Dio", catalog.Other}, model.Inputs[0].Options)

	date := b.Render(QuestionPurchaseDate, 8, rec)
	require.Len(t, date.Inputs, 2)
	assert.Equal(t, "2026", date.Inputs[1].Options[0])

	alt := b.Render(QuestionAlternativeBrand, 14, rec)
	require.Len(t, alt.Inputs, 2)
	assert.Equal(t, []string{"Jupiter", "Ntorq", catalog.None, catalog.OtherSpecify}, alt.Inputs[1].Options)

	rec.AlternativeModel = catalog.OtherSpecify
	alt = b.Render(QuestionAlternativeBrand, 14, rec)
	require.Len(t, alt.Inputs, 3)
	assert.Equal(t, FieldCustomAlternativeModel, alt.Inputs[2].Field)

	satisfaction := b.Render(QuestionSatisfactionLevel, 12, rec)
	assert.Equal(t, InputRange, satisfaction.Inputs[0].Kind)
	assert.Equal(t, 5, satisfaction.Inputs[0].Max)
}

func TestReasonOptionsBoundary(t *testing.T) {
	b := newTestBuilder()
	for rating, want := range map[string][]string{
		"":   catalog.NegativeReasons,
		"0":  catalog.NegativeReasons,
		"6":  catalog.NegativeReasons,
		"7":  catalog.PositiveReasons,
		"10": catalog.PositiveReasons,
	} {
		rec := &AnswerRecord{PurchaseTypes: []string{"1. Cars/SUVs"}, RecommendLikelihood: rating}
		q := b.Render(QuestionRecommendReasons, 11, rec)
		assert.Equal(t, want, q.Inputs[0].Options, "rating %q", rating)
	}
}

func TestButtonVisibility(t *testing.T) {
	owner := &AnswerRecord{PurchaseTypes: []string{"1. Cars/SUVs"}}
	none := &AnswerRecord{PurchaseTypes: []string{catalog.NoneOfTheAbove}}
	empty := &AnswerRecord{}

	tests := []struct {
		name       string
		rec        *AnswerRecord
		index      int
		wantNext   bool
		wantSubmit bool
	}{
		{"name question", owner, 0, true, false},
		{"single choice hides next", owner, 1, false, false},
		{"purchase types for owner", owner, 4, true, false},
		{"purchase types with sentinel", none, 4, false, true},
		{"purchase types with nothing selected", empty, 4, false, true},
		{"purchase date keeps next", owner, 7, true, false},
		{"reasons", owner, 10, true, false},
		{"contact details", owner, 14, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := QuestionIDs(tt.rec)
			assert.Equal(t, tt.wantNext, nextVisible(ids, tt.index, tt.rec))
			assert.Equal(t, tt.wantSubmit, submitVisible(ids, tt.index, tt.rec))
		})
	}
}

func TestRecomputeClampsPosition(t *testing.T) {
	b := newTestBuilder()
	pos := newPosition()
	pos.Index = 12

	v := b.Recompute(&AnswerRecord{PurchaseTypes: []string{catalog.NoneOfTheAbove}}, &pos)
	assert.Equal(t, 4, v.Position)
	assert.Len(t, v.Visible(), 5)
	assert.Equal(t, 12, pos.Index)
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name string
		rec  AnswerRecord
		want int
	}{
		{"empty", AnswerRecord{}, 0},
		{"demographics only", AnswerRecord{Name: "A", Age: "18-24", Gender: "Male", City: "Delhi"}, 25},
		{"other city counts its companion", AnswerRecord{Name: "A", Age: "18-24", Gender: "Male", City: catalog.Other}, 24},
		{"sentinel complete", AnswerRecord{Name: "A", Age: "18-24", Gender: "Male", City: "Delhi", PurchaseTypes: []string{catalog.NoneOfTheAbove}}, 100},
		{"owner just started", AnswerRecord{Name: "A", Age: "18-24", Gender: "Male", City: "Delhi", PurchaseTypes: []string{"1. Cars/SUVs"}}, 31},
		{"placeholder does not count", AnswerRecord{Name: "N/A"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Progress(&tt.rec))
		})
	}
}

func TestProgressDoesNotDropOnFirstPurchaseType(t *testing.T) {
	rec := AnswerRecord{Name: "A", Age: "18-24", Gender: "Male", City: "Delhi"}
	before := Progress(&rec)

	rec.PurchaseTypes = []string{"1. Cars/SUVs"}
	assert.Greater(t, Progress(&rec), before)

	rec.PurchaseTypes = []string{catalog.NoneOfTheAbove}
	assert.Equal(t, 100, Progress(&rec))
}
