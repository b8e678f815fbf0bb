package survey

import "slices"

// View is everything a front end needs to draw the wizard.
type View struct {
	SessionID  string              `json:"sessionId,omitempty"`
	Stage      Stage               `json:"stage"`
	Questions  []Question          `json:"questions"`
	Position   int                 `json:"position"`
	Errors     FieldErrors         `json:"errors"`
	Interacted map[QuestionID]bool `json:"interacted"`
	Progress   int                 `json:"progress"`
	ShowNext   bool                `json:"showNext"`
	ShowSubmit bool                `json:"showSubmit"`
	InFlight   bool                `json:"inFlight"`
}

// Current returns the question at the cursor, if any.
func (v View) Current() (Question, bool) {
	if v.Position < 0 || v.Position >= len(v.Questions) {
		return Question{}, false
	}
	return v.Questions[v.Position], true
}

// Visible returns the questions up to and including the cursor.
func (v View) Visible() []Question {
	if len(v.Questions) == 0 {
		return nil
	}
	end := min(v.Position+1, len(v.Questions))
	return v.Questions[:end]
}

// Recompute derives the question list, progress and button visibility from
// a record and a position. Neither argument is modified.
func (b *Builder) Recompute(rec *AnswerRecord, pos *FlowPosition) View {
	questions := b.Questions(rec)
	ids := QuestionIDs(rec)
	index := clampIndex(pos.Index, len(ids))

	view := pos.clone()
	return View{
		Stage:      StageSurvey,
		Questions:  questions,
		Position:   index,
		Errors:     view.Errors,
		Interacted: view.Interacted,
		Progress:   Progress(rec),
		ShowNext:   nextVisible(ids, index, rec),
		ShowSubmit: submitVisible(ids, index, rec),
	}
}

func clampIndex(index, n int) int {
	if n == 0 {
		return 0
	}
	return max(0, min(index, n-1))
}

// purchaseTypesIndex is where the "None of the above" short-circuit applies.
func purchaseTypesIndex(ids []QuestionID) int {
	return slices.Index(ids, QuestionPurchaseTypes)
}

func shortCircuit(ids []QuestionID, index int, rec *AnswerRecord) bool {
	return index == purchaseTypesIndex(ids) && rec.NoneSelected()
}

func nextVisible(ids []QuestionID, index int, rec *AnswerRecord) bool {
	if index < 0 || index >= len(ids) {
		return false
	}
	id := ids[index]
	if IsSingleChoice(id) && id != QuestionPurchaseDate {
		return false
	}
	return index < len(ids)-1 && !shortCircuit(ids, index, rec)
}

func submitVisible(ids []QuestionID, index int, rec *AnswerRecord) bool {
	last := index == len(ids)-1
	return (last && !rec.NoneSelected()) || shortCircuit(ids, index, rec)
}
