package enums

import "fmt"

// QuestionnaireCategory scopes a template to workout or nutrition intake.
type QuestionnaireCategory string

const (
	QuestionnaireCategoryWorkout   QuestionnaireCategory = "workout"
	QuestionnaireCategoryNutrition QuestionnaireCategory = "nutrition"
)

// String implements fmt.Stringer.
func (q QuestionnaireCategory) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuestionnaireCategory.
func (q QuestionnaireCategory) IsValid() bool {
	return q == QuestionnaireCategoryWorkout || q == QuestionnaireCategoryNutrition
}

// ParseQuestionnaireCategory converts raw input into a QuestionnaireCategory.
func ParseQuestionnaireCategory(value string) (QuestionnaireCategory, error) {
	category := QuestionnaireCategory(value)
	if !category.IsValid() {
		return "", fmt.Errorf("invalid questionnaire category %q", value)
	}
	return category, nil
}

// QuestionType controls how a template question is rendered and answered.
type QuestionType string

const (
	QuestionTypeText        QuestionType = "text"
	QuestionTypeTextarea    QuestionType = "textarea"
	QuestionTypeNumber      QuestionType = "number"
	QuestionTypeSelect      QuestionType = "select"
	QuestionTypeMultiSelect QuestionType = "multiselect"
	QuestionTypeRadio       QuestionType = "radio"
	QuestionTypeCheckbox    QuestionType = "checkbox"
)

var validQuestionTypes = []QuestionType{
	QuestionTypeText,
	QuestionTypeTextarea,
	QuestionTypeNumber,
	QuestionTypeSelect,
	QuestionTypeMultiSelect,
	QuestionTypeRadio,
	QuestionTypeCheckbox,
}

// IsValid reports whether the value is a known QuestionType.
func (q QuestionType) IsValid() bool {
	for _, candidate := range validQuestionTypes {
		if candidate == q {
			return true
		}
	}
	return false
}

// HasOptions reports whether the question type requires a list of options.
func (q QuestionType) HasOptions() bool {
	switch q {
	case QuestionTypeSelect, QuestionTypeMultiSelect, QuestionTypeRadio, QuestionTypeCheckbox:
		return true
	default:
		return false
	}
}
