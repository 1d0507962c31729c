package models

// All lists every persisted model, parents first. Used for sqlite schema
// bootstrapping and tests.
func All() []any {
	return []any{
		&AdminUser{},
		&Client{},
		&Questionnaire{},
		&ClientPlan{},
		&QuestionnaireTemplate{},
		&QuestionnaireResponse{},
		&Activity{},
		&Payment{},
	}
}
