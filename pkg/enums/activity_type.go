package enums

import "fmt"

// ActivityType classifies client timeline entries.
type ActivityType string

const (
	ActivityClientCreated       ActivityType = "client_created"
	ActivityQuestionnaireSaved  ActivityType = "questionnaire_saved"
	ActivityPlanSaved           ActivityType = "plan_saved"
	ActivityTemplateSaved       ActivityType = "template_saved"
	ActivityTemplateDeleted     ActivityType = "template_deleted"
	ActivityResponseSaved       ActivityType = "response_saved"
	ActivityPromptGenerated     ActivityType = "prompt_generated"
	ActivityCustomerCreated     ActivityType = "customer_created"
	ActivitySubscriptionCreated ActivityType = "subscription_created"
	ActivityPaymentSucceeded    ActivityType = "payment_succeeded"
	ActivityPaymentFailed       ActivityType = "payment_failed"
	ActivitySubscriptionUpdated ActivityType = "subscription_updated"
	ActivityNote                ActivityType = "note"
)

var validActivityTypes = []ActivityType{
	ActivityClientCreated,
	ActivityQuestionnaireSaved,
	ActivityPlanSaved,
	ActivityTemplateSaved,
	ActivityTemplateDeleted,
	ActivityResponseSaved,
	ActivityPromptGenerated,
	ActivityCustomerCreated,
	ActivitySubscriptionCreated,
	ActivityPaymentSucceeded,
	ActivityPaymentFailed,
	ActivitySubscriptionUpdated,
	ActivityNote,
}

// String implements fmt.Stringer.
func (a ActivityType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityType.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
