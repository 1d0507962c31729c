package prompts

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
)

const (
	DefaultWorkoutGoal       = "General fitness"
	DefaultExperience        = "Not specified"
	DefaultFrequency         = "3-4"
	DefaultNone              = "None"
	DefaultPreferences       = "No specific preferences"
	DefaultNutritionGoal     = "balanced diet"
	DefaultDietaryPreference = "No preference"
	DefaultMealFrequency     = "3 meals"
)

// Workout renders the workout-plan prompt for a client. Output depends only
// on its inputs.
func Workout(clientName string, answers models.WorkoutAnswers) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a personalized 4-week workout plan for %s.\n\n", or(clientName, "the client"))
	b.WriteString("Client profile:\n")
	fmt.Fprintf(&b, "- Primary goal: %s\n", or(answers.Goal, DefaultWorkoutGoal))
	fmt.Fprintf(&b, "- Experience level: %s\n", or(answers.Experience, DefaultExperience))
	fmt.Fprintf(&b, "- Training frequency: %s days per week\n", or(answers.Frequency, DefaultFrequency))
	fmt.Fprintf(&b, "- Injuries or limitations: %s\n", list(answers.Limitations, DefaultNone))
	fmt.Fprintf(&b, "- Preferences: %s\n\n", list(answers.Preferences, DefaultPreferences))
	b.WriteString("For each training day list the exercises with sets, reps and rest periods. ")
	b.WriteString("Include a warm-up and cool-down, explain how to progress week over week, ")
	b.WriteString("and offer safe alternatives for any movement affected by the limitations above. ")
	b.WriteString("Format the plan as clean HTML with one section per week.")
	return b.String()
}

// Nutrition renders the nutrition-plan prompt for a client.
func Nutrition(clientName string, answers models.NutritionAnswers) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a personalized 7-day nutrition plan for %s.\n\n", or(clientName, "the client"))
	b.WriteString("Client profile:\n")
	fmt.Fprintf(&b, "- Nutrition goal: %s\n", or(answers.Goal, DefaultNutritionGoal))
	fmt.Fprintf(&b, "- Dietary preference: %s\n", or(answers.DietaryPreference, DefaultDietaryPreference))
	fmt.Fprintf(&b, "- Meals per day: %s\n", or(answers.MealFrequency, DefaultMealFrequency))
	fmt.Fprintf(&b, "- Allergies: %s\n", list(answers.Allergies, DefaultNone))
	fmt.Fprintf(&b, "- Other restrictions: %s\n\n", list(answers.Restrictions, DefaultNone))
	b.WriteString("For each day list every meal with portion sizes and approximate calories and macros. ")
	b.WriteString("Never include ingredients the client is allergic to, ")
	b.WriteString("and finish with a consolidated grocery list. ")
	b.WriteString("Format the plan as clean HTML with one section per day.")
	return b.String()
}

func or(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func list(values []string, fallback string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, ", ")
}
