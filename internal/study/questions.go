package study

import "github.com/Acterion/forum-helper/internal/models"

// Question is one survey item. Kind: "text", "radio", or "likert"
// (likert answers are the 1-5 agreement scale in likertScale).
type Question struct {
	Key      string
	Label    string
	Kind     string
	Required bool
	Choices  []string
}

var likertScale = []string{
	"Strongly disagree", "Disagree", "Neutral", "Agree", "Strongly agree",
}

// Attention check embedded in the post-study survey. A wrong answer
// voids the participant's case data.
const (
	AttentionCheckKey    = "attention_check"
	AttentionCheckAnswer = "Agree"
)

var preSurveyQuestions = []Question{
	{Key: "age", Label: "What is your age?", Kind: "radio", Required: true,
		Choices: []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}},
	{Key: "gender", Label: "How do you describe your gender?", Kind: "radio", Required: true,
		Choices: []string{"Woman", "Man", "Non-binary", "Prefer to self-describe", "Prefer not to say"}},
	{Key: "education", Label: "What is the highest level of education you have completed?", Kind: "radio", Required: true,
		Choices: []string{"Secondary school", "Some college", "Bachelor's degree", "Master's degree", "Doctorate", "Other"}},
	{Key: "forum_use", Label: "How often do you read or post in online support forums?", Kind: "radio", Required: true,
		Choices: []string{"Never", "A few times a year", "Monthly", "Weekly", "Daily"}},
	{Key: "english", Label: "I am comfortable reading and writing English.", Kind: "likert", Required: true, Choices: likertScale},
}

var postSurveyCommon = []Question{
	{Key: "task_difficulty", Label: "I found writing the replies difficult.", Kind: "likert", Required: true, Choices: likertScale},
	{Key: "task_engagement", Label: "I found the writing tasks engaging.", Kind: "likert", Required: true, Choices: likertScale},
	{Key: AttentionCheckKey, Label: "To show that you are paying attention, please select \"Agree\".", Kind: "likert", Required: true, Choices: likertScale},
	{Key: "overall_stress", Label: "Overall, the study made me feel stressed.", Kind: "likert", Required: true, Choices: likertScale},
	{Key: "feedback", Label: "Anything else you would like to tell us?", Kind: "text", Required: false},
}

// Extra block shown only to the AI-assisted arm.
var postSurveyAI = []Question{
	{Key: "ai_helpful", Label: "The writing assistant helped me write better replies.", Kind: "likert", Required: true, Choices: likertScale},
	{Key: "ai_trust", Label: "I trusted the suggestions the writing assistant made.", Kind: "likert", Required: true, Choices: likertScale},
	{Key: "ai_ownership", Label: "The submitted replies still felt like my own words.", Kind: "likert", Required: true, Choices: likertScale},
	{Key: "ai_future", Label: "I would use a tool like this outside the study.", Kind: "likert", Required: true, Choices: likertScale},
}

// PreSurveyQuestions is the demographics questionnaire, identical for
// both branches.
func PreSurveyQuestions() []Question {
	return preSurveyQuestions
}

// PostSurveyQuestions returns the post-study questionnaire for a branch:
// the common block, plus the assistant block for the AI arm.
func PostSurveyQuestions(branch string) []Question {
	qs := make([]Question, 0, len(postSurveyCommon)+len(postSurveyAI))
	qs = append(qs, postSurveyCommon...)
	if branch == models.BranchAI {
		qs = append(qs, postSurveyAI...)
	}
	return qs
}
