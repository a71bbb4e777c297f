// Package advice maps emotions to suggestions and journaling prompts.
//
// Lookups never fail: the classifier vocabulary can grow independently of
// these tables, so unknown labels get a default message.
package advice

import "github.com/xaenox/mindscope/internal/models"

const (
	DefaultSuggestion = "Take a moment to reflect. You’re doing great."
	DefaultPrompt     = "Write about anything that’s on your mind. Let it flow."
)

var suggestions = map[models.EmotionLabel]string{
	models.Sadness:  "Try journaling your thoughts or listening to calming music.",
	models.Joy:      "Celebrate your moment! Share it with someone you love.",
	models.Anger:    "Take a deep breath. A short walk or quiet time can help.",
	models.Fear:     "Ground yourself with a breathing exercise or talk to a trusted friend.",
	models.Surprise: "Reflect on what surprised you — is it something exciting or stressful?",
	models.Neutral:  "Stay mindful. A short meditation can help maintain balance.",
	models.Disgust:  "Step away from the trigger. Clean space and fresh air can reset your mood.",
}

var prompts = map[models.EmotionLabel]string{
	models.Sadness:  "What’s been weighing on your heart lately? Write freely.",
	models.Joy:      "What brought you joy today? How can you invite more of it?",
	models.Anger:    "What triggered your anger? What would help you release it?",
	models.Fear:     "What are you afraid of right now? What might help you feel safe?",
	models.Surprise: "What unexpected thing happened today? How did it make you feel?",
	models.Neutral:  "How are you feeling overall? What’s been on your mind?",
	models.Disgust:  "What situation or thought felt off today? Why do you think it affected you?",
}

// aliases covers the labels face analysis reports for the same emotions.
var aliases = map[models.EmotionLabel]models.EmotionLabel{
	"happy": models.Joy,
	"sad":   models.Sadness,
	"angry": models.Anger,
}

func key(emotion models.EmotionLabel) models.EmotionLabel {
	k := models.NormalizeLabel(string(emotion))
	if a, ok := aliases[k]; ok {
		return a
	}
	return k
}

func SuggestionFor(emotion models.EmotionLabel) string {
	if s, ok := suggestions[key(emotion)]; ok {
		return s
	}
	return DefaultSuggestion
}

func PromptFor(emotion models.EmotionLabel) string {
	if p, ok := prompts[key(emotion)]; ok {
		return p
	}
	return DefaultPrompt
}

// Resource is a mental health support contact.
type Resource struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func SupportResources() []Resource {
	return []Resource{
		{Name: "iCall India", URL: "https://icallhelpline.org", Description: "Free mental health support"},
		{Name: "AASRA", URL: "http://www.aasra.info", Description: "24/7 helpline: +91-9820466726"},
		{Name: "YourDOST", URL: "https://yourdost.com", Description: "Online counseling platform"},
	}
}
