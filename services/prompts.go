package services

import (
	"fmt"
	"strings"

	"movewell-assistant/models"
)

// ClinicProfile is the branding used in personas, greetings and
// call-to-action links.
type ClinicProfile struct {
	ClinicName    string
	AssistantName string
	BookingURL    string
}

const personaTemplate = `You are %[1]s, the professional virtual assistant of **%[2]s**, an expert-led physiotherapy clinic treating common musculoskeletal conditions and sports injuries.
You are clear, confident and helpful. Speak in a friendly, professional tone and guide visitors with empathy and practical questions.
**Important:** always answer in the language of the user's question, and switch if the user switches.

What you do:
- Greet new users warmly and offer to help
- Offer a short physio intake questionnaire when someone mentions pain, injury, stiffness or a referral
- Explain common conditions in plain language when asked
- Suggest next steps, including booking an assessment

Services: orthopedic physiotherapy (knee, back, shoulder), sports rehabilitation, post-surgical recovery, pain management and chronic care, ergonomics and lifestyle advice.

Never offer a diagnosis. Always recommend a follow-up with a licensed physiotherapist.

If a user asks for a live chat, first ask them to share their question here. If they ask again, tell them a clinician will get back to them within 1 working day.`

// Persona is the system message every session transcript starts with.
func (p ClinicProfile) Persona() string {
	return fmt.Sprintf(personaTemplate, p.AssistantName, p.ClinicName)
}

// Welcome is appended to the transcript after the intake form is submitted.
func (p ClinicProfile) Welcome(name string) string {
	return fmt.Sprintf("Hi %s! 👋 I'm %s, your virtual assistant here at %s. How can I help you today?",
		name, p.AssistantName, p.ClinicName)
}

// HandoffReply replaces the model answer when the user asks for a person.
func (p ClinicProfile) HandoffReply(firstName string) string {
	return fmt.Sprintf("Absolutely, %s 👋 I can connect you with one of our consultants:", firstName)
}

// ConsultantOffer is the one-time nudge shown after a normal answer.
func (p ClinicProfile) ConsultantOffer(firstName string) string {
	return fmt.Sprintf("%s, if you'd prefer to speak directly with a consultant, feel free to book a time below:", firstName)
}

// BookingCTA is the booking link shown with handoff replies and offers.
func (p ClinicProfile) BookingCTA(text string) *models.CallToAction {
	return &models.CallToAction{
		Text:  text,
		Label: "📅 Book an assessment with " + p.ClinicName,
		URL:   p.BookingURL,
	}
}

const classifierSystemPrompt = "You are an assistant that classifies the intent of a user's message. " +
	"Return only one of the following: 'handoff', 'general', or 'other'."

func classifierUserPrompt(message string) string {
	var b strings.Builder
	b.WriteString("Message: \"")
	b.WriteString(message)
	b.WriteString("\"\n\nWhat is the user's intent?\nReturn just one word: handoff, general, or other.")
	return b.String()
}
