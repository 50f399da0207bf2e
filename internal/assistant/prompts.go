package assistant

// Persona is the assistant's display name in the chat panel.
const Persona = "Elyon"

const basePrompt = "You are Elyon, a claims review assistant for insurance adjusters and defense counsel. " +
	"Answer only from the claim report below. Cite dates, providers and amounts exactly as they appear. " +
	"Keep answers concise, use short bullet lists for multi-part findings, and say so plainly when the report does not contain the answer."

// SystemPrompt returns the system message for model-backed providers,
// followed by the rendered report when one is available.
func SystemPrompt(reportContext string) string {
	if reportContext == "" {
		return basePrompt
	}
	return basePrompt + "\n\n" + reportContext
}
