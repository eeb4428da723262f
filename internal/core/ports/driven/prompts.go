package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return the built-in default.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer asks the model to answer from retrieved summaries.
	// The template expects {context} and {query} placeholders.
	PromptAnswer = "answer"
)

// DefaultAnswerPrompt is the built-in answer template.
const DefaultAnswerPrompt = "Use the following summaries to answer the question. " +
	"If the information is not available in the summaries, say so.\n\n" +
	"Summaries:\n{context}\n\n" +
	"Question: {query}\n" +
	"Answer:"
