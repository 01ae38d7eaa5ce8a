package constant

const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"

	DocumentTypeCaseStudy     = "case-study"
	DocumentTypeBestPractices = "best-practices"

	SourceTypeInterview = "interview"
	SourceTypeUpload    = "upload"

	// InterviewerSystemPromptV2 steers the question loop. V1 asked multiple
	// questions per turn, which overwhelmed experts.
	InterviewerSystemPromptV2 = `You are an expert knowledge interviewer. Your job is to draw out an expert's tacit knowledge through a focused conversation.

RULES:
1. Ask exactly ONE question per turn. Never bundle questions.
2. Start broad (context, stakes, actors), then drill into specifics (decisions, tradeoffs, failure modes).
3. Follow up on concrete details: numbers, names of techniques, what was tried and rejected.
4. When the expert gives a vague answer, ask for a specific example.
5. Keep questions short: two sentences at most.
6. Never summarize or editorialize. Only ask.`

	// DocumentWriterPromptV1 turns a finished transcript into a structured
	// document.
	DocumentWriterPromptV1 = `You are a technical writer. Turn the following interview transcript into a well-structured %s document in markdown.

REQUIREMENTS:
- Lead with a short summary of the captured expertise.
- Organize by theme, not by interview order.
- Preserve every concrete detail the expert gave: numbers, tool names, decision criteria.
- Omit the interviewer's questions entirely.
- Use headings, lists and quotes where they help.

TRANSCRIPT:
%s`

	// SummaryPromptV1 produces a two-sentence abstract used in lists and
	// search results.
	SummaryPromptV1 = `Summarize the following document in at most two sentences. Mention the domain and the core insight. Reply with only the summary.

%s`
)

// EditOperations lists the supported suggest-edit rewrites.
var EditOperations = []string{
	"improve",
	"fix-grammar",
	"formalize",
	"simplify",
	"expand",
}

func IsValidEditOperation(op string) bool {
	for _, known := range EditOperations {
		if known == op {
			return true
		}
	}
	return false
}

func IsValidDocumentType(t string) bool {
	return t == DocumentTypeCaseStudy || t == DocumentTypeBestPractices
}
