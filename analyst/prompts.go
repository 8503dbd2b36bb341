package analyst

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are Scout, an analyst that answers questions about a business's operational data: deals, accounts, contacts, and customer conversations.

Ground every answer in data retrieved through your tools. Never answer from memory or general knowledge when a tool could fetch the actual records. Cite specific records (by name or id) when you use them.

When you have gathered enough evidence, write a clear, direct answer. If the data is incomplete, say what is missing rather than guessing.`

// firstTurn builds the opening user message, optionally prefixed with the
// classifier's routing hint.
func firstTurn(question string, hintedTools []string) string {
	if len(hintedTools) == 0 {
		return question
	}
	return fmt.Sprintf("[Likely relevant tools: %s]\n\n%s", strings.Join(hintedTools, ", "), question)
}

// truncationNudge is appended after a generation was cut off at the token
// ceiling with no tool use. The partial text has been discarded.
func truncationNudge(hint string) string {
	msg := "Your previous response was cut off before completing. Do not write a long answer from memory - call the data tools to retrieve the specific records you need, then answer concisely from those results."
	if hint != "" {
		msg += " " + hint
	}
	return msg
}

// noEvidenceNudge is appended when the model answered without calling any
// tools while the trace is still empty.
func noEvidenceNudge(hint string) string {
	msg := "You answered without retrieving any data. Call at least one data tool to ground your answer in actual records before responding."
	if hint != "" {
		msg += " " + hint
	}
	return msg
}

// synthesisInstruction forces a final tool-free answer once the iteration
// ceiling is reached.
const synthesisInstruction = "Stop gathering data. Using only the information already retrieved above, write your best complete answer to the original question now. Note any gaps explicitly."
