package analyst

import (
	"fmt"
	"strings"

	"scout/llm"
)

// BuildHistory converts a stored conversation thread into transcript turns.
// Assistant turns that used tools get a short textual note naming the tools
// instead of replaying their results, so stale data from an earlier question
// cannot anchor the model's answer to a new one.
func BuildHistory(turns []StoredTurn) []llm.Message {
	var msgs []llm.Message
	for _, turn := range turns {
		switch turn.Role {
		case "user":
			msgs = append(msgs, llm.NewTextMessage(llm.RoleUser, turn.Content))
		case "assistant":
			content := turn.Content
			if len(turn.ToolsUsed) > 0 {
				content += fmt.Sprintf(
					"\n\n[This answer was grounded in data retrieved at the time via: %s. Retrieve fresh data before reusing any figures.]",
					strings.Join(turn.ToolsUsed, ", "))
			}
			msgs = append(msgs, llm.NewTextMessage(llm.RoleAssistant, content))
		}
	}
	return msgs
}
