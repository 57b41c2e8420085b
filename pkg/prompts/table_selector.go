// Package prompts builds the instructions sent to each pipeline agent.
package prompts

import (
	"fmt"
	"strings"
)

// TableOption is one selectable table offered to the table selector.
type TableOption struct {
	ID          int64
	Name        string
	Description string
}

// FormatTableOption renders a table as "[id] name: (description)".
func FormatTableOption(t TableOption) string {
	return fmt.Sprintf("[%d] %s: (%s)", t.ID, t.Name, t.Description)
}

// BuildTableSelectorPrompt asks the model to pick the tables needed for the
// question and answer with {"relevant_tables": [ids]}.
func BuildTableSelectorPrompt(question string, tables []TableOption) string {
	var prompt strings.Builder

	prompt.WriteString("You are a SQL assistant.\n\n")
	prompt.WriteString("Given the user question and the list of available table names, select only the relevant tables that would be used to answer the question.\n")
	prompt.WriteString("Response MUST contain ONLY table ids.\n")
	prompt.WriteString("Respond ONLY with the JSON object. No explanation. Do NOT wrap the JSON in triple backticks.\n\n")

	prompt.WriteString(fmt.Sprintf("- Question: %s\n", question))
	prompt.WriteString("- Available Tables:\n")
	for _, t := range tables {
		prompt.WriteString(FormatTableOption(t))
		prompt.WriteString("\n")
	}

	prompt.WriteString("\nRespond in JSON format:\n")
	prompt.WriteString(`{ "relevant_tables": [1, 2] }`)
	prompt.WriteString("\n")

	return prompt.String()
}
