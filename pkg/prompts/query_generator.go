package prompts

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the timestamp format generated queries must use.
const TimestampLayout = "2006-01-02 15:04:05"

var queryGeneratorGuidelines = []string{
	"When the information provided is sufficient, generate a valid query without further explanation of the question.",
	"Answer with the error form if the information provided is insufficient.",
	"Use all relevant tables from the provided metadata to accurately answer the question.",
	"If needed, write a proper JOIN query using foreign key relationships or common columns.",
	"Format the query correctly before answering.",
	"Always respond with a valid JSON object in one of the formats below.",
	"All messages should be in Korean.",
	"Date(일자) conditions should be in YYYY-MM-DD format. Timestamp(일시) conditions should be in YYYY-MM-DD HH:MM:SS format.",
	"When the user requests time series data by date, convert the values to a date type.",
	"If there is no specific date or time condition, use the current date and time in the Korea timezone (KST).",
}

// BuildQueryGeneratorPrompt creates the MySQL generation prompt. now anchors
// relative dates and is rendered in its own location.
func BuildQueryGeneratorPrompt(question, metaInfo string, now time.Time) string {
	var prompt strings.Builder

	prompt.WriteString("You are an expert in creating MySQL queries.\n")
	prompt.WriteString("Help me create the MySQL query I need for the 'Question' I give.\n")
	prompt.WriteString("Your answers should ONLY be based on the form given below and should follow the answer and format guidelines.\n")
	prompt.WriteString("Use ONLY the given 'Meta Info' to create an appropriate query for 'Question'.\n\n")

	prompt.WriteString("- Response Guidelines\n")
	for i, g := range queryGeneratorGuidelines {
		prompt.WriteString(fmt.Sprintf("%d. %s\n", i+1, g))
	}
	prompt.WriteString(fmt.Sprintf("\n- Current Date Time (%s)\n%s\n", now.Location(), now.Format(TimestampLayout)))

	prompt.WriteString("\n- Meta Info\n")
	prompt.WriteString(metaInfo)
	prompt.WriteString("\n")

	prompt.WriteString(`
- Response Format
{
    "query": "A generated SQL query when context is sufficient.",
    "result": "SUCCESS"
}

- Error Format
{
    "result": "ERROR",
    "message": "Explain why the question could not be answered with the current metadata."
}
`)

	prompt.WriteString("\n- Question\n")
	prompt.WriteString(question)
	prompt.WriteString("\n")

	return prompt.String()
}
