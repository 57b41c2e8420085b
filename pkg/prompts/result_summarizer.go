package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BuildResultSummarizerPrompt asks for a Korean summary of the rows and a
// chart recommendation whose axes name result columns.
func BuildResultSummarizerPrompt(question string, columns []string, rows [][]any, isTimeSeries bool) string {
	var prompt strings.Builder

	prompt.WriteString("You are a professional data analyst.\n\n")
	prompt.WriteString("Your task is to:\n")
	prompt.WriteString("1. Generate a clear and factual Korean summary based on the user's question and the query result.\n")
	prompt.WriteString("2. Recommend the most appropriate chart type for visualizing the data.\n")
	prompt.WriteString("3. Structure the chart data according to the chart type, so it can be used directly in frontend components.\n\n")

	prompt.WriteString("---\n\nInputs:\n")
	prompt.WriteString(fmt.Sprintf("- Question: %s\n", question))
	prompt.WriteString(fmt.Sprintf("- Columns: %s\n", strings.Join(columns, ", ")))
	prompt.WriteString(fmt.Sprintf("- Rows: %s\n", renderRows(rows)))
	prompt.WriteString(fmt.Sprintf("- Is Time Series: %t\n\n", isTimeSeries))

	prompt.WriteString(`---

Instructions:
1. Write a concise summary in **Korean**, based ONLY on the data and question.
2. Avoid assumptions, vague expressions, or embellishments. Be factual and data-driven.
3. Mention important values such as totals, counts, averages, max/min and trends if relevant.
4. If 'Is Time Series' is true, the summary MUST reflect temporal trends (increase/decrease over time, peaks, daily/monthly averages) and MUST follow the time order of the data.
5. Recommend ONE chart type from the following list:
   - 'line': for time-based trends.
   - 'bar': for categorical comparisons.
   - 'pie': for proportions/distributions.
   - 'scatter': for numeric correlations.
6. Provide 'x_axis' and 'y_axis' for 'line', 'bar' and 'scatter' charts.
7. Every axis value MUST BE one of the column names in the query result.
8. Shape the chart object according to the chart type:
   - For 'bar' and 'line':
     {"type": "bar", "x_axis": "<column_name>", "y_axis": ["<column_name1>", "<column_name2>"]}
   - For 'pie' (no axes):
     {"type": "pie"}
   - For 'scatter':
     {"type": "scatter", "x_axis": ["<column_name1>"], "y_axis": ["<column_name2>"]}

---

Respond ONLY with a JSON object in the following format:

{
  "summary": "<Korean summary>",
  "chart": {
    "type": "<bar | line | pie | scatter>",
    "x_axis": "<column_name>",
    "y_axis": ["<column_name>"]
  }
}
`)

	return prompt.String()
}

func renderRows(rows [][]any) string {
	if rows == nil {
		rows = [][]any{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return fmt.Sprint(rows)
	}
	return string(b)
}
