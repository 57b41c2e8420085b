package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChart_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		chart Chart
		want  string
	}{
		{
			name:  "bar uses a single x column",
			chart: Chart{Type: ChartBar, XAxis: []string{"month", "region"}, YAxis: []string{"total"}},
			want:  `{"type":"bar","x_axis":"month","y_axis":["total"]}`,
		},
		{
			name:  "line without axes",
			chart: Chart{Type: ChartLine},
			want:  `{"type":"line"}`,
		},
		{
			name:  "scatter keeps lists",
			chart: Chart{Type: ChartScatter, XAxis: []string{"price"}, YAxis: []string{"qty", "returns"}},
			want:  `{"type":"scatter","x_axis":["price"],"y_axis":["qty","returns"]}`,
		},
		{
			name:  "pie drops axes",
			chart: Chart{Type: ChartPie, XAxis: []string{"category"}, YAxis: []string{"share"}},
			want:  `{"type":"pie"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.chart)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestSummary_ChartAcceptsStringOrListAxes(t *testing.T) {
	var s Summary
	err := json.Unmarshal([]byte(`{"summary": "요약", "chart": {"type": "bar", "x_axis": "month", "y_axis": ["total"]}}`), &s)
	require.NoError(t, err)
	require.NotNil(t, s.Chart)
	assert.Equal(t, "month", s.Chart.XAxis.First())
	assert.Equal(t, []string{"total"}, []string(s.Chart.YAxis))
}

func TestGenerationResult_OK(t *testing.T) {
	var nilResult *GenerationResult
	assert.False(t, nilResult.OK())
	assert.False(t, (&GenerationResult{Status: ResultSuccess}).OK())
	assert.False(t, (&GenerationResult{Status: ResultError, Query: "SELECT 1"}).OK())
	assert.True(t, (&GenerationResult{Status: ResultSuccess, Query: "SELECT 1"}).OK())
}
