// Package report renders a finished Report in a neutral JSON form and a
// deterministic plain-text form. Terminal decoration (colour, boxes, emoji)
// belongs to the caller; nothing here emits escape codes.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/haricheung/repogauge/internal/types"
)

// JSON renders the stable report shape:
//
//	{repository, overallScore, rating, metrics:{<name>:{score, weight,
//	 description, details}…}, recommendation}
//
// Metric keys keep calculator order, scores carry two-digit precision, and
// string values use standard JSON escaping. The optional llmAnalysis object
// is appended only when the report carries one.
func JSON(r types.Report) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeString(&buf, "repository", r.RepositoryFullName)
	buf.WriteByte(',')
	writeNumber(&buf, "overallScore", r.OverallScore)
	buf.WriteByte(',')
	writeString(&buf, "rating", string(r.Rating))
	buf.WriteByte(',')

	key, _ := json.Marshal("metrics")
	buf.Write(key)
	buf.WriteString(":{")
	for i, m := range r.Metrics {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(m.Name)
		buf.Write(name)
		buf.WriteString(":{")
		writeNumber(&buf, "score", m.Score)
		buf.WriteByte(',')
		writeNumber(&buf, "weight", m.Weight)
		buf.WriteByte(',')
		writeString(&buf, "description", m.Description)
		buf.WriteByte(',')
		writeString(&buf, "details", m.Details)
		buf.WriteByte('}')
	}
	buf.WriteString("},")

	writeString(&buf, "recommendation", r.Recommendation)

	if r.LLM != nil {
		llmJSON, err := marshalLLM(*r.LLM)
		if err != nil {
			return "", fmt.Errorf("report: marshal llm analysis: %w", err)
		}
		buf.WriteByte(',')
		k, _ := json.Marshal("llmAnalysis")
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(llmJSON)
	}

	buf.WriteByte('}')
	return buf.String(), nil
}

// llmAnalysisJSON fixes the wire shape of the optional review block.
type llmAnalysisJSON struct {
	Readme          types.ReadmeAnalysis     `json:"readme"`
	Commits         types.CommitAnalysis     `json:"commits"`
	Community       types.CommunityAnalysis  `json:"community"`
	Recommendations []types.AIRecommendation `json:"recommendations"`
	Confidence      json.RawMessage          `json:"confidence"`
	TokensUsed      int                      `json:"tokensUsed"`
}

func marshalLLM(a types.LLMAnalysis) ([]byte, error) {
	return json.Marshal(llmAnalysisJSON{
		Readme:          a.Readme,
		Commits:         a.Commits,
		Community:       a.Community,
		Recommendations: a.Recommendations,
		Confidence:      json.RawMessage(formatScore(a.Confidence)),
		TokensUsed:      a.TokensUsed,
	})
}

// formatScore renders a score with two-digit precision and '.' as the
// decimal separator, locale-independent.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func writeString(buf *bytes.Buffer, key, val string) {
	k, _ := json.Marshal(key)
	v, _ := json.Marshal(val)
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
}

func writeNumber(buf *bytes.Buffer, key string, val float64) {
	k, _ := json.Marshal(key)
	buf.Write(k)
	buf.WriteByte(':')
	buf.WriteString(formatScore(val))
}
