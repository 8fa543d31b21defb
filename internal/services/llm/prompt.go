package llm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/precis/internal/models"
)

// Length targets for the summarization prompt
var lengthInstructions = map[models.SummaryLength]string{
	models.SummaryLengthBrief:    "2-3 sentences capturing only the central finding or argument",
	models.SummaryLengthStandard: "one to two paragraphs covering the main argument, methods, and findings",
	models.SummaryLengthDetailed: "three to five paragraphs covering background, methods, findings, and implications",
}

const systemPrompt = `You are a research assistant that writes precise summaries of academic and technical documents. Summarize the document text provided by the user. Write in plain prose without headings or bullet points. After the summary, on a final separate line, state your confidence that the summary faithfully represents the document as "Confidence: N" where N is a number between 0 and 1.`

// confidenceLineRe matches the trailing confidence line emitted by the model
var confidenceLineRe = regexp.MustCompile(`(?i)\n?\s*confidence:\s*([0-9]*\.?[0-9]+)\s*$`)

// buildUserPrompt composes the per-document summarization request
func buildUserPrompt(text string, length models.SummaryLength) string {
	instruction, ok := lengthInstructions[length]
	if !ok {
		instruction = lengthInstructions[models.SummaryLengthStandard]
	}
	return fmt.Sprintf("Summarize the following document in %s.\n\n---\n\n%s", instruction, text)
}

// parseConfidence strips the trailing confidence line from the model output.
// Returns the cleaned summary and the reported score, or -1 when the model
// gave no parseable score. Scores are reported raw; callers clamp.
func parseConfidence(output string) (string, float64) {
	match := confidenceLineRe.FindStringSubmatchIndex(output)
	if match == nil {
		return strings.TrimSpace(output), -1
	}

	scoreText := output[match[2]:match[3]]
	score, err := strconv.ParseFloat(scoreText, 64)
	if err != nil {
		return strings.TrimSpace(output), -1
	}

	return strings.TrimSpace(output[:match[0]]), score
}
