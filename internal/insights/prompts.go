package insights

import (
	"strings"
	"text/template"
)

const insightsPrompt = `You are an AI assistant providing insights based on dashboard metrics.

Summarize the key metrics provided and suggest actionable steps based on the insights.

Metrics: {{.Metrics}}
`

const suggestionsPrompt = `You are an AI assistant designed to provide actionable suggestions based on key metrics and summaries.

Based on the following key metrics: {{.KeyMetrics}}
And the following summary: {{.Summary}}

Suggest actions that the user should take to improve the metrics. Be specific and provide clear steps.
`

var (
	insightsTmpl    = template.Must(template.New("insights").Option("missingkey=error").Parse(insightsPrompt))
	suggestionsTmpl = template.Must(template.New("suggestions").Option("missingkey=error").Parse(suggestionsPrompt))
)

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

var insightsSchema = &Schema{
	Type: "OBJECT",
	Properties: map[string]*Schema{
		"summary":          {Type: "STRING", Description: "A concise summary of the key metrics."},
		"suggestedActions": {Type: "STRING", Description: "Suggested actions based on the insights derived from the metrics."},
	},
	Required: []string{"summary", "suggestedActions"},
}

var suggestionsSchema = &Schema{
	Type: "OBJECT",
	Properties: map[string]*Schema{
		"suggestions": {Type: "STRING", Description: "AI-driven suggestions on actions to take."},
	},
	Required: []string{"suggestions"},
}

// suggestionsSafety applies to the suggestions flow only.
var suggestionsSafety = []SafetySetting{
	{Category: HarmHateSpeech, Threshold: BlockOnlyHigh},
	{Category: HarmDangerousContent, Threshold: BlockNone},
	{Category: HarmHarassment, Threshold: BlockMediumAndAbove},
	{Category: HarmSexuallyExplicit, Threshold: BlockLowAndAbove},
}
