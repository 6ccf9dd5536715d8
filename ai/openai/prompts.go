package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/scrubdex/ai"
)

const taggingResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "text": {
            "type": "string"
          },
          "category": {
            "type": "string"
          }
        },
        "required": ["text", "category"],
        "additionalProperties": false
      }
    }
  },
  "required": ["entities"],
  "additionalProperties": false
}`

const taggingPromptTemplate = `Identify every personal name and organization name in the given text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- The text field must be copied exactly as it appears in the input, including capitalization.
- Category must be exactly one of: %s.
- Do not tag placeholders in square brackets such as [NAME], [EMAIL], [PHONE] or [COMPANY].
- Do not tag job titles, places, products, or generic nouns.
- If no entities are present, return "entities": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "Maria Lopez met the team from Initech in Berlin."
Output:
{
  "entities": [
    {"text":"Maria Lopez","category":"PERSON"},
    {"text":"Initech","category":"ORGANIZATION"}
  ]
}

Example (informal):
Input: "ping raj about the invoice"
Output:
{
  "entities": [
    {"text":"raj","category":"PERSON"}
  ]
}

Example (nothing to tag):
Input: "Contact [NAME] at [EMAIL]"
Output:
{
  "entities": []
}`

// buildSystemPrompt creates the system prompt with entity categories embedded.
func buildSystemPrompt() string {
	categories := make([]string, len(ai.EntityCategories))
	for i, c := range ai.EntityCategories {
		categories[i] = string(c)
	}
	return fmt.Sprintf(taggingPromptTemplate,
		taggingResponseSchema,
		strings.Join(categories, ", "))
}
