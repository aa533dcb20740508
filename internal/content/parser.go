package content

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"

	"codevid/internal/model"
)

// MalformedError reports generator output that could not be turned
// into a valid tutorial structure.
type MalformedError struct {
	Detail string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed tutorial content: %s", e.Detail)
}

var (
	fenceRe  = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	objectRe = regexp.MustCompile(`\{[\s\S]*\}`)
)

// Parse extracts validated tutorial content from raw generator output.
// The CLI wraps its answer in a JSON envelope whose result field holds
// the model text; that text may itself hide the JSON inside a markdown
// fence or surround it with prose.
func Parse(raw string) (*model.TutorialContent, error) {
	text := raw

	var envelope interface{}
	if err := json.Unmarshal([]byte(raw), &envelope); err == nil {
		if result, err := jsonpath.JsonPathLookup(envelope, "$.result"); err == nil {
			if s, ok := result.(string); ok {
				text = s
			}
		}
	}

	jsonStr := text
	if match := fenceRe.FindStringSubmatch(jsonStr); match != nil {
		jsonStr = match[1]
	}
	if match := objectRe.FindString(jsonStr); match != "" {
		jsonStr = match
	}

	var content model.TutorialContent
	if err := json.Unmarshal([]byte(strings.TrimSpace(jsonStr)), &content); err != nil {
		return nil, &MalformedError{Detail: fmt.Sprintf("output is not valid JSON: %v", err)}
	}

	if content.Title == "" || len(content.Steps) == 0 {
		return nil, &MalformedError{Detail: "missing title or steps"}
	}
	for i, step := range content.Steps {
		if step.Code == "" || step.Explanation == "" || step.Language == "" {
			return nil, &MalformedError{Detail: fmt.Sprintf("step %d is missing code, explanation, or language", i+1)}
		}
	}

	return &content, nil
}
