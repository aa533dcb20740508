package content

import (
	"encoding/json"
	"errors"
	"testing"
)

const validTutorial = `{"title":"Slices in Go","steps":[{"code":"s := []int{1,2,3}","explanation":"We declare a slice literal.","language":"go"}]}`

func TestParseBareJSON(t *testing.T) {
	got, err := Parse(validTutorial)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Title != "Slices in Go" || len(got.Steps) != 1 {
		t.Fatalf("unexpected content: %+v", got)
	}
}

func TestParseUnwrapsCLIEnvelope(t *testing.T) {
	envelope, _ := json.Marshal(map[string]interface{}{
		"type":   "result",
		"result": validTutorial,
	})
	got, err := Parse(string(envelope))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Title != "Slices in Go" {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestParseStripsMarkdownFence(t *testing.T) {
	raw := "Here is your tutorial:\n```json\n" + validTutorial + "\n```\nEnjoy!"
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got.Steps) != 1 {
		t.Fatalf("steps = %d, want 1", len(got.Steps))
	}
}

func TestParseExtractsObjectFromProse(t *testing.T) {
	raw := "Sure! " + validTutorial + ""
	if _, err := Parse(raw); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not json at all")
	var mErr *MalformedError
	if !errors.As(err, &mErr) {
		t.Fatalf("expected *MalformedError, got %v", err)
	}
}

func TestParseRejectsMissingTitle(t *testing.T) {
	_, err := Parse(`{"steps":[{"code":"x","explanation":"y","language":"go"}]}`)
	var mErr *MalformedError
	if !errors.As(err, &mErr) {
		t.Fatalf("expected *MalformedError, got %v", err)
	}
}

func TestParseRejectsEmptySteps(t *testing.T) {
	_, err := Parse(`{"title":"Empty","steps":[]}`)
	if err == nil {
		t.Fatal("expected error for empty steps")
	}
}

func TestParseRejectsIncompleteStep(t *testing.T) {
	_, err := Parse(`{"title":"Partial","steps":[{"code":"x","language":"go"}]}`)
	var mErr *MalformedError
	if !errors.As(err, &mErr) {
		t.Fatalf("expected *MalformedError, got %v", err)
	}
	if mErr.Detail == "" {
		t.Fatal("detail missing")
	}
}
