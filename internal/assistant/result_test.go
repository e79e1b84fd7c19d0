package assistant

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestResultVariantsExclusive проверяет взаимоисключаемость вариантов результата.
func TestResultVariantsExclusive(t *testing.T) {
	ok := Answered(Answer{Answer: "yes", Confidence: ConfidenceHigh})
	if !ok.Valid() || !ok.Success() {
		t.Fatal("expected valid success result")
	}
	if _, has := ok.Failure(); has {
		t.Fatal("success result must not carry failure")
	}

	failed := Failed(CodeFetchFailed, "db down")
	if !failed.Valid() || failed.Success() {
		t.Fatal("expected valid failure result")
	}
	if _, has := failed.Answer(); has {
		t.Fatal("failure result must not carry answer")
	}
	if failed.ErrorCode() != CodeFetchFailed {
		t.Fatalf("expected fetch_failed, got %s", failed.ErrorCode())
	}

	var zero Result
	if zero.Valid() {
		t.Fatal("zero result must be invalid")
	}
	if _, err := json.Marshal(zero); err == nil {
		t.Fatal("expected error when marshaling zero result")
	}
}

// TestResultMarshalSuccessShape проверяет плоскую форму успешного ответа.
func TestResultMarshalSuccessShape(t *testing.T) {
	result := Answered(Answer{Answer: "You have 2 packs.", Confidence: ConfidenceMedium})

	payload, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded["success"] != true {
		t.Fatalf("expected success=true, got %v", decoded["success"])
	}
	if _, ok := decoded["errorCode"]; ok {
		t.Fatal("success payload must not contain errorCode")
	}
	if citations, ok := decoded["citations"].([]any); !ok || len(citations) != 0 {
		t.Fatalf("expected empty citations array, got %v", decoded["citations"])
	}
	if value, ok := decoded["clarifyingQuestion"]; !ok || value != nil {
		t.Fatalf("expected clarifyingQuestion=null, got %v", value)
	}
}

// TestResultMarshalFailureShape проверяет форму ответа с ошибкой.
func TestResultMarshalFailureShape(t *testing.T) {
	payload, err := json.Marshal(Failed(CodeBudgetExceeded, "AI budget exceeded"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"success":false,"error":"AI budget exceeded","errorCode":"budget_exceeded"}`
	if string(payload) != want {
		t.Fatalf("expected %s, got %s", want, payload)
	}
}

// TestResultUnmarshalSuccess проверяет разбор ответа с цитатами и подсказками.
func TestResultUnmarshalSuccess(t *testing.T) {
	body := `{
		"success": true,
		"answer": "Yes, 4 AA batteries in the drawer.",
		"confidence": "high",
		"citations": [
			{"entityKind": "item", "entityId": "i1", "displayName": "AA batteries", "quantity": 4, "unit": "pcs", "locationId": "l1", "expiryDate": "2027-05-01"},
			{"entityKind": "product", "entityId": "p1", "displayName": "Batteries", "quantity": 4, "unit": null, "locationId": null, "expiryDate": null}
		],
		"suggestions": [{"kind": "restock", "itemId": "i1", "reason": "running low"}],
		"clarifyingQuestion": null
	}`

	var result Result
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	answer, ok := result.Answer()
	if !ok {
		t.Fatal("expected success variant")
	}
	if len(answer.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(answer.Citations))
	}
	item := answer.Citations[0]
	if item.EntityKind != EntityKindItem || item.Unit == nil || *item.Unit != "pcs" {
		t.Fatalf("unexpected item citation: %+v", item)
	}
	if item.ExpiryDate == nil || !item.ExpiryDate.Equal(time.Date(2027, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry date: %v", item.ExpiryDate)
	}
	if answer.Citations[1].EntityKind != EntityKindProduct || answer.Citations[1].LocationID != nil {
		t.Fatalf("unexpected product citation: %+v", answer.Citations[1])
	}
	if len(answer.Suggestions) != 1 || answer.Suggestions[0].Kind != SuggestionRestock {
		t.Fatalf("unexpected suggestions: %+v", answer.Suggestions)
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(encoded), `"expiryDate":"2027-05-01"`) {
		t.Fatalf("expected date-only expiry, got %s", encoded)
	}
}

// TestResultUnmarshalRejectsMalformed проверяет отказ на неразличимых телах.
func TestResultUnmarshalRejectsMalformed(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"answer":"x","confidence":"high"}`,
		`{"success":true,"confidence":"high"}`,
		`{"success":true,"answer":"x","confidence":"certain"}`,
		`{"success":true,"answer":"x","confidence":"low","citations":[{"entityKind":"location"}]}`,
		`{"success":true,"answer":"x","confidence":"low","suggestions":[{"kind":"discard"}]}`,
		`{"success":false,"errorCode":"fetch_failed"}`,
		`{"success":false,"error":"x","errorCode":"teapot"}`,
		`[]`,
		`not json`,
	}

	for _, body := range bodies {
		var result Result
		if err := json.Unmarshal([]byte(body), &result); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
}

// TestResultUnmarshalFailure проверяет разбор бизнес-ошибки.
func TestResultUnmarshalFailure(t *testing.T) {
	var result Result
	if err := json.Unmarshal([]byte(`{"success":false,"error":"not a member","errorCode":"forbidden_household"}`), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	failure, ok := result.Failure()
	if !ok {
		t.Fatal("expected failure variant")
	}
	if failure.ErrorCode != CodeForbiddenHousehold || failure.Error != "not a member" {
		t.Fatalf("unexpected failure: %+v", failure)
	}
}
