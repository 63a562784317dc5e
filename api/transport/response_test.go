package transport

import (
	"encoding/json"
	"testing"
)

func TestErrorEnvelopeShape(t *testing.T) {
	env := NewError("NOT_FOUND", "task not found", nil)

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}

	if string(decoded["status"]) != `"error"` {
		t.Fatalf("status = %s", decoded["status"])
	}
	var body ErrorBody
	if err := json.Unmarshal(decoded["error"], &body); err != nil {
		t.Fatalf("error field not an object: %v", err)
	}
	if body.Code != "NOT_FOUND" || body.Message != "task not found" {
		t.Fatalf("error body = %+v", body)
	}
	if _, ok := decoded["data"]; ok {
		t.Fatal("error envelope should omit data")
	}
}

func TestSuccessEnvelopeOmitsError(t *testing.T) {
	raw, err := json.Marshal(NewSuccess(map[string]int{"flipped": 2}, nil))
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["error"]; ok {
		t.Fatal("success envelope should omit error")
	}
	if string(decoded["status"]) != `"success"` {
		t.Fatalf("status = %s", decoded["status"])
	}
}
