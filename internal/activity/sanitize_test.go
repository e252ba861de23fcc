package activity

import "testing"

func TestSanitizeBody(t *testing.T) {
	body := map[string]any{
		"email":    "jane@example.com",
		"password": "hunter2",
		"Token":    "abc123",
		"profile": map[string]any{
			"pin":  "0000",
			"name": "Jane",
		},
	}

	out := SanitizeBody(body)

	if out["email"] != "jane@example.com" {
		t.Errorf("email = %v, want unchanged", out["email"])
	}
	if out["password"] != "[REDACTED]" {
		t.Errorf("password = %v, want redacted", out["password"])
	}
	if out["Token"] != "[REDACTED]" {
		t.Errorf("Token = %v, want redacted (case-insensitive)", out["Token"])
	}

	profile, ok := out["profile"].(map[string]any)
	if !ok {
		t.Fatalf("profile = %T, want map", out["profile"])
	}
	if profile["pin"] != "[REDACTED]" {
		t.Errorf("nested pin = %v, want redacted", profile["pin"])
	}
	if profile["name"] != "Jane" {
		t.Errorf("nested name = %v, want unchanged", profile["name"])
	}

	// Input must not be mutated
	if body["password"] != "hunter2" {
		t.Error("SanitizeBody mutated its input")
	}
	if body["profile"].(map[string]any)["pin"] != "0000" {
		t.Error("SanitizeBody mutated a nested map")
	}
}

func TestSanitizeBodyNil(t *testing.T) {
	if out := SanitizeBody(nil); out != nil {
		t.Errorf("SanitizeBody(nil) = %v, want nil", out)
	}
}
