package querystate

import (
	"errors"
	"testing"
)

type planRoute struct {
	ID      string `query:"id"`
	Title   string
	Hidden  string `query:"-"`
	Count   int    `query:"count"`
	Payload string `query:"p" query.role:"payload"`
	Done    string `query:"cb" query.role:"callback"`
}

func TestBuildPlans_Keys(t *testing.T) {
	plans, err := getOrBuildPlans[planRoute]()
	if err != nil {
		t.Fatalf("getOrBuildPlans() error: %v", err)
	}

	if _, ok := plans.byKey["id"]; !ok {
		t.Error("tagged key \"id\" missing from plans")
	}
	if _, ok := plans.byKey["title"]; !ok {
		t.Error("untagged field should use lowercase name \"title\"")
	}
	if _, ok := plans.byKey["hidden"]; ok {
		t.Error("query:\"-\" field should be excluded")
	}
	if plans.encodedField != "p" {
		t.Errorf("encodedField = %q, want %q", plans.encodedField, "p")
	}
	if plans.callbackField != "cb" {
		t.Errorf("callbackField = %q, want %q", plans.callbackField, "cb")
	}

	idx := plans.byKey["count"]
	if plans.fields[idx].isText {
		t.Error("int field should not be text")
	}
}

func TestBuildPlans_Cached(t *testing.T) {
	p1, err := getOrBuildPlans[planRoute]()
	if err != nil {
		t.Fatalf("getOrBuildPlans() error: %v", err)
	}
	p2, err := getOrBuildPlans[planRoute]()
	if err != nil {
		t.Fatalf("getOrBuildPlans() error: %v", err)
	}
	if p1 != p2 {
		t.Error("plans should be cached per type")
	}
}

type badRoleRoute struct {
	ID string `query:"id" query.role:"carrier"`
}

func TestBuildPlans_UnknownRole(t *testing.T) {
	_, err := getOrBuildPlans[badRoleRoute]()
	if err == nil {
		t.Fatal("unknown role tag should fail")
	}
	if !errors.Is(err, ErrUnknownRole) {
		t.Errorf("error = %v, want ErrUnknownRole", err)
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
	if cfgErr.Value != "carrier" {
		t.Errorf("ConfigError.Value = %q, want %q", cfgErr.Value, "carrier")
	}
}

type badCarrierRoute struct {
	Blob []byte `query:"blob" query.role:"payload"`
}

func TestBuildPlans_OpaqueCarrier(t *testing.T) {
	_, err := getOrBuildPlans[badCarrierRoute]()
	if !errors.Is(err, ErrNotText) {
		t.Errorf("error = %v, want ErrNotText", err)
	}
}

type independentRoute struct {
	ID string `query:"id"`
}

func TestBuildPlans_FailureIsPerType(t *testing.T) {
	if _, err := getOrBuildPlans[badCarrierRoute](); err == nil {
		t.Fatal("expected classification failure")
	}

	// Another type classifies cleanly despite the failure above.
	plans, err := getOrBuildPlans[independentRoute]()
	if err != nil {
		t.Fatalf("getOrBuildPlans() error: %v", err)
	}
	if plans.typeName == "" {
		t.Error("typeName should be populated")
	}
}
