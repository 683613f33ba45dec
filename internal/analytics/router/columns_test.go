package router

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

func TestColumnHelpers(t *testing.T) {
	if got := text("  buffet "); !got.Valid || got.StringVal != "buffet" {
		t.Fatalf("text trimmed to %+v", got)
	}
	if text("   ").Valid {
		t.Fatal("blank text should be null")
	}
	if id(uuid.Nil).Valid {
		t.Fatal("nil uuid should be null")
	}
	if got := date("2026-10-03"); !got.Valid || got.Date != (civil.Date{Year: 2026, Month: 10, Day: 3}) {
		t.Fatalf("unexpected date %+v", got)
	}
	if date("10/03/2026").Valid {
		t.Fatal("non ISO date should be null")
	}
}

func TestDocumentCompactsPayload(t *testing.T) {
	got := document(json.RawMessage("{\n  \"guestCount\": 80,\n  \"serviceType\": \"buffet\"\n}"))
	if !got.Valid || got.JSONVal != `{"guestCount":80,"serviceType":"buffet"}` {
		t.Fatalf("unexpected document %+v", got)
	}
}
