package notify

import (
	"strings"
	"testing"
)

func TestBuildMessageKnownStatus(t *testing.T) {
	msg := buildMessage("Taller Test", Event{
		Type:         EventRepairStatus,
		EntityNumber: "OR-2401-0002",
		Status:       "REPAIRED",
		Recipient:    Recipient{Name: "maría lópez"},
	}, "http://public.example/portal/CL-XXXX")

	if !strings.Contains(msg.Body, "María López") {
		t.Fatalf("expected title-cased name in body: %s", msg.Body)
	}
	if !strings.Contains(msg.Body, "reparado") {
		t.Fatalf("expected status specific copy: %s", msg.Body)
	}
}

func TestBuildMessageUnknownStatusFallsBack(t *testing.T) {
	msg := buildMessage("Taller Test", Event{
		Type:         EventRepairStatus,
		EntityNumber: "OR-2401-0003",
		Status:       "SOMETHING_NEW",
		Recipient:    Recipient{Name: "ana"},
	}, "")

	if !strings.Contains(msg.Body, "cambió de estado") {
		t.Fatalf("expected generic fallback copy, got: %s", msg.Body)
	}
}

func TestBuildMessageWelcomeIncludesTokenAndPortal(t *testing.T) {
	portal := "http://public.example/portal/CL-ABCD1234"
	msg := buildMessage("Taller Test", Event{
		Type:      EventWelcome,
		Token:     "CL-ABCD1234",
		Recipient: Recipient{Name: "luis"},
	}, portal)

	if !strings.Contains(msg.Body, "CL-ABCD1234") || !strings.Contains(msg.Body, portal) {
		t.Fatalf("welcome body must include token and portal url: %s", msg.Body)
	}
}
