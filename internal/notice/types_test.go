package notice

import (
	"strings"
	"testing"
)

func TestStatusEditable(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusDraft, true},
		{StatusPendingReview, true},
		{StatusSent, false},
		{StatusAcknowledged, false},
	}

	for _, tt := range tests {
		if got := tt.status.Editable(); got != tt.want {
			t.Errorf("%s.Editable() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestCanonicalMethodKey(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"EMAIL", "email"},
		{"CERTIFIED_MAIL", "certifiedMail"},
		{"REGISTERED_MAIL", "registeredMail"},
		{"HAND_DELIVERY", "handDelivery"},
		{"FAX", "fax"},
		{"COURIER", "courier"},
		{"PIGEON", ""},
		{"email", ""},
	}

	for _, tt := range tests {
		if got := CanonicalMethodKey(tt.method); got != tt.want {
			t.Errorf("CanonicalMethodKey(%q) = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestStateErrorNamesStatus(t *testing.T) {
	err := &StateError{Op: "send", Status: StatusSent}
	if !strings.Contains(err.Error(), "SENT") {
		t.Errorf("state error should name the current status: %s", err.Error())
	}
	if !strings.Contains(err.Error(), "send") {
		t.Errorf("state error should name the operation: %s", err.Error())
	}
}

func TestDisplayType(t *testing.T) {
	tests := []struct {
		in   Type
		want string
	}{
		{TypeChangeOrder, "Change Order Notice"},
		{TypeClaim, "Claim Notice"},
		{TypeDifferingSiteCondition, "Differing Site Condition"},
	}

	for _, tt := range tests {
		if got := displayType(tt.in); got != tt.want {
			t.Errorf("displayType(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidType(t *testing.T) {
	for _, v := range []string{
		"CHANGE_ORDER_NOTICE", "CLAIM_NOTICE", "DELAY_NOTICE",
		"DIFFERING_SITE_CONDITION", "FORCE_MAJEURE_NOTICE",
		"CURE_NOTICE", "TERMINATION_NOTICE", "GENERAL_NOTICE",
	} {
		if !ValidType(v) {
			t.Errorf("ValidType(%s) = false", v)
		}
	}
	if ValidType("MEMO") {
		t.Error("unknown notice type accepted")
	}
}
