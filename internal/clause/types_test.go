package clause

import "testing"

func TestValidKind(t *testing.T) {
	valid := []string{
		"PAYMENT_TERMS", "CHANGE_ORDER_PROCESS", "CLAIMS_PROCEDURE",
		"DISPUTE_RESOLUTION", "NOTICE_REQUIREMENTS", "RETENTION",
		"WARRANTY", "INSURANCE", "INDEMNIFICATION", "TERMINATION",
		"FORCE_MAJEURE", "LIQUIDATED_DAMAGES", "SCHEDULE", "SAFETY",
		"GENERAL_CONDITIONS", "SUPPLEMENTARY_CONDITIONS",
	}
	for _, k := range valid {
		if !ValidKind(k) {
			t.Errorf("ValidKind(%s) = false", k)
		}
	}

	for _, k := range []string{"", "claims_procedure", "OTHER"} {
		if ValidKind(k) {
			t.Errorf("ValidKind(%s) = true", k)
		}
	}
}

func TestValidDeadlineType(t *testing.T) {
	for _, v := range []string{"CALENDAR_DAYS", "BUSINESS_DAYS", "HOURS"} {
		if !ValidDeadlineType(v) {
			t.Errorf("ValidDeadlineType(%s) = false", v)
		}
	}
	if ValidDeadlineType("WEEKS") {
		t.Error("unknown deadline type accepted")
	}
}

func TestValidNoticeMethod(t *testing.T) {
	for _, v := range []string{"WRITTEN_NOTICE", "CERTIFIED_MAIL", "EMAIL", "HAND_DELIVERY", "REGISTERED_MAIL"} {
		if !ValidNoticeMethod(v) {
			t.Errorf("ValidNoticeMethod(%s) = false", v)
		}
	}
	if ValidNoticeMethod("FAX") {
		t.Error("FAX is a delivery confirmation method, not a clause notice method")
	}
}

func TestHasDeadlineParams(t *testing.T) {
	days := 10
	dt := CalendarDays

	c := &Clause{}
	if c.HasDeadlineParams() {
		t.Error("clause with no params reported as triggerable")
	}

	c.DeadlineDays = &days
	if c.HasDeadlineParams() {
		t.Error("deadline days alone is not enough")
	}

	c.DeadlineType = &dt
	if !c.HasDeadlineParams() {
		t.Error("clause with both params should be triggerable")
	}
}
