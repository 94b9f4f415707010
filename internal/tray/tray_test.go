package tray

import "testing"

func TestTray_RemembersStatusBeforeReady(t *testing.T) {
	tr := New()

	// The menu does not exist yet; the value must still be recorded so
	// onReady can seed the menu item with it.
	tr.SetStatus("ready")

	if got := tr.Status(); got != "ready" {
		t.Errorf("Status() = %q, want %q", got, "ready")
	}
}

func TestTray_RemembersLastExpressionBeforeReady(t *testing.T) {
	tr := New()

	tr.SetLastExpression("jaw drop")

	if got := tr.LastExpression(); got != "jaw drop" {
		t.Errorf("LastExpression() = %q, want %q", got, "jaw drop")
	}
}

func TestTray_LastTitle(t *testing.T) {
	if got := lastTitle(""); got != "Last: none" {
		t.Errorf("lastTitle(\"\") = %q, want %q", got, "Last: none")
	}
	if got := lastTitle("wink"); got != "Last: wink" {
		t.Errorf("lastTitle(\"wink\") = %q, want %q", got, "Last: wink")
	}
}

func TestTray_StartsEnabled(t *testing.T) {
	tr := New()

	if !tr.IsEnabled() {
		t.Error("new tray should start enabled")
	}
}
