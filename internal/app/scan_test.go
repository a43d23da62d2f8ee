package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adspot/adspot/pkg/trigger"
	"github.com/adspot/adspot/pkg/window"
)

func TestPrintScan(t *testing.T) {
	tc := trigger.Config{TargetExecutable: "spotify.exe", TriggerTitle: "Advertisement"}
	snapshot := []window.Window{
		{Title: "Inbox - Mail", ProcessName: "mail.exe"},
		{Title: "Advertisement", ProcessName: "Spotify.exe"},
		{Title: "Untitled", ProcessName: ""},
	}

	var buf bytes.Buffer
	printScan(&buf, "fake", snapshot, tc, false)
	out := buf.String()

	assert.Contains(t, out, "Inspector: fake (3 windows)")
	assert.Contains(t, out, "Spotify.exe")
	assert.NotContains(t, out, "mail.exe")
	assert.Contains(t, out, `Trigger ACTIVE: "Advertisement" (Spotify.exe)`)

	buf.Reset()
	printScan(&buf, "fake", snapshot, tc, true)
	assert.Contains(t, buf.String(), "mail.exe")
	assert.Contains(t, buf.String(), "(unknown)")
}

func TestPrintScanInactive(t *testing.T) {
	tc := trigger.Config{TargetExecutable: "spotify.exe", TriggerTitle: "Advertisement"}

	var buf bytes.Buffer
	printScan(&buf, "fake", []window.Window{{Title: "advertisement", ProcessName: "spotify.exe"}}, tc, false)

	assert.Contains(t, buf.String(), "Trigger inactive")
}

func TestPrintScanNoTargetWindows(t *testing.T) {
	tc := trigger.Config{TargetExecutable: "spotify.exe", TriggerTitle: "Advertisement"}

	var buf bytes.Buffer
	printScan(&buf, "fake", nil, tc, false)

	assert.Contains(t, buf.String(), "No windows owned by spotify.exe.")
}
