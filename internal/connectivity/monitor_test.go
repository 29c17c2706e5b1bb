package connectivity

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMonitor_InitialState(t *testing.T) {
	if NewMonitor(true).Online() != true {
		t.Error("NewMonitor(true).Online() = false")
	}
	if NewMonitor(false).Online() != false {
		t.Error("NewMonitor(false).Online() = true")
	}
}

func TestMonitor_SetNotifiesOnTransition(t *testing.T) {
	m := NewMonitor(false)
	ch := m.Subscribe()
	defer m.Unsubscribe(ch)

	m.Set(true)

	select {
	case tr := <-ch:
		if !tr.Online {
			t.Error("transition.Online = false, want true")
		}
	case <-time.After(time.Second):
		t.Fatal("no transition received")
	}
}

func TestMonitor_SetSameStateIsNoop(t *testing.T) {
	m := NewMonitor(true)
	ch := m.Subscribe()
	defer m.Unsubscribe(ch)

	m.Set(true)

	select {
	case <-ch:
		t.Error("received transition for unchanged state")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMonitor_Unsubscribe(t *testing.T) {
	m := NewMonitor(false)
	ch := m.Subscribe()
	m.Unsubscribe(ch)

	// Channel is closed after unsubscribe
	if _, ok := <-ch; ok {
		t.Error("channel not closed after Unsubscribe")
	}

	// Set after unsubscribe must not panic
	m.Set(true)
}

func waitForState(t *testing.T, m *Monitor, want bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Online() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state never became %v", want)
}

func TestFileMonitor_ReadsInitialState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netstate")
	if err := os.WriteFile(path, []byte("online\n"), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	fm, err := NewFileMonitor(path)
	if err != nil {
		t.Fatalf("NewFileMonitor() failed: %v", err)
	}

	if !fm.Online() {
		t.Error("Online() = false, want true")
	}
}

func TestFileMonitor_MissingFileIsOffline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netstate")

	fm, err := NewFileMonitor(path)
	if err != nil {
		t.Fatalf("NewFileMonitor() failed: %v", err)
	}

	if fm.Online() {
		t.Error("Online() = true for missing file, want false")
	}
}

func TestFileMonitor_TracksFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netstate")
	if err := os.WriteFile(path, []byte("offline\n"), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	fm, err := NewFileMonitor(path)
	if err != nil {
		t.Fatalf("NewFileMonitor() failed: %v", err)
	}
	if err := fm.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer fm.Stop()

	if err := os.WriteFile(path, []byte("online\n"), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	waitForState(t, fm.Monitor, true)

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	waitForState(t, fm.Monitor, false)
}
