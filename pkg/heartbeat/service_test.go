package heartbeat

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/skiff-ai/skiff/pkg/tools"
)

func TestExecuteHeartbeat_CallsHandler(t *testing.T) {
	tmpDir := t.TempDir()

	hs := NewHeartbeatService(tmpDir, 30, true)
	hs.stopChan = make(chan struct{})

	called := false
	hs.SetHandler(func(prompt, channel, chatID string) *tools.ToolResult {
		called = true
		if prompt == "" {
			t.Error("Expected non-empty prompt")
		}
		if channel != "heartbeat" || chatID != "heartbeat" {
			t.Errorf("Unexpected origin %s:%s", channel, chatID)
		}
		return &tools.ToolResult{ForLLM: "done"}
	})

	os.WriteFile(filepath.Join(tmpDir, "HEARTBEAT.md"), []byte("Test task"), 0644)

	hs.executeHeartbeat()

	if !called {
		t.Error("Expected handler to be called")
	}
}

func TestExecuteHeartbeat_Error(t *testing.T) {
	tmpDir := t.TempDir()

	hs := NewHeartbeatService(tmpDir, 30, true)
	hs.stopChan = make(chan struct{})

	hs.SetHandler(func(prompt, channel, chatID string) *tools.ToolResult {
		return &tools.ToolResult{
			ForLLM:  "Heartbeat failed: connection error",
			IsError: true,
		}
	})

	os.WriteFile(filepath.Join(tmpDir, "HEARTBEAT.md"), []byte("Test task"), 0644)

	hs.executeHeartbeat()

	data, err := os.ReadFile(filepath.Join(tmpDir, "heartbeat.log"))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected log file to contain error message")
	}
}

func TestExecuteHeartbeat_EmptyFileSkips(t *testing.T) {
	tmpDir := t.TempDir()

	hs := NewHeartbeatService(tmpDir, 30, true)
	hs.stopChan = make(chan struct{})

	called := false
	hs.SetHandler(func(prompt, channel, chatID string) *tools.ToolResult {
		called = true
		return nil
	})

	os.WriteFile(filepath.Join(tmpDir, "HEARTBEAT.md"), []byte(""), 0644)

	hs.executeHeartbeat()

	if called {
		t.Error("Handler should not run for an empty HEARTBEAT.md")
	}
}

func TestExecuteHeartbeat_NilResult(t *testing.T) {
	tmpDir := t.TempDir()

	hs := NewHeartbeatService(tmpDir, 30, true)
	hs.stopChan = make(chan struct{})

	hs.SetHandler(func(prompt, channel, chatID string) *tools.ToolResult {
		return nil
	})

	os.WriteFile(filepath.Join(tmpDir, "HEARTBEAT.md"), []byte("Test task"), 0644)

	// Should not panic with nil result.
	hs.executeHeartbeat()
}

func TestHeartbeatService_StartStop(t *testing.T) {
	hs := NewHeartbeatService(t.TempDir(), 1, true)

	if err := hs.Start(); err != nil {
		t.Fatalf("Failed to start heartbeat service: %v", err)
	}

	hs.Stop()
	time.Sleep(50 * time.Millisecond)
}

func TestHeartbeatService_ConcurrentStop(t *testing.T) {
	hs := NewHeartbeatService(t.TempDir(), 1, true)

	if err := hs.Start(); err != nil {
		t.Fatalf("Failed to start heartbeat service: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hs.Stop()
		}()
	}
	wg.Wait()

	// The service must be restartable after a full stop.
	if err := hs.Start(); err != nil {
		t.Fatalf("Restart after stop failed: %v", err)
	}
	hs.Stop()
}

func TestHeartbeatService_Disabled(t *testing.T) {
	hs := NewHeartbeatService(t.TempDir(), 1, false)

	if hs.enabled {
		t.Error("Expected service to be disabled")
	}
	if err := hs.Start(); err != nil {
		t.Errorf("Disabled service should start as a no-op, got %v", err)
	}
	if hs.stopChan != nil {
		t.Error("Disabled service should not launch the loop")
	}
}

func TestBuildPrompt_CreatesTemplate(t *testing.T) {
	tmpDir := t.TempDir()

	hs := NewHeartbeatService(tmpDir, 30, true)

	if prompt := hs.buildPrompt(); prompt != "" {
		t.Errorf("Fresh template should yield empty prompt, got %q", prompt)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "HEARTBEAT.md")); os.IsNotExist(err) {
		t.Error("Expected HEARTBEAT.md to be created at workspace root")
	}
}
