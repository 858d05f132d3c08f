package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps the agent's persistent memory under
// <workspace>/memory: long-term facts in profile.json, short-term
// session logs as daily notes at YYYYMM/YYYYMMDD.md.
type MemoryStore struct {
	mu          sync.RWMutex
	memoryDir   string
	profilePath string
}

func NewMemoryStore(workspace string) *MemoryStore {
	memoryDir := filepath.Join(workspace, "memory")
	os.MkdirAll(memoryDir, 0755)

	return &MemoryStore{
		memoryDir:   memoryDir,
		profilePath: filepath.Join(memoryDir, "profile.json"),
	}
}

func (ms *MemoryStore) dailyNotePath(day time.Time) string {
	date := day.Format("20060102")
	return filepath.Join(ms.memoryDir, date[:6], date+".md")
}

// Profile returns the long-term key/value facts. Missing or unreadable
// files yield an empty profile.
func (ms *MemoryStore) Profile() map[string]string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.readProfileLocked()
}

func (ms *MemoryStore) readProfileLocked() map[string]string {
	profile := make(map[string]string)
	if data, err := os.ReadFile(ms.profilePath); err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &profile)
	}
	return profile
}

func (ms *MemoryStore) writeProfileLocked(profile map[string]string) error {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return os.WriteFile(ms.profilePath, data, 0644)
}

// WriteProfileKey sets or replaces one fact in the profile.
func (ms *MemoryStore) WriteProfileKey(key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	profile := ms.readProfileLocked()
	profile[key] = value
	return ms.writeProfileLocked(profile)
}

// DeleteProfileKey removes a fact. Deleting an absent key is a no-op.
func (ms *MemoryStore) DeleteProfileKey(key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	profile := ms.readProfileLocked()
	if _, ok := profile[key]; !ok {
		return nil
	}
	delete(profile, key)
	return ms.writeProfileLocked(profile)
}

// AppendDailyNote appends a line to today's note, creating the file
// with a date header when it is the first entry of the day.
func (ms *MemoryStore) AppendDailyNote(content string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	path := ms.dailyNotePath(now)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	existing, _ := os.ReadFile(path)
	var body string
	if len(existing) == 0 {
		body = fmt.Sprintf("# %s\n\n%s", now.Format("2006-01-02"), content)
	} else {
		body = string(existing) + "\n" + content
	}
	return os.WriteFile(path, []byte(body), 0644)
}

// RecentDailyNotes returns the notes of the last n days, newest first,
// joined with a "---" separator. Days without a note are skipped.
func (ms *MemoryStore) RecentDailyNotes(n int) string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var notes []string
	for i := 0; i < n; i++ {
		path := ms.dailyNotePath(time.Now().AddDate(0, 0, -i))
		if data, err := os.ReadFile(path); err == nil {
			notes = append(notes, string(data))
		}
	}
	return joinSections(notes)
}

// MemoryContext renders profile and recent notes as a markdown block
// for the system prompt. Empty when there is nothing to report.
func (ms *MemoryStore) MemoryContext() string {
	var parts []string

	profile := ms.Profile()
	if len(profile) > 0 {
		keys := make([]string, 0, len(profile))
		for k := range profile {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		section := "## Core Profile (Facts & Preferences)\n\n"
		for _, k := range keys {
			section += fmt.Sprintf("- **%s**: %s\n", k, profile[k])
		}
		parts = append(parts, section)
	}

	if notes := ms.RecentDailyNotes(3); notes != "" {
		parts = append(parts, "## Recent Daily Notes\n\n"+notes)
	}

	if len(parts) == 0 {
		return ""
	}
	return "# Memory\n\n" + joinSections(parts)
}

func joinSections(parts []string) string {
	var out string
	for i, p := range parts {
		if i > 0 {
			out += "\n\n---\n\n"
		}
		out += p
	}
	return out
}
