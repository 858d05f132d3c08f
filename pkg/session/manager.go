package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/skiff-ai/skiff/pkg/providers"
)

// Message is one stored conversation entry. Tool plumbing fields are
// kept so a session file is a complete record of the turn, but the
// history projection handed to the model carries role and content only.
type Message struct {
	Role       string               `json:"role"`
	Content    string               `json:"content"`
	Timestamp  time.Time            `json:"timestamp"`
	ToolCalls  []providers.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string               `json:"tool_call_id,omitempty"`
}

type Session struct {
	Key      string                 `json:"key"`
	Messages []Message              `json:"-"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Created  time.Time              `json:"created"`
	Updated  time.Time              `json:"updated"`
}

// metadataRecord is the first line of a session file.
type metadataRecord struct {
	Type     string                 `json:"_type"`
	Key      string                 `json:"key"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Created  time.Time              `json:"created"`
	Updated  time.Time              `json:"updated"`
}

// Manager keeps one Session object per key for the lifetime of the
// process and persists each session as a JSONL file: one metadata
// record followed by one record per message.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	storage  string
}

func NewManager(storage string) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		storage:  storage,
	}

	if storage != "" {
		os.MkdirAll(storage, 0755)
		m.loadSessions()
	}

	return m
}

// GetOrCreate returns the session for key, creating it on first touch.
// Repeated calls with the same key return the same object.
func (m *Manager) GetOrCreate(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[key]
	if ok {
		return session
	}

	now := time.Now()
	session = &Session{
		Key:      key,
		Messages: []Message{},
		Created:  now,
		Updated:  now,
	}
	m.sessions[key] = session

	return session
}

func (m *Manager) AddMessage(key, role, content string) {
	m.AddFullMessage(key, Message{
		Role:    role,
		Content: content,
	})
}

// AddFullMessage appends a complete message including tool calls and
// tool call ID, preserving the full conversation flow.
func (m *Manager) AddFullMessage(key string, msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[key]
	if !ok {
		session = &Session{
			Key:      key,
			Messages: []Message{},
			Created:  time.Now(),
		}
		m.sessions[key] = session
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	session.Messages = append(session.Messages, msg)
	session.Updated = time.Now()
}

// History returns up to max most recent messages projected to the
// role/content form the model consumes. max <= 0 returns everything.
func (m *Manager) History(key string, max int) []providers.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[key]
	if !ok {
		return []providers.Message{}
	}

	msgs := session.Messages
	if max > 0 && len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}

	history := make([]providers.Message, 0, len(msgs))
	for _, msg := range msgs {
		history = append(history, providers.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return history
}

func (m *Manager) SetMetadata(key, field string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[key]
	if !ok {
		return
	}
	if session.Metadata == nil {
		session.Metadata = make(map[string]interface{})
	}
	session.Metadata[field] = value
	session.Updated = time.Now()
}

// Clear drops all messages of a session, keeping the session object.
func (m *Manager) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[key]
	if !ok {
		return
	}
	session.Messages = []Message{}
	session.Updated = time.Now()
}

// sanitizeFilename converts a session key into a cross-platform safe
// filename. Keys use "channel:chatID" but ':' is the volume separator
// on Windows, so it is replaced with '_'. The original key is kept in
// the metadata record, so loadSessions maps back to the right key.
func sanitizeFilename(key string) string {
	return strings.ReplaceAll(key, ":", "_")
}

// Save writes the session to storage via a temp file and atomic rename
// so readers never observe a partially written file.
func (m *Manager) Save(key string) error {
	if m.storage == "" {
		return nil
	}

	filename := sanitizeFilename(key)

	// filepath.IsLocal rejects empty names, "..", absolute paths and
	// OS-reserved device names. The extra checks reject "." and any
	// directory separators so the file always lands inside m.storage.
	if filename == "." || !filepath.IsLocal(filename) || strings.ContainsAny(filename, `/\`) {
		return os.ErrInvalid
	}

	// Snapshot under read lock, then do slow file I/O after unlock.
	m.mu.RLock()
	stored, ok := m.sessions[key]
	if !ok {
		m.mu.RUnlock()
		return nil
	}

	meta := metadataRecord{
		Type:    "metadata",
		Key:     stored.Key,
		Created: stored.Created,
		Updated: stored.Updated,
	}
	if len(stored.Metadata) > 0 {
		meta.Metadata = make(map[string]interface{}, len(stored.Metadata))
		for k, v := range stored.Metadata {
			meta.Metadata[k] = v
		}
	}
	messages := make([]Message, len(stored.Messages))
	copy(messages, stored.Messages)
	m.mu.RUnlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(meta); err != nil {
		return err
	}
	for _, msg := range messages {
		if err := enc.Encode(msg); err != nil {
			return err
		}
	}

	sessionPath := filepath.Join(m.storage, filename+".jsonl")
	tmpFile, err := os.CreateTemp(m.storage, "session-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(buf.Bytes()); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(0644); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, sessionPath); err != nil {
		return err
	}
	cleanup = false
	return nil
}

func (m *Manager) loadSessions() error {
	files, err := os.ReadDir(m.storage)
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".jsonl" {
			continue
		}

		session, err := readSessionFile(filepath.Join(m.storage, file.Name()))
		if err != nil || session == nil {
			continue
		}
		m.sessions[session.Key] = session
	}

	return nil
}

func readSessionFile(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	session := &Session{Messages: []Message{}}
	first := true
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if first {
			first = false
			var meta metadataRecord
			if err := json.Unmarshal(line, &meta); err == nil && meta.Type == "metadata" {
				session.Key = meta.Key
				session.Metadata = meta.Metadata
				session.Created = meta.Created
				session.Updated = meta.Updated
				continue
			}
			// No metadata record. Fall through and treat it as a message.
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		session.Messages = append(session.Messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if session.Key == "" {
		return nil, nil
	}
	return session, nil
}
