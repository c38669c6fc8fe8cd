package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockTranslator mocks a translation backend. It is safe for concurrent use.
type MockTranslator struct {
	// Translations maps source text to a fixed answer
	Translations map[string]string
	// Errors maps source text to an error returned on every call
	Errors map[string]error
	// Script maps source text to errors returned by the first calls, in
	// order, before the text translates normally
	Script map[string][]error
	// Delay is slept on every call
	Delay time.Duration

	mu          sync.Mutex
	calls       []string
	perText     map[string]int
	inFlight    int
	maxInFlight int
}

// Translate mocks translating text. Unknown text translates to
// "[target] text" so shield tokens survive.
func (m *MockTranslator) Translate(ctx context.Context, text, fromLang, toLang string) (string, error) {
	m.mu.Lock()
	if m.perText == nil {
		m.perText = make(map[string]int)
	}
	m.calls = append(m.calls, fmt.Sprintf("Translate: %s (%s->%s)", text, fromLang, toLang))
	attempt := m.perText[text+"\x00"+toLang]
	m.perText[text+"\x00"+toLang]++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.Delay):
		}
	}

	if script, ok := m.Script[text]; ok && attempt < len(script) && script[attempt] != nil {
		return "", script[attempt]
	}
	if err, ok := m.Errors[text]; ok {
		return "", err
	}
	if translation, ok := m.Translations[text]; ok {
		return translation, nil
	}

	// Default mock translation
	return fmt.Sprintf("[%s] %s", toLang, text), nil
}

// Calls returns a copy of the recorded calls
func (m *MockTranslator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns the number of calls made for text, over all targets
func (m *MockTranslator) CallCount(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, count := range m.perText {
		if len(key) > len(text) && key[:len(text)] == text && key[len(text)] == 0 {
			n += count
		}
	}
	return n
}

// TotalCalls returns the number of calls made
func (m *MockTranslator) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MaxConcurrent returns the highest number of simultaneous calls observed
func (m *MockTranslator) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}
