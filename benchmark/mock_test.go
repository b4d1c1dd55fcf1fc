package benchmark

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/detbench/inference"
)

// mockDetector returns scripted detections keyed by image file name.
type mockDetector struct {
	mu         sync.Mutex
	detections map[string][]inference.RawDetection
	failures   map[string]error
	panics     map[string]bool
	inferred   []string
	closed     bool
	// onInfer runs after an image is recorded, before its result is returned.
	onInfer func(name string)
}

func newMockDetector() *mockDetector {
	return &mockDetector{
		detections: map[string][]inference.RawDetection{},
		failures:   map[string]error{},
		panics:     map[string]bool{},
	}
}

// withConfidences scripts one detection per confidence for image name.
func (m *mockDetector) withConfidences(name string, confidences ...float32) *mockDetector {
	raw := make([]inference.RawDetection, 0, len(confidences))
	for i, c := range confidences {
		raw = append(raw, inference.NewRawDetection(i, c, [4]float32{10, 20, 30, 40}))
	}
	m.detections[name] = raw
	return m
}

func (m *mockDetector) withFailure(name string, err error) *mockDetector {
	m.failures[name] = err
	return m
}

func (m *mockDetector) Infer(ctx context.Context, imagePath string) ([]inference.RawDetection, error) {
	name := filepath.Base(imagePath)

	m.mu.Lock()
	m.inferred = append(m.inferred, name)
	m.mu.Unlock()

	if m.onInfer != nil {
		m.onInfer(name)
	}
	if m.panics[name] {
		panic("backend crashed")
	}
	if err, ok := m.failures[name]; ok {
		return nil, err
	}
	return m.detections[name], nil
}

func (m *mockDetector) ClassName(classID int) string {
	return inference.COCOClasses.NameOf(classID)
}

func (m *mockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// mockLoader hands out detectors keyed by model file name.
type mockLoader struct {
	mu        sync.Mutex
	detectors map[string]*mockDetector
	failures  map[string]error
	delays    map[string]time.Duration
	loaded    []string
}

func newMockLoader() *mockLoader {
	return &mockLoader{
		detectors: map[string]*mockDetector{},
		failures:  map[string]error{},
		delays:    map[string]time.Duration{},
	}
}

func (l *mockLoader) Load(ctx context.Context, modelPath string) (inference.Detector, error) {
	name := filepath.Base(modelPath)

	l.mu.Lock()
	l.loaded = append(l.loaded, name)
	delay := l.delays[name]
	l.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err, ok := l.failures[name]; ok {
		return nil, err
	}
	if det, ok := l.detectors[name]; ok {
		return det, nil
	}
	return nil, errors.New("no such model")
}

// touch creates empty files in dir.
func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 17, 9, 30, 5, 0, time.UTC)
}
