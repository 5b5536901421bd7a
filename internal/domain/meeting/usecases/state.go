package usecases

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"syscall"

	"github.com/alex4udak-blip/HR-bot--sub007/internal/domain/meeting"
)

var (
	ErrNoActiveRecording  = errors.New("no active recording found")
	ErrAmbiguousRecording = errors.New("more than one recording is running, pass --call-id with a call id or a key from list")
)

var unsafeKey = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// StateStore keeps one JSON file per running job in Dir.
type StateStore struct {
	Dir string
}

// jobName is the call id made safe for file and object names, or the run
// id when no call id was given.
func jobName(callID, runID string) string {
	if callID != "" {
		return unsafeKey.ReplaceAllString(callID, "_")
	}
	return runID
}

// stateKey names one run's state file. Runs that share a call id get
// separate files.
func stateKey(callID, runID string) string {
	if callID == "" {
		return runID
	}
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return jobName(callID, "") + "-" + short
}

func (s *StateStore) stateFilePath(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

func (s *StateStore) Write(state *meeting.RecordingState) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	return os.WriteFile(s.stateFilePath(state.Key), data, 0o644)
}

func (s *StateStore) Remove(key string) {
	os.Remove(s.stateFilePath(key))
}

// List returns every recorded job, oldest first. Unreadable files are skipped.
func (s *StateStore) List() ([]meeting.RecordingState, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var states []meeting.RecordingState
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			continue
		}
		var st meeting.RecordingState
		if err := json.Unmarshal(data, &st); err != nil {
			continue
		}
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].StartedAt.Before(states[j].StartedAt)
	})
	return states, nil
}

// Find returns the job with the given call id or key. With an empty id it
// returns the only running job. A call id shared by several running jobs
// is ambiguous; their keys still tell them apart.
func (s *StateStore) Find(id string) (*meeting.RecordingState, error) {
	states, err := s.List()
	if err != nil {
		return nil, err
	}
	if id == "" {
		switch len(states) {
		case 0:
			return nil, ErrNoActiveRecording
		case 1:
			return &states[0], nil
		}
		return nil, ErrAmbiguousRecording
	}
	var found []int
	for i := range states {
		if states[i].Key == id || states[i].CallID == id {
			found = append(found, i)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w for %s", ErrNoActiveRecording, id)
	case 1:
		return &states[found[0]], nil
	}
	return nil, fmt.Errorf("%w for %s", ErrAmbiguousRecording, id)
}

// ListRecordings reports running jobs and clears state left by dead ones.
type ListRecordings struct {
	Store *StateStore
	Alive func(pid int) bool
}

func (l *ListRecordings) Execute() ([]meeting.RecordingState, error) {
	states, err := l.Store.List()
	if err != nil {
		return nil, err
	}
	alive := l.Alive
	if alive == nil {
		alive = processAlive
	}
	live := states[:0]
	for _, st := range states {
		if st.PID > 0 && !alive(st.PID) {
			l.Store.Remove(st.Key)
			continue
		}
		live = append(live, st)
	}
	return live, nil
}

// StopRecording asks a running job to wind down. The job takes its
// signal path: capture is flushed, the browser closed and the state file
// removed by the job itself.
type StopRecording struct {
	Store  *StateStore
	Signal func(pid int) error
}

func (s *StopRecording) Execute(callID string) (*meeting.RecordingState, error) {
	state, err := s.Store.Find(callID)
	if err != nil {
		return nil, err
	}
	if state.PID <= 0 {
		s.Store.Remove(state.Key)
		return nil, ErrNoActiveRecording
	}

	signal := s.Signal
	if signal == nil {
		signal = terminate
	}
	if err := signal(state.PID); err != nil {
		// Process is gone; the state file is stale.
		s.Store.Remove(state.Key)
		return nil, fmt.Errorf("stopping recorder pid %d: %w", state.PID, err)
	}
	return state, nil
}

func terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGTERM)
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
