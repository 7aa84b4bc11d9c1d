package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/dynlab/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	resultFile   = "result.json"
)

var ErrRunNotFound = errors.New("run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Op         string             `json:"op"`
	System     string             `json:"system"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed,omitempty"`
	Integrator string             `json:"integrator,omitempty"`
	Dt         float64            `json:"dt,omitempty"`
	TSpan      []float64          `json:"t_span,omitempty"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Samples    int                `json:"samples"`
	Dimension  int                `json:"dimension"`
	Truncated  bool               `json:"truncated,omitempty"`
	Note       string             `json:"note,omitempty"`
}

// Run is everything persisted for one analysis. Trajectory and Result are
// both optional.
type Run struct {
	Meta       RunMetadata
	Trajectory *dynamo.Trajectory
	Result     any
}

// Save writes run into a fresh directory and returns its id.
func (s *Store) Save(run Run) (string, error) {
	meta := run.Meta
	prefix := meta.System
	if prefix == "" {
		prefix = "run"
	}
	meta.ID = prefix + "_" + uuid.NewString()
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	if tr := run.Trajectory; tr != nil {
		meta.Samples = tr.Len()
		if tr.Len() > 0 {
			meta.Dimension = len(tr.States[0])
		}
		meta.Truncated = tr.Truncated
	}
	meta.Metrics = finite(meta.Metrics)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if run.Trajectory != nil {
		if err := writeStates(filepath.Join(runDir, statesFile), run.Trajectory); err != nil {
			return "", err
		}
	}
	if run.Result != nil {
		if err := writeJSON(filepath.Join(runDir, resultFile), run.Result); err != nil {
			return "", err
		}
	}
	return meta.ID, nil
}

// finite drops values encoding/json cannot represent.
func finite(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStates(path string, tr *dynamo.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if tr.Len() > 0 {
		header := []string{"time"}
		for i := range tr.States[0] {
			header = append(header, fmt.Sprintf("x%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for i, x := range tr.States {
		row := []string{strconv.FormatFloat(tr.Times[i], 'g', -1, 64)}
		for _, val := range x {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := s.read(runID, metadataFile)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadResult returns the stored operation result verbatim.
func (s *Store) LoadResult(runID string) (json.RawMessage, error) {
	data, err := s.read(runID, resultFile)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// LoadStates reads states.csv back. Rows that fail to parse are skipped.
func (s *Store) LoadStates(runID string) (*dynamo.Trajectory, error) {
	file, err := os.Open(s.path(runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s has no trajectory", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	tr := &dynamo.Trajectory{}
	if len(records) < 2 {
		return tr, nil
	}

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		state := make(dynamo.State, 0, len(record)-1)
		for _, field := range record[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			state = append(state, val)
		}
		tr.Times = append(tr.Times, t)
		tr.States = append(tr.States, state)
	}
	if meta, err := s.Load(runID); err == nil {
		tr.Truncated = meta.Truncated
	}
	return tr, nil
}

func (s *Store) Delete(runID string) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.baseDir, runID))
}

func (s *Store) path(runID, name string) string {
	return filepath.Join(s.baseDir, filepath.Base(runID), name)
}

func (s *Store) read(runID, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(runID, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return data, err
}
