package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	RunMetadata
	Times  []float64       `json:"times,omitempty"`
	States [][]float64     `json:"states,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Export gathers everything stored for a run into one document.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	data := &ExportData{RunMetadata: *meta}

	if tr, err := s.LoadStates(runID); err == nil {
		data.Times = tr.Times
		data.States = make([][]float64, len(tr.States))
		for i, x := range tr.States {
			data.States[i] = x
		}
	}
	if res, err := s.LoadResult(runID); err == nil {
		data.Result = res
	}
	return data, nil
}

func (s *Store) ExportJSON(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.WriteJSON(file, runID)
}

func (s *Store) WriteJSON(w io.Writer, runID string) error {
	data, err := s.Export(runID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
