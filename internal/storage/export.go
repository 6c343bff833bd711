package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	RunMetadata
	Columns map[string][]float64 `json:"columns"`
}

// WriteJSON writes a run's metadata and every trace column as one JSON
// document.
func WriteJSON(w io.Writer, meta *RunMetadata, tr *Trace) error {
	data := ExportData{
		RunMetadata: *meta,
		Columns:     make(map[string][]float64, len(tr.Header)),
	}
	for _, h := range tr.Header {
		col, err := tr.Column(h)
		if err != nil {
			return err
		}
		data.Columns[h] = col
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, meta *RunMetadata, tr *Trace) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, meta, tr)
}

// CopyTrace streams a run's trace.csv to w.
func (s *Store) CopyTrace(w io.Writer, runID string) error {
	f, err := os.Open(s.TracePath(runID))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
