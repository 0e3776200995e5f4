package batch

import (
	"encoding/json"
	"fmt"
)

type manifestTask struct {
	Index    int      `json:"index"`
	Source   string   `json:"source"`
	Output   string   `json:"output"`
	Vector   string   `json:"vector"`
	TaskSeed int64    `json:"task_seed"`
	Status   string   `json:"status"`
	Error    string   `json:"error,omitempty"`
	Applied  []string `json:"applied,omitempty"`
	Skipped  []string `json:"skipped,omitempty"`
	Failed   []string `json:"failed,omitempty"`
}

// ExportJSON renders the summary as a manifest for downstream labelling.
func (s *Summary) ExportJSON() ([]byte, error) {
	if s.RunID == "" {
		return nil, fmt.Errorf("batch: summary has no run ID")
	}

	tasks := make([]manifestTask, 0, len(s.Results))
	for _, r := range s.Results {
		mt := manifestTask{
			Index:    r.Task.Index,
			Source:   r.Task.Source,
			Output:   r.Task.Output,
			Vector:   r.Task.Vector.String(),
			TaskSeed: r.TaskSeed,
			Status:   "ok",
		}
		if r.Err != nil {
			mt.Status = "failed"
			mt.Error = r.Err.Error()
		}
		for _, o := range r.Report.Outcomes {
			switch {
			case o.Applied():
				mt.Applied = append(mt.Applied, o.Fault.Name())
			case o.Skipped():
				mt.Skipped = append(mt.Skipped, o.Fault.Name())
			default:
				mt.Failed = append(mt.Failed, o.Fault.Name())
			}
		}
		tasks = append(tasks, mt)
	}

	output := struct {
		Version     string         `json:"version"`
		RunID       string         `json:"run_id"`
		MasterSeed  int64          `json:"master_seed"`
		Total       int            `json:"total"`
		Succeeded   int            `json:"succeeded"`
		Tasks       []manifestTask `json:"tasks"`
		GeneratedBy string         `json:"generated_by"`
	}{
		Version:     "1.0",
		RunID:       s.RunID,
		MasterSeed:  s.MasterSeed,
		Total:       len(s.Results),
		Succeeded:   s.Succeeded(),
		Tasks:       tasks,
		GeneratedBy: "crucible fault injection",
	}

	return json.MarshalIndent(output, "", "  ")
}

// WriteManifest writes ExportJSON's output to path.
func (s *Summary) WriteManifest(path string) error {
	data, err := s.ExportJSON()
	if err != nil {
		return err
	}
	return writeFile(path, data, 0o644)
}
