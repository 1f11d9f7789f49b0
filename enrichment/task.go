package enrichment

import (
	"encoding/json"
	"fmt"
)

// Task asks for one note to be summarized and scored.
type Task struct {
	NoteID  int64  `json:"note_id"`
	Content string `json:"content"`
}

func (t Task) Serialize() ([]byte, error) {
	return json.Marshal(t)
}

func DeserializeTask(data []byte) (Task, error) {
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	if task.NoteID <= 0 {
		return Task{}, fmt.Errorf("decode task: invalid note id %d", task.NoteID)
	}
	return task, nil
}
