package models

// OppTask is a checklist item on an opportunity.
type OppTask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

// OpenTasks counts the tasks that are not completed yet.
func (o *Opportunity) OpenTasks() int {
	n := 0
	for _, t := range o.Tasks {
		if !t.IsCompleted {
			n++
		}
	}
	return n
}

// TaskIndex returns the position of the task with id, or -1.
func TaskIndex(tasks []OppTask, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
