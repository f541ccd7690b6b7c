package http

import (
	"net/http"

	"github.com/Strob0t/MissionControl/internal/domain/activity"
	"github.com/Strob0t/MissionControl/internal/domain/message"
	"github.com/Strob0t/MissionControl/internal/domain/task"
)

const taskNotFound = "task not found"

// ListTasks handles GET /api/v1/tasks?status=&assignee_id=&limit=
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	filter := task.ListFilter{Limit: limit}
	if s := r.URL.Query().Get("status"); s != "" {
		st := task.Status(s)
		filter.Status = &st
	}
	if a := r.URL.Query().Get("assignee_id"); a != "" {
		filter.AssigneeID = &a
	}

	tasks, err := h.Tasks.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err, taskNotFound)
		return
	}
	if tasks == nil {
		tasks = []task.WithAssignee{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// TaskBoard handles GET /api/v1/tasks/board
func (h *Handlers) TaskBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.Tasks.ListByStatus(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// GetTask handles GET /api/v1/tasks/{id}
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tasks.Get, taskNotFound)(w, r)
}

// CreateTask handles POST /api/v1/tasks
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Tasks.Create, "assignee not found")(w, r)
}

// UpdateTask handles PATCH /api/v1/tasks/{id}
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.Tasks.Update, taskNotFound)(w, r)
}

// DeleteTask handles DELETE /api/v1/tasks/{id}
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Tasks.Remove, taskNotFound)(w, r)
}

type taskStatusRequest struct {
	Status task.Status `json:"status"`
}

// UpdateTaskStatus handles PUT /api/v1/tasks/{id}/status
func (h *Handlers) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[taskStatusRequest](w, r)
	if !ok {
		return
	}
	t, err := h.Tasks.UpdateStatus(r.Context(), urlParam(r, "id"), req.Status)
	if err != nil {
		writeDomainError(w, err, taskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// assignRequest carries the new assignee. A null or empty assignee_id
// unassigns the task.
type assignRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// AssignTask handles PUT /api/v1/tasks/{id}/assignee
func (h *Handlers) AssignTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[assignRequest](w, r)
	if !ok {
		return
	}
	t, err := h.Tasks.Assign(r.Context(), urlParam(r, "id"), req.AssigneeID)
	if err != nil {
		writeDomainError(w, err, "task or agent not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ListTaskMessages handles GET /api/v1/tasks/{id}/messages
func (h *Handlers) ListTaskMessages(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Messages.ListByTask, taskNotFound)(w, r)
}

// PostTaskMessage handles POST /api/v1/tasks/{id}/messages
//
// The task id in the path wins over any task_id in the body.
func (h *Handlers) PostTaskMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[message.CreateRequest](w, r)
	if !ok {
		return
	}
	req.TaskID = urlParam(r, "id")
	created, err := h.Messages.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "task or sender not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListTaskActivities handles GET /api/v1/tasks/{id}/activities
func (h *Handlers) ListTaskActivities(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	acts, err := h.Activities.ListByTask(r.Context(), urlParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err, taskNotFound)
		return
	}
	if acts == nil {
		acts = []activity.WithContext{}
	}
	writeJSON(w, http.StatusOK, acts)
}

type processRequest struct {
	RequestedBy string `json:"requested_by,omitempty"`
}

// ProcessTask handles POST /api/v1/tasks/{id}/process
//
// Processing runs asynchronously; the handler answers 202 once the request
// is queued.
func (h *Handlers) ProcessTask(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if r.ContentLength != 0 {
		var ok bool
		if req, ok = readJSON[processRequest](w, r); !ok {
			return
		}
	}
	id := urlParam(r, "id")
	if err := h.Process.Enqueue(r.Context(), id, req.RequestedBy); err != nil {
		writeDomainError(w, err, taskNotFound)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "task_id": id})
}
