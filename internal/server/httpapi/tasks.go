package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r.Context())

	tasks, err := s.tasks.List(r.Context(), user.ID, r.URL.Query().Get("status"))
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]any{"tasks": newTaskResponses(tasks)})
	return nil
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) error {
	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	task, err := s.tasks.Create(r.Context(), currentUser(r.Context()).ID, req.task())
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Task created", "task": newTaskResponse(task)})
	return nil
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) error {
	id, err := parseTaskID(chi.URLParam(r, "id"), "id")
	if err != nil {
		return err
	}

	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	task, err := s.tasks.Update(r.Context(), currentUser(r.Context()).ID, id, req.patch())
	if err != nil {
		return taskError(err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Task updated", "task": newTaskResponse(task)})
	return nil
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) error {
	id, err := parseTaskID(r.URL.Query().Get("task_id"), "task_id")
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(r.Context(), currentUser(r.Context()).ID, id); err != nil {
		return taskError(err)
	}

	writeMessage(w, "Task deleted successfully")
	return nil
}

func (s *Server) handleMarkDone(w http.ResponseWriter, r *http.Request) error {
	id, err := parseTaskID(r.URL.Query().Get("task_id"), "task_id")
	if err != nil {
		return err
	}

	task, err := s.tasks.MarkDone(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		return taskError(err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Task marked as completed", "task": newTaskResponse(task)})
	return nil
}

func parseTaskID(raw, name string) (int64, error) {
	if raw == "" {
		return 0, errUnprocessable(name+" is required", nil)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errUnprocessable(name+" must be a positive integer", err)
	}
	return id, nil
}

func taskError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return errNotFound(msgTaskNotFound, err)
	}
	return err
}
