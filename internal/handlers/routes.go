package handlers

import (
	"github.com/go-chi/chi/v5"
)

// Mount registers the task and health routes on r.
func (h *TaskHandler) Mount(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.GetTasks)                // GET /tasks
		r.Post("/", h.PostTask)               // POST /tasks
		r.Get("/all", h.GetAllTasks)          // GET /tasks/all
		r.Get("/statistics", h.GetStatistics) // GET /tasks/statistics

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTaskByID)       // GET /tasks/{id}
			r.Put("/", h.UpdateTaskByID)    // PUT /tasks/{id}
			r.Delete("/", h.DeleteTaskByID) // DELETE /tasks/{id}
		})
	})

	r.Get("/health", h.HealthCheck)
	r.Get("/health/detailed", h.HealthCheckDetailed)
}
