package srs

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mudler/LocalSRS/core/application"
	"github.com/mudler/LocalSRS/core/schema"
)

// ListJobsEndpoint lists jobs with optional filtering
// @Summary List jobs
// @Description Get the known jobs, newest first, optionally filtered by state
// @Tags jobs
// @Produce json
// @Param state query string false "Filter by state (queued, running, done, failed, canceled)"
// @Param limit query int false "Limit number of results"
// @Success 200 {array} schema.Job "List of jobs"
// @Failure 400 {object} map[string]string "Invalid state"
// @Router /v1/jobs [get]
func ListJobsEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		var state *schema.JobState
		if stateParam := c.QueryParam("state"); stateParam != "" {
			s := schema.JobState(stateParam)
			switch s {
			case schema.JobStateQueued, schema.JobStateRunning, schema.JobStateDone,
				schema.JobStateFailed, schema.JobStateCanceled:
			default:
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown state: " + stateParam})
			}
			state = &s
		}

		limit := 0
		if limitParam := c.QueryParam("limit"); limitParam != "" {
			if l, err := strconv.Atoi(limitParam); err == nil {
				limit = l
			}
		}

		return c.JSON(http.StatusOK, app.JobService().ListJobs(state, limit))
	}
}

// GetJobEndpoint gets a job by ID
// @Summary Get a job
// @Description Get a job with its per-video progress
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} schema.Job "Job details"
// @Failure 404 {object} map[string]string "Job not found"
// @Router /v1/jobs/{id} [get]
func GetJobEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		job, err := app.JobService().GetJob(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, job)
	}
}

// CancelJobEndpoint cancels a queued or running job
// @Summary Cancel a job
// @Description Cancel a queued or running job. Finished jobs cannot be canceled.
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} schema.Job "The canceled job"
// @Failure 404 {object} map[string]string "Job not found"
// @Failure 409 {object} map[string]string "Job already finished"
// @Router /v1/jobs/{id} [delete]
func CancelJobEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if _, err := app.JobService().GetJob(id); err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		if err := app.JobService().CancelJob(id); err != nil {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}

		job, err := app.JobService().GetJob(id)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, job)
	}
}
