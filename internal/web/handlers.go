package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"mediaprops/internal/batch"
	"mediaprops/internal/mediaprops"
	"mediaprops/pkg/utils"
)

// Batch operations accepted by /api/batch.
const (
	OpClearAll = "clear-all"
	OpClear    = "clear"
	OpCopy     = "copy"
	OpWrite    = "write"
)

type PropertyInfo struct {
	Ordinal int    `json:"ordinal"`
	Ident   string `json:"ident"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
}

type PropertyResponse struct {
	Path     string `json:"path"`
	Property string `json:"property"`
	Value    any    `json:"value"`
}

type PropertiesResponse struct {
	Path       string                 `json:"path"`
	Properties mediaprops.PropertyMap `json:"properties"`
}

type WriteRequest struct {
	Value any `json:"value"`
}

type BatchRequest struct {
	Op        string         `json:"op"`
	Paths     []string       `json:"paths"`
	Props     []string       `json:"props"`
	Source    string         `json:"source"`
	Values    map[string]any `json:"values"`
	Recursive bool           `json:"recursive"`
}

type JobResponse struct {
	ID          string    `json:"id"`
	Op          string    `json:"op"`
	Props       []string  `json:"props,omitempty"`
	Status      JobStatus `json:"status"`
	Progress    int       `json:"progress"`
	Total       int       `json:"total"`
	Failed      int       `json:"failed"`
	Errors      []string  `json:"errors,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   string    `json:"created_at"`
	StartedAt   *string   `json:"started_at,omitempty"`
	CompletedAt *string   `json:"completed_at,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps a property error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errOutsideRoot):
		return http.StatusForbidden
	case errors.Is(err, mediaprops.ErrFileNotFound), errors.Is(err, mediaprops.ErrPropertyAbsent):
		return http.StatusNotFound
	case errors.Is(err, mediaprops.ErrNotMediaFile):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, mediaprops.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleProperties(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all := mediaprops.All()
	infos := make([]PropertyInfo, len(all))
	for i, d := range all {
		infos[i] = PropertyInfo{Ordinal: d.Ordinal(), Ident: d.Ident(), Name: d.Name(), Kind: d.Kind().String()}
	}
	writeJSON(w, http.StatusOK, infos)
}

// lookupProperty reads the prop query parameter.
func lookupProperty(r *http.Request) (*mediaprops.Descriptor, error) {
	name := r.URL.Query().Get("prop")
	if name == "" {
		return nil, fmt.Errorf("prop is required")
	}
	d, ok := mediaprops.PropertyByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown property %q", name)
	}
	return d, nil
}

func (s *Server) handleFileProperty(w http.ResponseWriter, r *http.Request) {
	path, err := s.resolve(r.URL.Query().Get("path"))
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}
	d, err := lookupProperty(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	switch r.Method {
	case http.MethodGet:
		v, ok, err := s.media.ReadValue(path, d)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if !ok {
			s.writeError(w, &mediaprops.PropertyAbsentError{Path: s.relative(path), Property: d})
			return
		}
		writeJSON(w, http.StatusOK, PropertyResponse{Path: s.relative(path), Property: d.Ident(), Value: v})

	case http.MethodPut:
		var req WriteRequest
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
			return
		}
		v, err := decodeValue(d, req.Value)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if err := s.media.WriteValue(path, d, v); err != nil {
			s.writeError(w, err)
			return
		}
		s.logger.Info("Set %s on %s", d.Ident(), s.relative(path))
		writeJSON(w, http.StatusOK, PropertyResponse{Path: s.relative(path), Property: d.Ident(), Value: v})

	case http.MethodDelete:
		if err := s.media.Clear(path, d); err != nil {
			s.writeError(w, err)
			return
		}
		s.logger.Info("Cleared %s on %s", d.Ident(), s.relative(path))
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleFileProperties(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path, err := s.resolve(r.URL.Query().Get("path"))
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}

	props, err := s.media.ReadAll(path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PropertiesResponse{Path: s.relative(path), Properties: props})
}

// writeBadRequest reports a path that could not be resolved.
func (s *Server) writeBadRequest(w http.ResponseWriter, err error) {
	if errors.Is(err, errOutsideRoot) {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// decodeValue converts a JSON value into the Go type used for d. Numbers
// arrive as json.Number; anything else is passed through and checked on write.
func decodeValue(d *mediaprops.Descriptor, v any) (any, error) {
	n, ok := v.(json.Number)
	if !ok {
		return v, nil
	}
	if d.Kind() != mediaprops.KindUint {
		return nil, &mediaprops.InvalidArgumentError{Property: d, Value: n.String(), Reason: "a number (expects string)"}
	}
	return mediaprops.ParseValue(d, n.String())
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BatchRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	op, props, source, err := s.batchOp(req)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}

	files, err := s.batchFiles(req)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	job := s.jobMgr.CreateJob(req.Op, files, props, source)
	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Cancel = cancel
	})
	s.logger.Info("Created job %s: %s on %d files", job.ID, req.Op, len(files))

	go s.processJob(ctx, cancel, job.ID, files, op)

	writeJSON(w, http.StatusAccepted, s.jobToResponse(job))
}

// batchOp validates req and builds the per-file operation.
func (s *Server) batchOp(req BatchRequest) (batch.Op, []string, string, error) {
	descs := make([]*mediaprops.Descriptor, 0, len(req.Props))
	idents := make([]string, 0, len(req.Props))
	for _, name := range req.Props {
		d, ok := mediaprops.PropertyByName(name)
		if !ok {
			return nil, nil, "", fmt.Errorf("unknown property %q", name)
		}
		descs = append(descs, d)
		idents = append(idents, d.Ident())
	}

	switch req.Op {
	case OpClearAll:
		return func(ctx context.Context, path string) error {
			return s.media.ClearAll(path)
		}, idents, "", nil

	case OpClear:
		if len(descs) == 0 {
			return nil, nil, "", fmt.Errorf("props are required for %s", req.Op)
		}
		return func(ctx context.Context, path string) error {
			return s.media.ClearMany(path, descs...)
		}, idents, "", nil

	case OpCopy:
		if len(descs) == 0 {
			return nil, nil, "", fmt.Errorf("props are required for %s", req.Op)
		}
		src, err := s.resolve(req.Source)
		if err != nil {
			return nil, nil, "", fmt.Errorf("invalid source: %w", err)
		}
		return func(ctx context.Context, path string) error {
			var result *multierror.Error
			for _, d := range descs {
				if err := s.media.Copy(src, path, d); err != nil {
					result = multierror.Append(result, err)
				}
			}
			return result.ErrorOrNil()
		}, idents, s.relative(src), nil

	case OpWrite:
		if len(req.Values) == 0 {
			return nil, nil, "", fmt.Errorf("values are required for %s", req.Op)
		}
		values := mediaprops.NewPropertyMap()
		var clears []*mediaprops.Descriptor
		for name, raw := range req.Values {
			d, ok := mediaprops.PropertyByName(name)
			if !ok {
				return nil, nil, "", fmt.Errorf("unknown property %q", name)
			}
			v, err := decodeValue(d, raw)
			if err != nil {
				return nil, nil, "", err
			}
			// null clears, as it does for PUT.
			if v == nil {
				clears = append(clears, d)
				continue
			}
			if err := values.Set(d, v); err != nil {
				return nil, nil, "", err
			}
		}

		touched := append(values.Descriptors(), clears...)
		sort.Slice(touched, func(i, j int) bool { return touched[i].Ordinal() < touched[j].Ordinal() })
		idents = idents[:0]
		for _, d := range touched {
			idents = append(idents, d.Ident())
		}

		return func(ctx context.Context, path string) error {
			var result *multierror.Error
			if values.Len() > 0 {
				if err := s.media.WriteAll(path, values); err != nil {
					result = multierror.Append(result, err)
				}
			}
			if len(clears) > 0 {
				if err := s.media.ClearMany(path, clears...); err != nil {
					result = multierror.Append(result, err)
				}
			}
			return result.ErrorOrNil()
		}, idents, "", nil

	case "":
		return nil, nil, "", fmt.Errorf("op is required")
	default:
		return nil, nil, "", fmt.Errorf("unknown op %q, valid ops: %s", req.Op, strings.Join([]string{OpClearAll, OpClear, OpCopy, OpWrite}, ", "))
	}
}

// batchFiles resolves the request paths, expanding directories to the media
// files they contain.
func (s *Server) batchFiles(req BatchRequest) ([]string, error) {
	if len(req.Paths) == 0 {
		return nil, fmt.Errorf("paths are required")
	}

	paths := make([]string, 0, len(req.Paths))
	for _, p := range req.Paths {
		abs, err := s.resolve(p)
		if err != nil {
			return nil, err
		}
		paths = append(paths, abs)
	}

	files, err := utils.ExpandTargets(paths, req.Recursive, s.config.HasExtension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no media files found")
	}
	return files, nil
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobs := s.jobMgr.ListJobs()
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = s.jobToResponse(job)
	}

	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	// Extract job ID from path: /api/jobs/{id} or /api/jobs/{id}/cancel
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	if r.Method == http.MethodGet && len(parts) == 1 {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, s.jobToResponse(job))
		return
	}

	if r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "cancel" {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		if job.Cancel != nil {
			job.Cancel()
		}

		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusCancelled
		})

		job, _ = s.jobMgr.GetJob(jobID)
		writeJSON(w, http.StatusOK, map[string]string{"status": string(job.Status)})
		return
	}

	http.Error(w, "Invalid request", http.StatusBadRequest)
}

func (s *Server) processJob(ctx context.Context, cancel context.CancelFunc, jobID string, files []string, op batch.Op) {
	defer cancel()

	s.jobMgr.UpdateJob(jobID, func(j *Job) {
		j.Status = StatusRunning
	})
	s.logger.Info("Starting job %s", jobID)

	stats, err := batch.Run(ctx, files, s.config.ParallelJobs, op, batch.Hooks{
		OnProgress: func(path string, opErr error) {
			if opErr != nil {
				s.logger.Warn("Job %s: %s: %v", jobID, s.relative(path), opErr)
			}
			s.jobMgr.UpdateJob(jobID, func(j *Job) {
				j.Progress++
				if opErr != nil {
					j.Failed++
					j.Errors = append(j.Errors, fmt.Sprintf("%s: %v", s.relative(path), opErr))
				}
			})
		},
	})

	switch {
	case err != nil:
		s.logger.Info("Job %s cancelled after %d of %d files", jobID, stats.Succeeded+stats.Failed, stats.Total)
		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusCancelled
			j.Error = err.Error()
		})
	case stats.Failed > 0 && stats.Failed == stats.Total:
		s.logger.Error("Job %s failed on all %d files", jobID, stats.Total)
		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusFailed
			j.Error = fmt.Sprintf("all %d files failed", stats.Total)
		})
	default:
		s.logger.Info("Job %s completed: %d succeeded, %d failed", jobID, stats.Succeeded, stats.Failed)
		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusCompleted
		})
	}
}

func (s *Server) jobToResponse(job *Job) *JobResponse {
	resp := &JobResponse{
		ID:        job.ID,
		Op:        job.Op,
		Props:     job.Props,
		Status:    job.Status,
		Progress:  job.Progress,
		Total:     job.Total,
		Failed:    job.Failed,
		Errors:    job.Errors,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	if job.StartedAt != nil {
		started := job.StartedAt.Format("2006-01-02 15:04:05")
		resp.StartedAt = &started
	}

	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format("2006-01-02 15:04:05")
		resp.CompletedAt = &completed
	}

	return resp
}
