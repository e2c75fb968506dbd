package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"i4.energy/across/atcmd/at"
	"i4.energy/across/atcmd/client"
)

// Console runs command lines on an interpreter.
type Console interface {
	Exec(ctx context.Context, line string) (*client.Response, error)
	Help(ctx context.Context) ([]string, error)
}

// Server handles incoming HTTP requests for interacting with the
// configured interpreter
type Server struct {
	Logger  *slog.Logger
	Console Console
}

// ExecResponse is the body answered by POST /exec.
type ExecResponse struct {
	Lines   []string `json:"lines"`
	Status  string   `json:"status"`
	Detail  string   `json:"detail,omitempty"`
	Message string   `json:"message,omitempty"`
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /exec", s.handleExec)
	mux.HandleFunc("GET /help", s.handleHelp)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// handleExec runs one command line. Lines answered with an error status
// are reported with 422 and the decoded status.
func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	type ExecRequest struct {
		Line string `json:"line"`
	}

	var req ExecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Line == "" {
		s.sendError(w, "'line' field is required", http.StatusBadRequest)
		return
	}

	resp, err := s.Console.Exec(r.Context(), req.Line)

	var cmdErr *client.CommandError
	switch {
	case errors.As(err, &cmdErr):
		s.Logger.Info("Command failed", "line", req.Line, "status", cmdErr.Status)
		s.sendJSON(w, ExecResponse{
			Lines:   linesOf(resp),
			Status:  cmdErr.Status.Name(),
			Detail:  cmdErr.Detail,
			Message: cmdErr.Error(),
		}, http.StatusUnprocessableEntity)

	case errors.Is(err, client.ErrInvalidLine):
		s.sendError(w, err.Error(), http.StatusBadRequest)

	case err != nil:
		s.Logger.Error("Failed to run command", "error", err, "line", req.Line)
		s.sendError(w, err.Error(), http.StatusBadGateway)

	default:
		s.Logger.Debug("Command done", "line", req.Line, "lines", len(resp.Lines))
		s.sendJSON(w, ExecResponse{
			Lines:  linesOf(resp),
			Status: at.OK,
		}, http.StatusOK)
	}
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	lines, err := s.Console.Help(r.Context())
	if err != nil {
		s.Logger.Error("Failed to read help", "error", err)
		s.sendError(w, err.Error(), http.StatusBadGateway)
		return
	}
	s.sendJSON(w, ExecResponse{Lines: lines, Status: at.OK}, http.StatusOK)
}

func linesOf(resp *client.Response) []string {
	if resp == nil || resp.Lines == nil {
		return []string{}
	}
	return resp.Lines
}
