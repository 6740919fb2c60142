package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/catalog"
	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/matching"
	"github.com/spigell/job-matcher/internal/resume"
	"github.com/spigell/job-matcher/internal/utils"
)

// multipart overhead allowed on top of the resume itself
const formOverhead = 1 << 20

type listResponse struct {
	Jobs       []*jobs.Posting `json:"jobs"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
	jobs.Facets
}

type matchResponse struct {
	Matches       []matching.Result `json:"matches"`
	Mode          matching.Mode     `json:"mode"`
	TotalMatched  int               `json:"totalMatched"`
	ResumeSummary string            `json:"resumeSummary"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	criteria, listing, err := filtering.CriteriaFromQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	all, err := s.catalog.All(r.Context())
	if err != nil {
		s.logger.Error("failed to load catalog", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load jobs")
		return
	}

	filtered, err := filtering.Run(r.Context(), criteria, filtering.Deps{Logger: s.logger, Now: s.now()}, criteria.Steps(), all)
	if err != nil {
		s.logger.Error("failed to filter catalog", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to filter jobs")
		return
	}

	filtering.Sort(filtered, listing.Sort)
	page, totalPages := filtering.Paginate(filtered, listing.Page, listing.PageSize)

	respondJSON(w, http.StatusOK, listResponse{
		Jobs:       page.Items,
		Total:      filtered.Len(),
		Page:       listing.Page,
		TotalPages: totalPages,
		Facets:     all.Facets(),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	posting, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load posting", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	respondJSON(w, http.StatusOK, posting)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, resume.MaxSize+formOverhead)

	file, header, err := r.FormFile("resume")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, resume.ErrTooLarge.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "resume file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, resume.MaxSize+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read resume")
		return
	}

	res, err := resume.Extract(header.Filename, header.Header.Get("Content-Type"), data)
	switch {
	case errors.Is(err, resume.ErrTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		s.logger.Debug("resume rejected", zap.String("file", header.Filename), zap.Error(err))
		respondError(w, http.StatusBadRequest, extractMessage(err))
		return
	}

	postings, err := s.catalog.All(r.Context())
	if err != nil {
		s.logger.Error("failed to load catalog", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load jobs")
		return
	}

	outcome := s.matcher.Match(r.Context(), res, postings.Items)
	matches := outcome.Matches
	if matches == nil {
		matches = []matching.Result{}
	}

	summary, _ := utils.TruncateRunes(res.Text, summaryRunes)
	respondJSON(w, http.StatusOK, matchResponse{
		Matches:       matches,
		Mode:          outcome.Mode,
		TotalMatched:  len(matches),
		ResumeSummary: summary,
	})
}

func extractMessage(err error) string {
	switch {
	case errors.Is(err, resume.ErrUnsupportedFormat):
		return "Unsupported file type. Please upload a PDF or TXT file."
	case errors.Is(err, resume.ErrUnreadablePDF):
		return "Could not parse PDF. Please try a different file."
	case errors.Is(err, resume.ErrEmptyText):
		return "Could not extract text from resume. Please try a different file."
	default:
		return err.Error()
	}
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedAdmin(r) {
		respondError(w, http.StatusUnauthorized, "Invalid or missing admin API key")
		return
	}

	writer, ok := s.catalog.(catalog.Writer)
	if !ok {
		respondError(w, http.StatusNotImplemented, catalog.ErrReadOnly.Error())
		return
	}

	var posting jobs.Posting
	dec := json.NewDecoder(io.LimitReader(r.Body, formOverhead))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&posting); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	posting.Normalize(s.now())
	if err := posting.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := writer.Insert(r.Context(), &posting)
	if err != nil {
		s.logger.Error("failed to insert posting", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	s.logger.Info("posting created", zap.String("id", created.ID), zap.String("title", created.Title))
	respondJSON(w, http.StatusCreated, created)
}

// An empty configured key rejects every request.
func (s *Server) authorizedAdmin(r *http.Request) bool {
	if s.adminKey == "" {
		return false
	}
	got := strings.TrimSpace(r.Header.Get(adminKeyHeader))
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.adminKey)) == 1
}
