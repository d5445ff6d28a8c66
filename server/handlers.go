package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tomenglish23/healthcare-certs-rag/message"
	"github.com/tomenglish23/healthcare-certs-rag/rag/visibility"
)

func (s *Server) handleRoot(c *gin.Context) {
	_, _, _, chunks, ok := s.ready()
	status := "initializing"
	if ok {
		status = "ok"
	}
	c.JSON(http.StatusOK, gin.H{
		"service": "healthcare-certs-rag",
		"status":  status,
		"chunks":  len(chunks),
	})
}

// handleConfig exposes the client-safe configuration surface. Secrets
// never leave the process.
func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"provider": gin.H{
			"name":  s.cfg.Provider.Name,
			"model": s.cfg.Provider.Model,
		},
		"features": gin.H{
			"enable_critic":    s.cfg.Pipeline.EnableCritic,
			"expose_reasoning": s.cfg.Server.ExposeReasoning,
		},
	})
}

func (s *Server) handleTaxonomies(c *gin.Context) {
	_, _, cat, _, ok := s.ready()
	if !ok {
		notInitialized(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories":     cat.Categories(),
		"sub_categories": cat.SubCategories(),
		"hierarchy":      cat.Hierarchy(),
	})
}

type queryRequest struct {
	Question string            `json:"question"`
	Filters  map[string]string `json:"filters"`
}

type queryResponse struct {
	Answer      string   `json:"answer"`
	Confidence  float64  `json:"confidence"`
	Sources     []string `json:"sources"`
	Intent      string   `json:"intent"`
	Entities    any      `json:"entities"`
	IsGrounded  bool     `json:"is_grounded"`
	MissingInfo []string `json:"missing_info,omitempty"`
	Reasoning   []string `json:"reasoning,omitempty"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question required"})
		return
	}

	pipe, _, _, _, ok := s.ready()
	if !ok {
		notInitialized(c)
		return
	}

	res, err := pipe.Answer(c.Request.Context(), req.Question, req.Filters)
	if err != nil {
		s.logger.Error("query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := queryResponse{
		Answer:      res.Answer,
		Confidence:  res.Confidence,
		Sources:     res.Sources,
		Intent:      string(res.Intent),
		Entities:    res.Entities,
		IsGrounded:  res.IsGrounded,
		MissingInfo: res.MissingInfo,
	}
	if s.cfg.Server.ExposeReasoning {
		resp.Reasoning = res.Reasoning
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSections(c *gin.Context) {
	_, _, cat, _, ok := s.ready()
	if !ok {
		notInitialized(c)
		return
	}
	c.JSON(http.StatusOK, cat.Hierarchy())
}

type sectionRequest struct {
	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`
	Section     string `json:"section"`
}

func (s *Server) handleSectionContent(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Category == "" || req.SubCategory == "" || req.Section == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing category/sub_category/section"})
		return
	}
	_, _, _, chunks, ok := s.ready()
	if !ok {
		notInitialized(c)
		return
	}

	var matches []string
	for _, ch := range chunks {
		md := ch.Metadata
		if md.Category == req.Category && md.SubCategory == req.SubCategory && md.Section == req.Section {
			matches = append(matches, ch.Text)
		}
	}
	if len(matches) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Section not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": strings.Join(matches, "\n\n")})
}

func (s *Server) handleSectionMetadata(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Category == "" || req.SubCategory == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing category/sub_category"})
		return
	}
	_, _, cat, _, ok := s.ready()
	if !ok {
		notInitialized(c)
		return
	}

	details, found := cat.Details(req.Category, req.SubCategory)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No details recorded"})
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s *Server) handleSectionChunks(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Category == "" || req.SubCategory == "" || req.Section == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing category/sub_category/section"})
		return
	}
	_, _, _, chunks, ok := s.ready()
	if !ok {
		notInitialized(c)
		return
	}

	var out []gin.H
	for i, ch := range chunks {
		md := ch.Metadata
		if md.Category == req.Category && md.SubCategory == req.SubCategory && md.Section == req.Section {
			out = append(out, gin.H{
				"text":   ch.Text,
				"label":  ch.SourceLabel(i),
				"source": md.SourceID,
			})
		}
	}
	c.JSON(http.StatusOK, gin.H{"chunks": out})
}

const suggestionsSystemPrompt = "Generate 10 helpful questions a user might ask after reading this section. Return one question per line, with no numbering."

// handleSectionSuggestions asks the completion model for follow-up
// questions a reader of the section might have.
func (s *Server) handleSectionSuggestions(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Category == "" || req.SubCategory == "" || req.Section == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing category/sub_category/section"})
		return
	}
	_, _, _, chunks, ok := s.ready()
	if !ok {
		notInitialized(c)
		return
	}
	llm, ok := s.completer()
	if !ok {
		notInitialized(c)
		return
	}

	var texts []string
	for _, ch := range chunks {
		md := ch.Metadata
		if md.Category == req.Category && md.SubCategory == req.SubCategory && md.Section == req.Section {
			texts = append(texts, ch.Text)
		}
	}
	if len(texts) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Section not found"})
		return
	}

	resp, err := llm.Generate(c.Request.Context(), []*message.Message{
		message.NewMessage(message.RoleSystem, suggestionsSystemPrompt),
		message.NewMessage(message.RoleUser, strings.Join(texts, "\n\n")),
	})
	if err != nil {
		s.logger.Error("suggestion generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var suggestions []string
	for _, line := range strings.Split(resp.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			suggestions = append(suggestions, line)
		}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (s *Server) handleStudySave(c *gin.Context) {
	var note map[string]any
	if err := c.ShouldBindJSON(&note); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	s.studyMu.Lock()
	s.studyNotes = append(s.studyNotes, note)
	s.studyMu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (s *Server) handleStudyList(c *gin.Context) {
	s.studyMu.Lock()
	notes := make([]map[string]any, len(s.studyNotes))
	copy(notes, s.studyNotes)
	s.studyMu.Unlock()
	c.JSON(http.StatusOK, notes)
}

func (s *Server) handleVisibilitySummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"modes": visibility.Modes(),
		"tip":   "Start with /profile to understand your data, then use other modes to go deeper.",
	})
}

func (s *Server) handleVisibilityProfile(c *gin.Context) {
	var req struct {
		NSamples int    `json:"n_samples"`
		Category string `json:"category"`
	}
	_ = c.ShouldBindJSON(&req)

	_, ex, _, _, ok := s.ready()
	if !ok {
		notInitialized(c)
		return
	}
	profile, err := ex.ProfileCorpus(c.Request.Context(), req.NSamples, req.Category)
	if err != nil {
		s.visibilityError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "samples_analyzed": profile.SamplesAnalyzed, "profile": profile.Report})
}

func (s *Server) handleVisibilityFields(c *gin.Context) {
	var req struct {
		Focus    string `json:"focus"`
		NSamples int    `json:"n_samples"`
	}
	_ = c.ShouldBindJSON(&req)

	_, ex, _, _, ok := s.ready()
	if !ok {
		notInitialized(c)
		return
	}
	cat, err := ex.ExtractFields(c.Request.Context(), req.Focus, req.NSamples)
	if err != nil {
		s.visibilityError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "focus": cat.Focus, "catalog": cat})
}

func (s *Server) handleVisibilityWorkflow(c *gin.Context) {
	var req struct {
		Process string `json:"process"`
		State   string `json:"state"`
	}
	_ = c.ShouldBindJSON(&req)

	_, ex, _, _, ok := s.ready()
	if !ok {
		notInitialized(c)
		return
	}
	wf, err := ex.ReconstructWorkflow(c.Request.Context(), req.Process, req.State)
	if err != nil {
		s.visibilityError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "process": wf.ProcessName, "workflow": wf})
}

func (s *Server) handleVisibilityQuestions(c *gin.Context) {
	var req struct {
		Focus string `json:"focus"`
	}
	_ = c.ShouldBindJSON(&req)

	_, ex, _, _, ok := s.ready()
	if !ok {
		notInitialized(c)
		return
	}
	qs, err := ex.GenerateQuestions(c.Request.Context(), req.Focus)
	if err != nil {
		s.visibilityError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "focus": qs.Focus, "questions": qs.Questions})
}
