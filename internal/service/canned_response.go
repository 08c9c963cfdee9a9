package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository"
)

// CannedResponses stores reply templates as markdown and renders them to
// sanitized HTML on demand.
type CannedResponses struct {
	repo     repository.CannedResponseRepository
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewCannedResponses wires the canned response service.
func NewCannedResponses(repo repository.CannedResponseRepository) *CannedResponses {
	return &CannedResponses{
		repo:     repo,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   bluemonday.UGCPolicy(),
	}
}

// RenderedResponse is a canned response with its HTML form attached.
type RenderedResponse struct {
	models.CannedResponse
	HTML string `json:"html"`
}

// Create validates and stores a new template.
func (s *CannedResponses) Create(ctx context.Context, response *models.CannedResponse) error {
	if response.Title == "" || response.Body == "" {
		return fmt.Errorf("canned responses: title and body required")
	}
	return s.repo.Create(ctx, response)
}

// Get returns one template with rendered HTML.
func (s *CannedResponses) Get(ctx context.Context, id int64) (*RenderedResponse, error) {
	response, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.render(response)
}

// List returns all templates with rendered HTML.
func (s *CannedResponses) List(ctx context.Context) ([]RenderedResponse, error) {
	responses, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	rendered := make([]RenderedResponse, 0, len(responses))
	for i := range responses {
		rr, rerr := s.render(&responses[i])
		if rerr != nil {
			return nil, rerr
		}
		rendered = append(rendered, *rr)
	}
	return rendered, nil
}

// Update replaces the stored template.
func (s *CannedResponses) Update(ctx context.Context, response *models.CannedResponse) error {
	return s.repo.Update(ctx, response)
}

// Delete removes a template.
func (s *CannedResponses) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Use increments a template's usage counter, called when an agent inserts it
// into a reply.
func (s *CannedResponses) Use(ctx context.Context, id int64) (*RenderedResponse, error) {
	response, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementUsage(ctx, id); err != nil {
		return nil, err
	}
	response.UsageCount++
	return s.render(response)
}

func (s *CannedResponses) render(response *models.CannedResponse) (*RenderedResponse, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(response.Body), &buf); err != nil {
		return nil, fmt.Errorf("canned responses: render %d: %w", response.ID, err)
	}
	return &RenderedResponse{
		CannedResponse: *response,
		HTML:           s.policy.Sanitize(buf.String()),
	}, nil
}
