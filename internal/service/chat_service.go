package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"ai-salesbot-be/internal/dto"
	"ai-salesbot-be/pkg/rag"
	"ai-salesbot-be/pkg/tenant"
)

// IChatService defines the tenant-facing chat surface.
type IChatService interface {
	Chat(ctx context.Context, request *dto.QuestionRequest) (*dto.AnswerResponse, error)
	ContactInfo(ctx context.Context, request *dto.QuestionRequest) (*dto.ContactInfoResponse, error)
	Leads(ctx context.Context, request *dto.QuestionRequest) (*dto.LeadsResponse, error)
	LeadsCount(ctx context.Context, request *dto.QuestionRequest) (*dto.LeadsCountResponse, error)
}

type chatService struct {
	registry          *tenant.Registry
	defaultVectorPath string
	defaultMongoURI   string
}

func NewChatService(registry *tenant.Registry, defaultVectorPath, defaultMongoURI string) IChatService {
	return &chatService{
		registry:          registry,
		defaultVectorPath: defaultVectorPath,
		defaultMongoURI:   defaultMongoURI,
	}
}

var sessionBaseRe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// resolveSessionID keeps a caller-provided session id and mints a fresh one
// when the caller sent nothing or the literal "default". Reused placeholder
// ids would otherwise merge unrelated visitors into one conversation.
func resolveSessionID(request *dto.QuestionRequest) string {
	incoming := strings.TrimSpace(request.SessionID)
	if incoming != "" && strings.ToLower(incoming) != "default" {
		return incoming
	}

	base := request.ResourceID
	if base == "" {
		base = request.UserID
	}
	if base == "" {
		base = "session"
	}
	sanitized := sessionBaseRe.ReplaceAllString(base, "")
	if sanitized == "" {
		sanitized = "session"
	}
	return fmt.Sprintf("%s_%s", sanitized, uuid.New().String()[:8])
}

func (s *chatService) engineFor(ctx context.Context, request *dto.QuestionRequest) (*rag.Engine, error) {
	vectorPath := request.VectorStorePath
	if vectorPath == "" {
		vectorPath = s.defaultVectorPath
	}
	if vectorPath == "" {
		return nil, fmt.Errorf("vector_store_path is required")
	}

	databaseURI := request.DatabaseURI
	if databaseURI == "" {
		databaseURI = s.defaultMongoURI
	}
	if databaseURI == "" {
		return nil, fmt.Errorf("database_uri is required")
	}

	engine, err := s.registry.Get(ctx, vectorPath, databaseURI)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant chatbot: %w", err)
	}
	return engine, nil
}

func (s *chatService) Chat(ctx context.Context, request *dto.QuestionRequest) (*dto.AnswerResponse, error) {
	query := strings.TrimSpace(request.Query)
	if query == "" {
		return nil, fmt.Errorf("query text is required")
	}

	sessionID := resolveSessionID(request)

	engine, err := s.engineFor(ctx, request)
	if err != nil {
		return nil, err
	}

	answer := engine.Chat(ctx, query, sessionID)
	sources := engine.GetRecentSources(sessionID)

	metadata := map[string]string{}
	if request.ResourceID != "" {
		metadata["resource_id"] = request.ResourceID
	}
	if request.UserID != "" {
		metadata["user_id"] = request.UserID
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	return &dto.AnswerResponse{
		Answer:    answer,
		SessionID: sessionID,
		Sources:   sources,
		Metadata:  metadata,
	}, nil
}

func (s *chatService) ContactInfo(ctx context.Context, request *dto.QuestionRequest) (*dto.ContactInfoResponse, error) {
	engine, err := s.engineFor(ctx, request)
	if err != nil {
		return nil, err
	}

	info, formatted := engine.ContactInfo(ctx)
	return &dto.ContactInfoResponse{
		Emails:            info.Emails,
		Phones:            info.Phones,
		Addresses:         info.Addresses,
		FormattedResponse: formatted,
	}, nil
}

func (s *chatService) Leads(ctx context.Context, request *dto.QuestionRequest) (*dto.LeadsResponse, error) {
	engine, err := s.engineFor(ctx, request)
	if err != nil {
		return nil, err
	}

	leads, err := engine.AllLeads(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leads: %w", err)
	}

	response := &dto.LeadsResponse{
		Leads: make([]dto.LeadResponse, 0, len(leads)),
		Count: len(leads),
	}
	for _, lead := range leads {
		response.Leads = append(response.Leads, dto.LeadResponse{
			ID:        lead.ID.Hex(),
			SessionID: lead.SessionID,
			Name:      lead.Name,
			Phone:     lead.Phone,
			Email:     lead.Email,
			Question:  lead.Question,
			Status:    lead.Status,
			CreatedAt: lead.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt: lead.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return response, nil
}

func (s *chatService) LeadsCount(ctx context.Context, request *dto.QuestionRequest) (*dto.LeadsCountResponse, error) {
	engine, err := s.engineFor(ctx, request)
	if err != nil {
		return nil, err
	}

	count, err := engine.LeadsCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	return &dto.LeadsCountResponse{Count: count}, nil
}
