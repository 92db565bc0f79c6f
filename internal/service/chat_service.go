package service

import (
	"context"
	"fmt"
	"time"

	"schedula/internal/domain"
	"schedula/internal/events"
	"schedula/internal/intent"
	"schedula/internal/metrics"
	"schedula/internal/models"

	"github.com/rs/zerolog"
)

// ChatService runs the classify, materialize, record pipeline for one message.
type ChatService struct {
	repo         domain.Repository
	selections   domain.SelectionStore
	eventBus     domain.EventPublisher
	materializer *Materializer
	loc          *time.Location
	now          func() time.Time
	logger       *zerolog.Logger
}

// NewChatService wires the pipeline. selections and eventBus may be nil.
func NewChatService(
	repo domain.Repository,
	selections domain.SelectionStore,
	eventBus domain.EventPublisher,
	loc *time.Location,
	logger *zerolog.Logger,
) *ChatService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ChatService{
		repo:         repo,
		selections:   selections,
		eventBus:     eventBus,
		materializer: NewMaterializer(repo, loc, logger),
		loc:          loc,
		now:          time.Now,
		logger:       logger,
	}
}

// Reply answers message on behalf of clientKey. Errors are returned only when
// the booking context cannot be read or the conversation cannot be recorded.
func (s *ChatService) Reply(ctx context.Context, clientKey, message string) (*models.ChatReply, error) {
	bookings, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	pending := s.loadSelection(ctx, clientKey)
	now := s.now().In(s.loc)

	in := intent.Classify(message, now, bookings, pending)
	metrics.IncIntent(string(in.Name))

	out := s.materializer.Materialize(ctx, in)
	if out.Mutated {
		s.publish(in, out, clientKey)
	}

	s.updateSelection(ctx, clientKey, in, pending, now)

	conv := &models.ChatConversation{Message: message, Response: out.Response}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("record conversation: %w", err)
	}

	s.logger.Debug().
		Str("client", clientKey).
		Str("intent", string(in.Name)).
		Bool("mutated", out.Mutated).
		Msg("chat message handled")

	return &models.ChatReply{
		Response:       out.Response,
		BookingCreated: out.Mutated,
		Booking:        out.Booking,
		Suggestions:    intent.Suggestions(),
	}, nil
}

func (s *ChatService) loadSelection(ctx context.Context, clientKey string) *models.Selection {
	if s.selections == nil || clientKey == "" {
		return nil
	}
	sel, err := s.selections.GetSelection(ctx, clientKey)
	if err != nil {
		s.logger.Warn().Err(err).Str("client", clientKey).Msg("failed to load pending selection")
		return nil
	}
	return sel
}

// updateSelection keeps a cancel listing alive only until the next unrelated message.
func (s *ChatService) updateSelection(ctx context.Context, clientKey string, in intent.Intent, pending *models.Selection, now time.Time) {
	if s.selections == nil || clientKey == "" {
		return
	}

	var err error
	switch {
	case in.Name == intent.NameCancel && len(in.Candidates) > 0:
		err = s.selections.SetSelection(ctx, intent.NewSelection(clientKey, in.Candidates, now))
	case in.Name == intent.NameSelect && in.Kind == intent.KindChat:
		// переспросили номер, выбор остаётся
	case pending != nil:
		err = s.selections.ClearSelection(ctx, clientKey)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("client", clientKey).Msg("failed to update pending selection")
	}
}

func (s *ChatService) publish(in intent.Intent, out Outcome, clientKey string) {
	if s.eventBus == nil {
		return
	}

	var (
		eventType string
		payload   events.BookingEventPayload
	)
	switch in.Kind {
	case intent.KindCreate:
		eventType = events.EventBookingCreated
		payload = events.NewBookingPayload(out.Booking.ID, out.Booking, clientKey)
	case intent.KindUpdate:
		eventType = events.EventBookingUpdated
		payload = events.NewBookingPayload(out.Booking.ID, out.Booking, clientKey)
	case intent.KindDelete:
		eventType = events.EventBookingDeleted
		payload = events.NewBookingPayload(in.BookingID, nil, clientKey)
	default:
		return
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish booking event")
	}
}

// ListConversations pages through stored exchanges, newest first.
func (s *ChatService) ListConversations(ctx context.Context, page, limit int) (*models.ConversationPage, error) {
	if page < 1 {
		page = models.DefaultPage
	}
	if limit < 1 {
		limit = models.DefaultPageLimit
	}
	if limit > models.MaxPageLimit {
		limit = models.MaxPageLimit
	}

	convs, err := s.repo.ListConversations(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountConversations(ctx)
	if err != nil {
		return nil, err
	}

	return &models.ConversationPage{
		Conversations: convs,
		Pagination:    models.NewPagination(page, limit, total),
	}, nil
}

func (s *ChatService) SaveConversation(ctx context.Context, message, response string) (*models.ChatConversation, error) {
	conv := &models.ChatConversation{Message: message, Response: response}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) DeleteConversation(ctx context.Context, id string) error {
	return s.repo.DeleteConversation(ctx, id)
}
