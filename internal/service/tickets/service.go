// Package tickets orchestrates the ticket-channel lifecycle: opening
// channels, recording message events while a ticket is open, and the
// close-time pipeline of reconcile, render, persist, notify, delete.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ticketdesk/ticketdesk-server/internal/core"
	"github.com/ticketdesk/ticketdesk-server/internal/platform"
	"github.com/ticketdesk/ticketdesk-server/internal/proto"
	"github.com/ticketdesk/ticketdesk-server/internal/store"
	"github.com/ticketdesk/ticketdesk-server/internal/transcript"
	"github.com/ticketdesk/ticketdesk-server/internal/utils"
)

// Common errors for ticket operations.
var (
	ErrPermissionDenied = errors.New("missing required role to open a ticket")
	ErrTicketExists     = errors.New("user already has an open ticket")
	ErrNotTicketChannel = errors.New("channel is not a ticket channel")
	ErrHistoryFetch     = errors.New("history fetch failed")
)

// ClassifyError maps a lifecycle failure to its coded form for reporting
// back over the gateway. Failures with no user-actionable meaning classify
// to nil and stay log-only.
func ClassifyError(err error) *core.CoreError {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return core.NewError(core.ErrCodePermission, "You do not have permission to open a ticket.")
	case errors.Is(err, ErrTicketExists):
		return core.NewError(core.ErrCodeTicketExists, "You already have an open ticket.")
	case errors.Is(err, ErrNotTicketChannel):
		return core.NewError(core.ErrCodeNotTicketChannel, "This channel is not a ticket channel.")
	case errors.Is(err, core.ErrChannelClosing):
		return core.NewError(core.ErrCodeChannelClosing, "This ticket is already being closed.")
	case errors.Is(err, ErrHistoryFetch):
		return core.NewError(core.ErrCodeHistoryFetch, "Could not fetch the channel history. Try closing again.")
	default:
		return nil
	}
}

// UnknownTopicField is substituted for both topic fields when the channel
// topic is absent or malformed.
const UnknownTopicField = "Unknown"

// Config is the ticket policy: naming convention, platform IDs and close
// behavior.
type Config struct {
	TicketPrefix  string
	CategoryID    string
	SupportRoleID string
	AllowedRoleID string
	LogChannelID  string
	PageTimeout   time.Duration
}

// Service provides ticket lifecycle business logic.
type Service struct {
	cfg         Config
	events      *core.EventLog
	platform    platform.Client
	tickets     store.TicketStore
	transcripts *transcript.Store
	log         *zerolog.Logger
}

// New creates a ticket service.
func New(cfg Config, events *core.EventLog, client platform.Client, tickets store.TicketStore, transcripts *transcript.Store, logger *zerolog.Logger) *Service {
	if cfg.TicketPrefix == "" {
		cfg.TicketPrefix = "ticket-"
	}
	return &Service{
		cfg:         cfg,
		events:      events,
		platform:    client,
		tickets:     tickets,
		transcripts: transcripts,
		log:         logger,
	}
}

// IsTicketChannel reports whether a channel name matches the ticket naming
// convention. This is the single scope filter for event capture.
func (s *Service) IsTicketChannel(name string) bool {
	return strings.HasPrefix(name, s.cfg.TicketPrefix)
}

// Open creates a private ticket channel for the actor and starts tracking
// it. One open ticket per user: a second open while the first channel still
// exists fails with ErrTicketExists.
func (s *Service) Open(ctx context.Context, actor proto.Actor, category string) (*proto.Channel, error) {
	if s.cfg.AllowedRoleID != "" && !hasRole(actor, s.cfg.AllowedRoleID) {
		return nil, ErrPermissionDenied
	}

	name := s.channelName(actor)

	existing, err := s.platform.FindChannelByName(ctx, name)
	if err == nil {
		return nil, fmt.Errorf("%w: %s", ErrTicketExists, existing.Name)
	}
	if !errors.Is(err, platform.ErrNotFound) {
		return nil, fmt.Errorf("check existing ticket: %w", err)
	}

	openTime := time.Now().UTC().Format("02/01/2006, 15:04:05") + " UTC"
	ch, err := s.platform.CreateChannel(ctx, platform.CreateChannelRequest{
		Name:       name,
		Topic:      actor.ID + "|" + openTime,
		ParentID:   s.cfg.CategoryID,
		AllowUsers: []string{actor.ID},
		AllowRoles: []string{s.cfg.SupportRoleID},
	})
	if err != nil {
		return nil, fmt.Errorf("create ticket channel: %w", err)
	}

	s.events.OpenChannel(ch.ID)

	welcome := fmt.Sprintf("Hello <@%s>, a staff member <@&%s> will assist you shortly!", actor.ID, s.cfg.SupportRoleID)
	if err := s.platform.SendMessage(ctx, ch.ID, welcome); err != nil {
		s.log.Warn().Err(err).Str("channel_id", ch.ID).Msg("failed to send welcome message")
	}

	s.log.Info().
		Str("channel_id", ch.ID).
		Str("channel_name", ch.Name).
		Str("opened_by", actor.ID).
		Str("category", category).
		Msg("ticket opened")

	return ch, nil
}

// RecordMessageCreate captures a new message if the channel is in scope.
func (s *Service) RecordMessageCreate(data proto.MessageCreateData) {
	if !s.IsTicketChannel(data.ChannelName) {
		return
	}

	snap := core.BuildSnapshot(data.Message)
	if err := s.events.RecordCreate(data.Message.ChannelID, snap); err != nil {
		s.log.Debug().Err(err).Str("channel_id", data.Message.ChannelID).Msg("dropped create event")
	}
}

// RecordMessageUpdate captures an edit if the channel is in scope.
func (s *Service) RecordMessageUpdate(data proto.MessageUpdateData) {
	if !s.IsTicketChannel(data.ChannelName) {
		return
	}

	snap := core.BuildSnapshot(data.Message)
	if err := s.events.RecordEdit(data.Message.ChannelID, data.Message.ID, snap, data.OldContent); err != nil {
		s.log.Debug().Err(err).Str("channel_id", data.Message.ChannelID).Msg("dropped edit event")
	}
}

// RecordMessageDelete captures a deletion if the channel is in scope.
func (s *Service) RecordMessageDelete(data proto.MessageDeleteData) {
	if !s.IsTicketChannel(data.ChannelName) {
		return
	}

	fallback := core.DeleteEvent{Content: data.Content}
	if data.Author != nil {
		fallback.AuthorID = data.Author.ID
		fallback.AuthorTag = data.Author.Tag
	}
	if err := s.events.RecordDelete(data.ChannelID, data.MessageID, fallback); err != nil {
		s.log.Debug().Err(err).Str("channel_id", data.ChannelID).Msg("dropped delete event")
	}
}

// Close runs the close pipeline for a ticket channel: fence the event log,
// reconcile history with buffered events, render and persist the transcript,
// index the ticket, notify, clear capture state, and delete the channel.
//
// A history fetch or transcript write failure aborts before any state is
// cleared; the ticket stays open and re-issuing the close command is the
// retry path. Notification failures never block the close. Channel deletion
// failure is logged only: the transcript is the durable record.
func (s *Service) Close(ctx context.Context, channelID string, actor proto.Actor) (*store.Ticket, error) {
	ch, err := s.platform.GetChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if !s.IsTicketChannel(ch.Name) {
		return nil, ErrNotTicketChannel
	}

	if err := s.events.BeginClose(channelID); err != nil {
		return nil, err
	}

	ticketID := utils.NewTicketID()
	logger := s.log.With().
		Str("ticket_id", ticketID).
		Str("channel_id", channelID).
		Str("close_id", uuid.NewString()).
		Logger()

	fetch := func(ctx context.Context, beforeID string, limit int) ([]proto.Message, error) {
		return s.platform.FetchMessages(ctx, channelID, beforeID, limit)
	}
	merged, err := core.Reconcile(ctx, fetch, s.events.Drain(channelID), s.cfg.PageTimeout)
	if err != nil {
		if abortErr := s.events.AbortClose(channelID); abortErr != nil {
			logger.Error().Err(abortErr).Msg("failed to abort close")
		}
		return nil, fmt.Errorf("%w: %w", ErrHistoryFetch, err)
	}

	openedBy, openTime := parseTopic(ch.Topic)
	meta := transcript.TicketMeta{
		TicketID:    ticketID,
		ChannelName: ch.Name,
		OpenedByID:  openedBy,
		OpenedByTag: openerTag(openedBy),
		OpenTime:    openTime,
	}

	doc, unknownRows := transcript.Render(meta, merged)
	if unknownRows > 0 {
		logger.Warn().Int("rows", unknownRows).Msg("transcript contains fallback rows for unrecognized events")
	}

	path, err := s.transcripts.Write(ticketID, doc)
	if err != nil {
		if abortErr := s.events.AbortClose(channelID); abortErr != nil {
			logger.Error().Err(abortErr).Msg("failed to abort close")
		}
		return nil, fmt.Errorf("write transcript: %w", err)
	}

	ticket := &store.Ticket{
		ID:             ticketID,
		ChannelID:      channelID,
		ChannelName:    ch.Name,
		OpenedBy:       openedBy,
		OpenTime:       openTime,
		ClosedBy:       actor.Tag,
		ClosedAt:       time.Now().UTC(),
		EventCount:     len(merged),
		TranscriptPath: path,
	}
	if err := s.tickets.SaveTicket(ctx, ticket); err != nil {
		// The transcript on disk is the durable record; a missing index row
		// is operator-visible but must not undo the close.
		logger.Error().Err(err).Msg("failed to index closed ticket")
	}

	s.notify(ctx, &logger, ticket, actor)

	s.events.Clear(channelID)

	reason := fmt.Sprintf("Ticket closed by %s - %s", actor.Tag, ticketID)
	if err := s.platform.DeleteChannel(ctx, channelID, reason); err != nil {
		logger.Error().Err(err).Msg("failed to delete ticket channel")
	}

	logger.Info().Int("events", len(merged)).Str("closed_by", actor.Tag).Msg("ticket closed")
	return ticket, nil
}

// notify fans out the close summary: ops log channel, closing actor, and
// the ticket opener. All three are best-effort.
func (s *Service) notify(ctx context.Context, logger *zerolog.Logger, ticket *store.Ticket, actor proto.Actor) {
	summary := fmt.Sprintf("Ticket closed. ID: %s | Channel: %s | Closed by: %s",
		ticket.ID, ticket.ChannelName, actor.Tag)

	if s.cfg.LogChannelID != "" {
		if err := s.platform.SendMessage(ctx, s.cfg.LogChannelID, summary); err != nil {
			logger.Warn().Err(err).Msg("failed to post close summary to log channel")
		}
	}

	if err := s.platform.SendDirect(ctx, actor.ID, summary); err != nil {
		logger.Debug().Err(err).Str("user_id", actor.ID).Msg("failed to notify closing actor")
	}

	if ticket.OpenedBy != UnknownTopicField && ticket.OpenedBy != actor.ID {
		if err := s.platform.SendDirect(ctx, ticket.OpenedBy, summary); err != nil {
			logger.Debug().Err(err).Str("user_id", ticket.OpenedBy).Msg("failed to notify ticket opener")
		}
	}
}

func (s *Service) channelName(actor proto.Actor) string {
	name := s.cfg.TicketPrefix + utils.SanitizeChannelName(actor.Username)
	if actor.Discriminator != "" {
		name += "-" + actor.Discriminator
	}
	return name
}

// parseTopic splits the `<openerUserId>|<openTime>` topic encoding. Absent
// or malformed topics yield the Unknown sentinel for both fields.
func parseTopic(topic string) (openedBy, openTime string) {
	parts := strings.SplitN(topic, "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return UnknownTopicField, UnknownTopicField
	}
	return parts[0], parts[1]
}

func openerTag(openedBy string) string {
	if openedBy == UnknownTopicField {
		return UnknownTopicField
	}
	return "<@" + openedBy + ">"
}

func hasRole(actor proto.Actor, roleID string) bool {
	for _, r := range actor.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}
