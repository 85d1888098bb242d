// Package chat is the client for ticket-scoped messaging between an
// applicant and the marketplace's support staff.
package chat

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"filedesk/internal/api"
)

// Message is one chat message in a ticket thread.
type Message struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// TypingState is the cosmetic "someone is typing" indicator.
type TypingState struct {
	TicketID string `json:"ticketId"`
	Typing   bool   `json:"typing"`
	By       string `json:"by"`
}

// Service issues the chat operations. Send, MarkRead and History fail
// loud; TypingStatus degrades to the zero value so a broken indicator
// never breaks the thread view.
type Service struct {
	client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Send posts one message to a ticket thread.
func (s *Service) Send(ctx context.Context, ticketID, text string) (*Message, error) {
	raw, err := s.client.Post(ctx, fmt.Sprintf("/chat/%s/messages", url.PathEscape(ticketID)), map[string]string{
		"text": text,
	})
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := api.DecodeInto(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// History fetches the full thread for a ticket.
func (s *Service) History(ctx context.Context, ticketID string) ([]Message, error) {
	raw, err := s.client.Get(ctx, fmt.Sprintf("/chat/%s/messages", url.PathEscape(ticketID)))
	if err != nil {
		return nil, err
	}
	var messages []Message
	if err := api.DecodeInto(raw, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead marks the whole thread read for the current user.
func (s *Service) MarkRead(ctx context.Context, ticketID string) error {
	_, err := s.client.Put(ctx, fmt.Sprintf("/chat/%s/read", url.PathEscape(ticketID)), nil)
	return err
}

// TypingStatus reads the typing indicator for a ticket. Failures degrade
// to the zero value; the indicator is cosmetic.
func (s *Service) TypingStatus(ctx context.Context, ticketID string) TypingState {
	raw, err := s.client.Get(ctx, fmt.Sprintf("/chat/%s/typing", url.PathEscape(ticketID)))
	if err != nil {
		log.Printf("Chat: typing status read failed for ticket %s: %v", ticketID, err)
		return TypingState{TicketID: ticketID}
	}
	var state TypingState
	if err := api.DecodeInto(raw, &state); err != nil {
		log.Printf("Chat: typing status decode failed for ticket %s: %v", ticketID, err)
		return TypingState{TicketID: ticketID}
	}
	if state.TicketID == "" {
		state.TicketID = ticketID
	}
	return state
}
