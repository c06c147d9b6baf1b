package grpc

import (
	"context"
	stderrors "errors"
	"estate-desk/auth"
	"estate-desk/domain"
	"estate-desk/errors"
	"estate-desk/runtime"
	"io"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var _ runtime.MessageStore = (*Client)(nil)

// Client calls the desk on behalf of the principal of its token.
// Errors carrying a domain sentinel are restored so callers can match them with errors.Is.
type Client struct {
	conn *gogrpc.ClientConn
}

// Dial opens a connection authenticated by token. Plain text is only meant for local setups.
func Dial(target, token string, opts ...gogrpc.DialOption) (*Client, error) {
	opts = append([]gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithPerRPCCredentials(auth.BearerToken{Token: token, Insecure: true}),
	}, opts...)
	conn, err := gogrpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

func NewClient(conn *gogrpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Conn exposes the connection to the standard services, health among them.
func (c *Client) Conn() *gogrpc.ClientConn {
	return c.conn
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	err := c.conn.Invoke(ctx, method, in, out, gogrpc.CallContentSubtype(CodecName))
	return errors.FromGRPCError(err)
}

func (c *Client) CreateAppointment(ctx context.Context, cmd domain.CreateAppointmentCommand) (domain.Appointment, error) {
	out := new(Appointment)
	err := c.invoke(ctx, AppointmentService_Create_FullMethodName, &CreateAppointmentRequest{
		PropertyID:     cmd.PropertyID,
		AgentEmail:     cmd.AgentEmail,
		ClientEmail:    cmd.ClientEmail,
		ClientName:     cmd.ClientName,
		DateTime:       cmd.DateTime,
		Comment:        cmd.Comment,
		IdempotencyKey: cmd.IdempotencyKey,
	}, out)
	if err != nil {
		return domain.Appointment{}, err
	}
	return fromAppointment(*out)
}

func (c *Client) TransitionAppointment(ctx context.Context, cmd domain.TransitionAppointmentCommand) (domain.Appointment, error) {
	out := new(Appointment)
	err := c.invoke(ctx, AppointmentService_Transition_FullMethodName, &TransitionAppointmentRequest{
		AppointmentID: cmd.AppointmentID,
		Status:        string(cmd.Status),
		Comment:       cmd.Comment,
	}, out)
	if err != nil {
		return domain.Appointment{}, err
	}
	return fromAppointment(*out)
}

func (c *Client) ListAppointments(ctx context.Context, role domain.AppointmentRole) ([]domain.Appointment, error) {
	out := new(ListAppointmentsResponse)
	if err := c.invoke(ctx, AppointmentService_List_FullMethodName, &ListAppointmentsRequest{Role: string(role)}, out); err != nil {
		return nil, err
	}
	res := make([]domain.Appointment, 0, len(out.Appointments))
	for _, a := range out.Appointments {
		appointment, err := fromAppointment(a)
		if err != nil {
			return nil, err
		}
		res = append(res, appointment)
	}
	return res, nil
}

// GetConversationsForUser lists the conversations of the token principal, email is not sent.
func (c *Client) GetConversationsForUser(ctx context.Context, _ string) ([]domain.Conversation, error) {
	out := new(ListConversationsResponse)
	if err := c.invoke(ctx, MessageService_ListConversations_FullMethodName, &ListConversationsRequest{}, out); err != nil {
		return nil, err
	}
	res := make([]domain.Conversation, 0, len(out.Conversations))
	for _, conv := range out.Conversations {
		conversation, err := fromConversation(conv)
		if err != nil {
			return nil, err
		}
		res = append(res, conversation)
	}
	return res, nil
}

func (c *Client) GetMessages(ctx context.Context, selection domain.Selection) ([]domain.Message, error) {
	out := new(GetMessagesResponse)
	err := c.invoke(ctx, MessageService_GetMessages_FullMethodName,
		&ConversationRequest{Other: selection.Other, PropertyID: selection.PropertyID}, out)
	if err != nil {
		return nil, err
	}
	return fromMessages(out.Messages)
}

// SendMessage sends as the token principal, cmd.SenderEmail is not sent.
func (c *Client) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	out := new(Message)
	err := c.invoke(ctx, MessageService_SendMessage_FullMethodName, &SendMessageRequest{
		ReceiverEmail: cmd.ReceiverEmail,
		PropertyID:    cmd.PropertyID,
		Content:       cmd.Content,
	}, out)
	if err != nil {
		return domain.Message{}, err
	}
	return fromMessage(*out)
}

func (c *Client) MarkMessagesRead(ctx context.Context, selection domain.Selection) (int, error) {
	out := new(MarkReadResponse)
	err := c.invoke(ctx, MessageService_MarkRead_FullMethodName,
		&ConversationRequest{Other: selection.Other, PropertyID: selection.PropertyID}, out)
	if err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Watch calls onEvent for every hint pushed by the server until ctx is done.
// A broken stream is reopened after retryDelay, polling covers the gap.
func (c *Client) Watch(ctx context.Context, retryDelay time.Duration, onEvent func(WatchEvent)) error {
	for {
		err := c.watchOnce(ctx, onEvent)
		if ctx.Err() != nil {
			return nil
		}
		if stderrors.Is(err, errors.ErrUnauthenticated) {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
	}
}

func (c *Client) watchOnce(ctx context.Context, onEvent func(WatchEvent)) error {
	stream, err := c.conn.NewStream(ctx, &MessageServiceDesc.Streams[0], MessageService_Watch_FullMethodName,
		gogrpc.CallContentSubtype(CodecName))
	if err != nil {
		return errors.FromGRPCError(err)
	}
	if err := stream.SendMsg(&WatchRequest{}); err != nil {
		return errors.FromGRPCError(err)
	}
	if err := stream.CloseSend(); err != nil {
		return errors.FromGRPCError(err)
	}
	for {
		evt := new(WatchEvent)
		if err := stream.RecvMsg(evt); err != nil {
			if stderrors.Is(err, io.EOF) {
				return nil
			}
			return errors.FromGRPCError(err)
		}
		onEvent(*evt)
	}
}
