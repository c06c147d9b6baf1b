package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
)

const (
	AppointmentServiceName = "estate.v1.AppointmentService"
	MessageServiceName     = "estate.v1.MessageService"

	AppointmentService_Create_FullMethodName     = "/estate.v1.AppointmentService/Create"
	AppointmentService_Transition_FullMethodName = "/estate.v1.AppointmentService/Transition"
	AppointmentService_List_FullMethodName       = "/estate.v1.AppointmentService/List"

	MessageService_ListConversations_FullMethodName = "/estate.v1.MessageService/ListConversations"
	MessageService_GetMessages_FullMethodName       = "/estate.v1.MessageService/GetMessages"
	MessageService_SendMessage_FullMethodName       = "/estate.v1.MessageService/SendMessage"
	MessageService_MarkRead_FullMethodName          = "/estate.v1.MessageService/MarkRead"
	MessageService_Watch_FullMethodName             = "/estate.v1.MessageService/Watch"
)

type AppointmentServiceServer interface {
	Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error)
	Transition(ctx context.Context, req *TransitionAppointmentRequest) (*Appointment, error)
	List(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
}

type MessageServiceServer interface {
	ListConversations(ctx context.Context, req *ListConversationsRequest) (*ListConversationsResponse, error)
	GetMessages(ctx context.Context, req *ConversationRequest) (*GetMessagesResponse, error)
	SendMessage(ctx context.Context, req *SendMessageRequest) (*Message, error)
	MarkRead(ctx context.Context, req *ConversationRequest) (*MarkReadResponse, error)
	Watch(req *WatchRequest, stream WatchServer) error
}

// WatchServer is the server side of the Watch stream.
type WatchServer interface {
	Send(*WatchEvent) error
	Context() context.Context
}

// unaryHandler decodes the request then runs call through the interceptor chain.
func unaryHandler[S any, Req any, Resp any](fullMethod string,
	call func(srv S, ctx context.Context, req *Req) (*Resp, error)) gogrpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AppointmentServiceDesc = gogrpc.ServiceDesc{
	ServiceName: AppointmentServiceName,
	HandlerType: (*AppointmentServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{
			MethodName: "Create",
			Handler: unaryHandler(AppointmentService_Create_FullMethodName,
				AppointmentServiceServer.Create),
		},
		{
			MethodName: "Transition",
			Handler: unaryHandler(AppointmentService_Transition_FullMethodName,
				AppointmentServiceServer.Transition),
		},
		{
			MethodName: "List",
			Handler: unaryHandler(AppointmentService_List_FullMethodName,
				AppointmentServiceServer.List),
		},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "estate/v1/appointment",
}

var MessageServiceDesc = gogrpc.ServiceDesc{
	ServiceName: MessageServiceName,
	HandlerType: (*MessageServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{
			MethodName: "ListConversations",
			Handler: unaryHandler(MessageService_ListConversations_FullMethodName,
				MessageServiceServer.ListConversations),
		},
		{
			MethodName: "GetMessages",
			Handler: unaryHandler(MessageService_GetMessages_FullMethodName,
				MessageServiceServer.GetMessages),
		},
		{
			MethodName: "SendMessage",
			Handler: unaryHandler(MessageService_SendMessage_FullMethodName,
				MessageServiceServer.SendMessage),
		},
		{
			MethodName: "MarkRead",
			Handler: unaryHandler(MessageService_MarkRead_FullMethodName,
				MessageServiceServer.MarkRead),
		},
	},
	Streams: []gogrpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "estate/v1/message",
}

func watchHandler(srv any, stream gogrpc.ServerStream) error {
	in := new(WatchRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(MessageServiceServer).Watch(in, &watchServerStream{ServerStream: stream})
}

type watchServerStream struct {
	gogrpc.ServerStream
}

func (s *watchServerStream) Send(e *WatchEvent) error {
	return s.ServerStream.SendMsg(e)
}
