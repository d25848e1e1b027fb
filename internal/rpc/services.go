package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	AuthServiceName = "homeservices.v1.AuthService"
	UserServiceName = "homeservices.v1.UserService"
	HomeServiceName = "homeservices.v1.HomeService"
)

// Full method names, as seen by interceptors in grpc.UnaryServerInfo.
const (
	AuthService_Login_FullMethodName   = "/" + AuthServiceName + "/Login"
	AuthService_Signup_FullMethodName  = "/" + AuthServiceName + "/Signup"
	AuthService_Refresh_FullMethodName = "/" + AuthServiceName + "/Refresh"
	AuthService_Logout_FullMethodName  = "/" + AuthServiceName + "/Logout"

	UserService_SyncUser_FullMethodName       = "/" + UserServiceName + "/SyncUser"
	UserService_ListUsers_FullMethodName      = "/" + UserServiceName + "/ListUsers"
	UserService_DeleteUser_FullMethodName     = "/" + UserServiceName + "/DeleteUser"
	UserService_UpdateUserRole_FullMethodName = "/" + UserServiceName + "/UpdateUserRole"
)

type AuthServiceServer interface {
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Signup(context.Context, *SignupRequest) (*AuthResponse, error)
	Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error)
	Logout(context.Context, *LogoutRequest) (*SuccessResponse, error)
}

type UserServiceServer interface {
	SyncUser(context.Context, *SyncUserRequest) (*SuccessResponse, error)
	ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error)
	DeleteUser(context.Context, *DeleteUserRequest) (*SuccessResponse, error)
	UpdateUserRole(context.Context, *UpdateUserRoleRequest) (*SuccessResponse, error)
}

type HomeServiceServer interface {
	ListProperties(context.Context, *ListPropertiesRequest) (*ListPropertiesResponse, error)
	CreateProperty(context.Context, *CreatePropertyRequest) (*PropertyResponse, error)

	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	GetAppointment(context.Context, *GetAppointmentRequest) (*AppointmentResponse, error)
	CreateAppointment(context.Context, *CreateAppointmentRequest) (*AppointmentResponse, error)
	UpdateAppointmentStatus(context.Context, *UpdateAppointmentStatusRequest) (*AppointmentResponse, error)
	SetTaskCompleted(context.Context, *SetTaskCompletedRequest) (*AppointmentResponse, error)

	ListBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error)
	CreateBooking(context.Context, *CreateBookingRequest) (*BookingResponse, error)
	CancelBooking(context.Context, *CancelBookingRequest) (*BookingResponse, error)

	ListRecurringServices(context.Context, *ListRecurringServicesRequest) (*ListRecurringServicesResponse, error)
	CreateRecurringService(context.Context, *CreateRecurringServiceRequest) (*RecurringServiceResponse, error)
	PauseRecurringService(context.Context, *RecurringServiceRequest) (*RecurringServiceResponse, error)
	ResumeRecurringService(context.Context, *RecurringServiceRequest) (*RecurringServiceResponse, error)
	CancelRecurringService(context.Context, *RecurringServiceRequest) (*RecurringServiceResponse, error)

	ListDocuments(context.Context, *ListDocumentsRequest) (*ListDocumentsResponse, error)
	ExpiringDocuments(context.Context, *ExpiringDocumentsRequest) (*ExpiringDocumentsResponse, error)
	GetDocument(context.Context, *GetDocumentRequest) (*DocumentResponse, error)
	SaveDocument(context.Context, *SaveDocumentRequest) (*DocumentResponse, error)
	DeleteDocument(context.Context, *DeleteDocumentRequest) (*SuccessResponse, error)

	GetReferralCard(context.Context, *GetReferralCardRequest) (*ReferralCardResponse, error)
	ShareReferralCard(context.Context, *ShareReferralCardRequest) (*ShareReferralCardResponse, error)
}

// method builds the MethodDesc for one unary call. fn is a method expression
// on the server interface, e.g. AuthServiceServer.Login.
func method[S, Req, Resp any](service, name string, fn func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(AuthServiceName, "Login", AuthServiceServer.Login),
		method(AuthServiceName, "Signup", AuthServiceServer.Signup),
		method(AuthServiceName, "Refresh", AuthServiceServer.Refresh),
		method(AuthServiceName, "Logout", AuthServiceServer.Logout),
	},
	Metadata: "homeservices/v1/auth",
}

var UserService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: UserServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(UserServiceName, "SyncUser", UserServiceServer.SyncUser),
		method(UserServiceName, "ListUsers", UserServiceServer.ListUsers),
		method(UserServiceName, "DeleteUser", UserServiceServer.DeleteUser),
		method(UserServiceName, "UpdateUserRole", UserServiceServer.UpdateUserRole),
	},
	Metadata: "homeservices/v1/users",
}

var HomeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: HomeServiceName,
	HandlerType: (*HomeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method(HomeServiceName, "ListProperties", HomeServiceServer.ListProperties),
		method(HomeServiceName, "CreateProperty", HomeServiceServer.CreateProperty),
		method(HomeServiceName, "ListAppointments", HomeServiceServer.ListAppointments),
		method(HomeServiceName, "GetAppointment", HomeServiceServer.GetAppointment),
		method(HomeServiceName, "CreateAppointment", HomeServiceServer.CreateAppointment),
		method(HomeServiceName, "UpdateAppointmentStatus", HomeServiceServer.UpdateAppointmentStatus),
		method(HomeServiceName, "SetTaskCompleted", HomeServiceServer.SetTaskCompleted),
		method(HomeServiceName, "ListBookings", HomeServiceServer.ListBookings),
		method(HomeServiceName, "CreateBooking", HomeServiceServer.CreateBooking),
		method(HomeServiceName, "CancelBooking", HomeServiceServer.CancelBooking),
		method(HomeServiceName, "ListRecurringServices", HomeServiceServer.ListRecurringServices),
		method(HomeServiceName, "CreateRecurringService", HomeServiceServer.CreateRecurringService),
		method(HomeServiceName, "PauseRecurringService", HomeServiceServer.PauseRecurringService),
		method(HomeServiceName, "ResumeRecurringService", HomeServiceServer.ResumeRecurringService),
		method(HomeServiceName, "CancelRecurringService", HomeServiceServer.CancelRecurringService),
		method(HomeServiceName, "ListDocuments", HomeServiceServer.ListDocuments),
		method(HomeServiceName, "ExpiringDocuments", HomeServiceServer.ExpiringDocuments),
		method(HomeServiceName, "GetDocument", HomeServiceServer.GetDocument),
		method(HomeServiceName, "SaveDocument", HomeServiceServer.SaveDocument),
		method(HomeServiceName, "DeleteDocument", HomeServiceServer.DeleteDocument),
		method(HomeServiceName, "GetReferralCard", HomeServiceServer.GetReferralCard),
		method(HomeServiceName, "ShareReferralCard", HomeServiceServer.ShareReferralCard),
	},
	Metadata: "homeservices/v1/home",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&UserService_ServiceDesc, srv)
}

func RegisterHomeServiceServer(s grpc.ServiceRegistrar, srv HomeServiceServer) {
	s.RegisterService(&HomeService_ServiceDesc, srv)
}

// Invoke calls a unary method over cc with the JSON codec.
func Invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, fullMethod string, in *Req, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
