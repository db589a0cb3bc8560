package deeplink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophstash/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	serviceName = "gophstash.deeplink.v1.DeepLink"
	openMethod  = "/" + serviceName + "/Open"
)

var (
	// ErrNoInstance is returned by Forward when no instance is listening.
	ErrNoInstance = errors.New("no running instance")

	// ErrAlreadyRunning is returned by Listen when another instance owns
	// the socket.
	ErrAlreadyRunning = errors.New("another instance is already running")
)

// openServer is the server side of the DeepLink service.
type openServer interface {
	Open(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*openServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Open", Handler: openHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophstash/deeplink/v1/deeplink.proto",
}

func openHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(openServer).Open(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: openMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(openServer).Open(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Server accepts callback URLs forwarded by later invocations of the app.
type Server struct {
	address string
	handler Handler
	logger  logging.Logger

	mu       sync.Mutex
	listener net.Listener
}

func NewServer(address string, h Handler, l logging.Logger) *Server {
	return &Server{
		address: address,
		handler: h,
		logger:  l.With("module", "deeplink_server"),
	}
}

func (s *Server) Open(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	raw := in.GetValue()
	s.logger.Debug(ctx, "Deep link received")

	if err := s.handler.HandleURL(ctx, raw); err != nil {
		var oe *OAuthError
		switch {
		case errors.Is(err, ErrNotCallback), errors.Is(err, ErrMissingTokens), errors.As(err, &oe):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		default:
			s.logger.Error(ctx, "Deep link handling failed", "error", err)
			return nil, status.Error(codes.Internal, err.Error())
		}
	}
	return &emptypb.Empty{}, nil
}

// Listen binds the unix socket. A socket file nobody answers on is left over
// from a crashed process and is removed first.
func (s *Server) Listen() error {
	if err := os.MkdirAll(filepath.Dir(s.address), 0o700); err != nil {
		return err
	}

	if _, err := os.Stat(s.address); err == nil {
		conn, err := net.DialTimeout("unix", s.address, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return ErrAlreadyRunning
		}
		if err := os.Remove(s.address); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
	}

	listen, err := net.Listen("unix", s.address)
	if err != nil {
		return err
	}
	_ = os.Chmod(s.address, 0o600)

	s.mu.Lock()
	s.listener = listen
	s.mu.Unlock()
	return nil
}

// Serve handles forwarded URLs until ctx is done. Listen must succeed first.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	listen := s.listener
	s.mu.Unlock()
	if listen == nil {
		return errors.New("deeplink: Serve called before Listen")
	}

	srv := grpc.NewServer()
	srv.RegisterService(&serviceDesc, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping deep link server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting deep link server", "address", s.address)

	err := srv.Serve(listen)
	_ = os.Remove(s.address)
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Run listens and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Forward sends rawURL to the instance listening on address. It returns
// ErrNoInstance when nobody is listening.
func Forward(ctx context.Context, address, rawURL string) error {
	if _, err := os.Stat(address); err != nil {
		return ErrNoInstance
	}

	abs, err := filepath.Abs(address)
	if err != nil {
		return err
	}
	conn, err := grpc.NewClient("unix://"+abs, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	err = conn.Invoke(ctx, openMethod, wrapperspb.String(rawURL), new(emptypb.Empty))
	if status.Code(err) == codes.Unavailable {
		return fmt.Errorf("%w: %v", ErrNoInstance, err)
	}
	return err
}
