package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/farmkeeper/internal/server/auth"
	"github.com/dmitrijs2005/farmkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/farmkeeper/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var errUnauthenticated = status.Error(codes.Unauthenticated, "unauthorized")

type ctxKey string

const UserIDKey ctxKey = "userID"

// authorizationMetadataKey is the lower-cased HTTP Authorization header, as
// gRPC metadata keys are always lower case.
const authorizationMetadataKey = "authorization"

// Health checks must work without credentials so load balancers can probe.
const healthServicePrefix = "/grpc.health.v1.Health/"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, bool)
}

// UserIDFromContext returns the id the interceptor stored for the caller.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

func (s *GRPCServer) authenticate(ctx context.Context, fullMethod string) (context.Context, error) {
	if strings.HasPrefix(fullMethod, healthServicePrefix) {
		return ctx, nil
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(authorizationMetadataKey); len(values) > 0 {
			header = values[0]
		}
	}

	// A missing header and a bad token look the same to the caller.
	token, ok := auth.ExtractBearerToken(header)
	if !ok {
		s.metrics.AuthFailed(metrics.TransportGRPC)
		return nil, errUnauthenticated
	}

	user, ok := s.authn.Authenticate(ctx, token)
	if !ok {
		s.metrics.AuthFailed(metrics.TransportGRPC)
		return nil, errUnauthenticated
	}

	return context.WithValue(ctx, UserIDKey, user.ID), nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx, err := s.authenticate(ctx, info.FullMethod)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (a *authenticatedStream) Context() context.Context { return a.ctx }

func (s *GRPCServer) streamAccessTokenInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.authenticate(ss.Context(), info.FullMethod)
	if err != nil {
		return err
	}
	return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
}
