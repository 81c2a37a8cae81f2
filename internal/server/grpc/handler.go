package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email := req.GetFields()["email"].GetStringValue()
	password := req.GetFields()["password"].GetStringValue()
	if email == "" || password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	user, err := s.auth.LoginUserWithEmailAndPassword(ctx, email, password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	tokens, err := s.tokens.GenerateAuthTokens(ctx, user)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Logged in", "user_id", user.ID)
	return toStruct(map[string]any{"user": user, "tokens": tokens})
}

func (s *GRPCServer) RefreshTokens(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token is required")
	}

	tokens, err := s.auth.RefreshAuth(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toStruct(tokens)
}

func (s *GRPCServer) Logout(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token is required")
	}

	if err := s.auth.Logout(ctx, req.GetValue()); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	user := userFromContext(ctx)
	if user == nil {
		return nil, status.Error(codes.Unauthenticated, "Please authenticate")
	}
	return toStruct(user)
}

// toStruct converts v through its JSON form, so the JSON tags decide what
// is exposed.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	msg := func(fallback string) string { return common.Message(err, fallback) }

	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.InvalidArgument, msg("invalid argument"))
	case errors.Is(err, common.ErrInvalidCredentials), errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, msg("unauthorized"))
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, msg("forbidden"))
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, msg("not found"))
	}

	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}
