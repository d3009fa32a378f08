package service

import (
	"context"
	"errors"

	"hirocks/internal/auth"
	"hirocks/internal/repository"
	"hirocks/models"
)

// requireCaller returns the authenticated caller or an Unauthenticated error.
func requireCaller(ctx context.Context) (*auth.Caller, error) {
	caller, ok := auth.CallerFrom(ctx)
	if !ok {
		return nil, models.NewUnauthenticatedError()
	}
	return caller, nil
}

// upstream wraps a store failure unless it already is an AppError.
func upstream(message string, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewUpstreamError(message, err)
}

// notFoundOr maps a missing row to notFound and anything else to an upstream failure.
func notFoundOr(err error, notFound *models.AppError, message string) error {
	if repository.IsNotFound(err) {
		return notFound
	}
	return upstream(message, err)
}

// callerOf returns the caller's user id when the request is authenticated.
func callerOf(ctx context.Context) (uint, bool) {
	userID := auth.UserIDFrom(ctx)
	return userID, userID != 0
}
