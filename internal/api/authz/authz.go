package authz

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// ParticipantHeader carries the caller's participant id. Identity is
// asserted by the client or an upstream gateway; it is not verified here.
const ParticipantHeader = "X-Participant-ID"

type participantContextKey struct{}

func ContextWithParticipant(ctx context.Context, participantID string) context.Context {
	return context.WithValue(ctx, participantContextKey{}, participantID)
}

func ParticipantFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	participantID, _ := ctx.Value(participantContextKey{}).(string)
	return participantID
}

// RequireParticipant returns the participant id on the context or
// ErrUnauthenticated.
func RequireParticipant(ctx context.Context) (string, error) {
	participantID := strings.TrimSpace(ParticipantFromContext(ctx))
	if participantID == "" {
		return "", ErrUnauthenticated
	}
	return participantID, nil
}

// RequireOwner checks that the participant on the context is ownerID.
func RequireOwner(ctx context.Context, ownerID string) error {
	participantID, err := RequireParticipant(ctx)
	if err != nil {
		return err
	}
	if participantID != ownerID {
		return ErrForbidden
	}
	return nil
}
