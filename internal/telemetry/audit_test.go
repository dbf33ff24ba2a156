package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"deckchat-service/internal/mocks"
	"deckchat-service/internal/telemetry"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.deckchat", "deckchat-service", "test")

	userID := "42"
	publisher.On("Publish", mock.Anything, "audit.deckchat", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		if !ok {
			return false
		}
		return envelope.SchemaVersion == 1 &&
			envelope.EventType == "audit_log" &&
			envelope.Service == "deckchat-service" &&
			envelope.Environment == "test" &&
			envelope.RequestID == "req-1" &&
			envelope.UserID != nil && *envelope.UserID == "42" &&
			envelope.Level == "INFO" &&
			envelope.Text == "messages deleted"
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "messages deleted", "req-1", &userID)
	publisher.AssertExpectations(t)
}

func TestEmitSwallowsPublishError(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.deckchat", "deckchat-service", "test")

	publisher.On("Publish", mock.Anything, "audit.deckchat", mock.Anything).Return(context.DeadlineExceeded).Once()

	emitter.Emit(context.Background(), "ERROR", "internal error", "req-2", nil)
	publisher.AssertExpectations(t)
}

func TestEmitNilEmitterIsNoop(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	emitter.Emit(context.Background(), "INFO", "ignored", "req-3", nil)
}
