package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestStart_NoopProviderIsSafe(t *testing.T) {
	ctx, span := Start(context.Background(), "emitter", "emit", attribute.String("kind", "GUARANTEE_UPDATE"))
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		Fail(span, errors.New("bus closed"))
		Fail(span, nil)
	})
}
