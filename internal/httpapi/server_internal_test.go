package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWriteTimeoutTracksSynthesisTimeout(t *testing.T) {
	t.Parallel()

	// A three minute synthesis timeout must not be cut off by the write
	// timeout.
	server := NewServer("127.0.0.1:0", nil, nil, nil, false, 3*time.Minute, nil)

	assert.Equal(t, 3*time.Minute+writeHeadroom, server.httpServer.WriteTimeout)
	assert.Greater(t, server.httpServer.WriteTimeout, 3*time.Minute)
}
