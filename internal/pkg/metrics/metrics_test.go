package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordErrorResponse(t *testing.T) {
	before := testutil.ToFloat64(ErrorResponses("TimeoutFailure", 504))

	RecordErrorResponse("TimeoutFailure", 504)
	RecordErrorResponse("TimeoutFailure", 504)

	assert.Equal(t, before+2, testutil.ToFloat64(ErrorResponses("TimeoutFailure", 504)))
}

func TestRecordPanic(t *testing.T) {
	before := testutil.ToFloat64(Panics())
	RecordPanic()
	assert.Equal(t, before+1, testutil.ToFloat64(Panics()))
}

func TestRecordShutdown(t *testing.T) {
	assert.NotPanics(t, func() { RecordShutdown(250 * time.Millisecond) })
}
