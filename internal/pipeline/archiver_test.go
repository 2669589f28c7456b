package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextCronTime(t *testing.T) {
	after := time.Date(2026, 3, 10, 14, 30, 45, 0, time.UTC)

	next, err := nextCronTime("0 3 * * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC), next)

	next, err = nextCronTime("15 * * * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 15, 15, 0, 0, time.UTC), next)

	next, err = nextCronTime("0 0 1 * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), next)
}

func TestNextCronTimeRejectsMalformedExpressions(t *testing.T) {
	_, err := nextCronTime("0 3 * *", time.Now())
	require.Error(t, err)

	_, err = nextCronTime("x 3 * * *", time.Now())
	require.Error(t, err)
}
