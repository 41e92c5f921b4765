package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/containersuper/bct-crm/pkg/apperr"
)

func TestMeterSpendWithinLimit(t *testing.T) {
	m := NewMeter(10)

	require.NoError(t, m.Spend(UnitList))
	require.NoError(t, m.Spend(UnitGet))
	assert.Equal(t, 6, m.Used())
	assert.Equal(t, 4, m.Remaining())
}

func TestMeterSoftStop(t *testing.T) {
	m := NewMeter(6)

	require.NoError(t, m.Spend(UnitGet))

	// The next get would cross the ceiling: refused, nothing recorded.
	err := m.Spend(UnitGet)
	require.Error(t, err)
	assert.True(t, apperr.IsQuotaExceeded(err))
	assert.Equal(t, 5, m.Used())

	// Smaller spends still fit.
	require.NoError(t, m.Spend(UnitList))
	assert.Equal(t, 6, m.Used())
}

func TestMeterUnlimited(t *testing.T) {
	m := NewMeter(0)

	require.NoError(t, m.Spend(UnitSend))
	require.NoError(t, m.Spend(UnitSend))
	assert.Equal(t, 200, m.Used())
	assert.Equal(t, -1, m.Remaining())
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(ctx))
	}
}

func TestLimiterBurst(t *testing.T) {
	l := NewLimiter(1000, 5)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(ctx))
	}
}

func TestLimiterHonorsContext(t *testing.T) {
	// One token per hour: the second wait cannot succeed before cancellation.
	l := NewLimiter(1.0/3600, 1)

	ctx := context.Background()
	require.NoError(t, l.Wait(ctx))

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx))
}
