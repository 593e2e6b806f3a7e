package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vudoc/vudoc/internal/hostabi"
)

func TestRunWaitCollectsCleanOutcomes(t *testing.T) {
	s, err := New(4)
	require.NoError(t, err)
	defer s.Release()

	require.NoError(t, s.Run("A", func() error { return nil }))
	require.NoError(t, s.Run("B", func() error { return nil }))

	outcomes := s.Wait()
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		require.Nil(t, o.Panic)
		require.NoError(t, o.Err)
	}
}

func TestRunCapturesSpiritPanic(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)
	defer s.Release()

	require.NoError(t, s.Run("A", func() error { return &hostabi.SpiritPanic{Message: "boom"} }))
	outcomes := s.Wait()
	require.Len(t, outcomes, 1)
	require.NotNil(t, outcomes[0].Panic)
	require.Equal(t, "boom", outcomes[0].Panic.Message)
}

func TestRunCapturesOtherErrorsSeparatelyFromPanic(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)
	defer s.Release()

	sentinel := errors.New("trap")
	require.NoError(t, s.Run("A", func() error { return sentinel }))
	outcomes := s.Wait()
	require.Len(t, outcomes, 1)
	require.Nil(t, outcomes[0].Panic)
	require.ErrorIs(t, outcomes[0].Err, sentinel)
}

func TestRunRecoversUnguardedGoPanic(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)
	defer s.Release()

	require.NoError(t, s.Run("A", func() error { panic("unexpected") }))
	outcomes := s.Wait()
	require.Len(t, outcomes, 1)
	require.Error(t, outcomes[0].Err)
}
