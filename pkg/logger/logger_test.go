package logger

import (
	"context"
	"syscall"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSameInstance(t *testing.T) {
	first := Get(InfoLevel)
	require.NotNil(t, first)
	assert.Same(t, first, Get(DebugLevel))
}

func TestGetReturnsNoopWhenUnset(t *testing.T) {
	Get(InfoLevel)
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	assert.Same(t, &defaultNoopLogger, Get(InfoLevel))
	assert.Same(t, &defaultNoopLogger, FromContext(context.Background()))
}

func TestWithLogger(t *testing.T) {
	lgr := Get(InfoLevel)
	ctx := WithLogger(context.Background(), lgr)
	assert.Same(t, lgr, FromContext(ctx))
	assert.Equal(t, ctx, WithLogger(ctx, lgr), "same logger keeps the context")

	other := logr.Discard()
	replaced := WithLogger(ctx, &other)
	assert.Same(t, &other, FromContext(replaced))
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	assert.Same(t, Get(InfoLevel), FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    int8
		wantErr bool
	}{
		{in: "", want: InfoLevel},
		{in: "debug", want: DebugLevel},
		{in: "INFO", want: InfoLevel},
		{in: "warn", want: WarnLevel},
		{in: "error", want: ErrorLevel},
		{in: "-2", want: -2},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.NotEmpty(t, errors.GetAllHints(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyncWithoutLogger(t *testing.T) {
	orig := globalZapLogger
	globalZapLogger = nil
	defer func() { globalZapLogger = orig }()
	assert.NotPanics(t, Sync)
}

func TestIsIgnorableSyncError(t *testing.T) {
	assert.True(t, isIgnorableSyncError(syscall.ENOTTY))
	assert.True(t, isIgnorableSyncError(errors.Wrap(syscall.EINVAL, "sync /dev/stderr")))
	assert.True(t, isIgnorableSyncError(errors.New("The handle is invalid.")))
	assert.False(t, isIgnorableSyncError(errors.New("disk full")))
}

func TestWithValues(t *testing.T) {
	lgr := Get(InfoLevel)
	withValues := WithValues(lgr, "key", "value")
	require.NotNil(t, withValues)
	assert.NotSame(t, lgr, withValues)
	assert.NotPanics(t, func() { GetNoopLogger().Info("discarded") })
}
