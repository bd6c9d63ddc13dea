package metrics

import (
	"errors"
	"testing"
	"time"

	"socialmedia/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"validation", domain.Invalid("bad"), "invalid"},
		{"conflict", domain.ErrConflict, "conflict"},
		{"storage", domain.NewStorageError("op", errors.New("down")), "error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Outcome(tc.err))
		})
	}
}

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg, nil))
	require.NoError(t, Register(reg, nil))
}

func TestObserveStorage(t *testing.T) {
	before := testutil.CollectAndCount(StorageDuration)
	ObserveStorage("test.observe", nil, 3*time.Millisecond)
	require.Equal(t, before+1, testutil.CollectAndCount(StorageDuration))
}
