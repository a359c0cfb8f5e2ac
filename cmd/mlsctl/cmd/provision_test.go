package cmd

import (
	"testing"

	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckClearanceFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{name: "Unclassified", value: 0},
		{name: "TopSecret", value: 3},
		{name: "JustAbove", value: 4, wantErr: true},
		{name: "Negative", value: -1, wantErr: true},
		{name: "WrapsToTopSecret", value: 259, wantErr: true},
		{name: "WrapsToUnclassified", value: 256, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := checkClearanceFlag(tt.value)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, blp.ErrInvalidRange)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProvisionCmd_RejectsClearanceBeforePrompt(t *testing.T) {
	rootCmd.SetArgs([]string{"provision", "carol", "--clearance", "259"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		provisionClearance = 0
	})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, blp.ErrInvalidRange)
}
