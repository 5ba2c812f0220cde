package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMood(t *testing.T) {
	for _, m := range AllMoods {
		got, err := ParseMood(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseMood("  HaPpY ")
	require.NoError(t, err)
	assert.Equal(t, MoodHappy, got)

	_, err = ParseMood("melancholic")
	assert.Error(t, err)
}

func TestFeedbackValidate(t *testing.T) {
	tests := []struct {
		name    string
		fb      Feedback
		wantErr bool
	}{
		{name: "valid", fb: Feedback{UserID: "u1", SongID: "s1", Rating: 5}},
		{name: "lowest rating", fb: Feedback{UserID: "u1", SongID: "s1", Rating: MinRating}},
		{name: "missing user", fb: Feedback{SongID: "s1", Rating: 3}, wantErr: true},
		{name: "missing song", fb: Feedback{UserID: "u1", Rating: 3}, wantErr: true},
		{name: "rating too low", fb: Feedback{UserID: "u1", SongID: "s1", Rating: 0}, wantErr: true},
		{name: "rating too high", fb: Feedback{UserID: "u1", SongID: "s1", Rating: 6}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fb.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RequestID(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestID(ctx))
	assert.NotNil(t, Logger(ctx))
}
