package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_Merge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		base  User
		patch User
		want  User
	}{
		{
			name:  "fills empty record",
			base:  User{},
			patch: User{Email: "a@x.com", SessionToken: "t1"},
			want:  User{Email: "a@x.com", SessionToken: "t1"},
		},
		{
			name:  "keeps fields missing from patch",
			base:  User{Email: "a@x.com", PasswordHash: "h", SessionToken: "t1"},
			patch: User{Email: "a@x.com", SessionToken: "t2"},
			want:  User{Email: "a@x.com", PasswordHash: "h", SessionToken: "t2"},
		},
		{
			name:  "empty patch is a no-op",
			base:  User{Email: "a@x.com", PasswordHash: "h"},
			patch: User{},
			want:  User{Email: "a@x.com", PasswordHash: "h"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			u := tt.base
			u.Merge(&tt.patch)
			assert.Equal(t, tt.want, u)
		})
	}
}

func TestPendingSignup_IsExpiredAt(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := &PendingSignup{Code: 123456, CreatedAt: created}

	assert.False(t, p.IsExpiredAt(created.Add(24*365*time.Hour), 0), "zero ttl never expires")
	assert.False(t, p.IsExpiredAt(created.Add(10*time.Minute), 15*time.Minute))
	assert.True(t, p.IsExpiredAt(created.Add(16*time.Minute), 15*time.Minute))
}
