package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modhaven/mh-aggregator/internal/domain"
)

func TestDownloadEvent_SameIdentity(t *testing.T) {
	tests := []struct {
		name  string
		a, b  domain.DownloadEvent
		match bool
	}{
		{
			name:  "same IP",
			a:     domain.DownloadEvent{IPAddress: "10.0.0.1"},
			b:     domain.DownloadEvent{IPAddress: "10.0.0.1"},
			match: true,
		},
		{
			name:  "different IP, same user",
			a:     domain.DownloadEvent{IPAddress: "10.0.0.1", UserID: "u1"},
			b:     domain.DownloadEvent{IPAddress: "10.0.0.2", UserID: "u1"},
			match: true,
		},
		{
			name:  "different IP, different user",
			a:     domain.DownloadEvent{IPAddress: "10.0.0.1", UserID: "u1"},
			b:     domain.DownloadEvent{IPAddress: "10.0.0.2", UserID: "u2"},
			match: false,
		},
		{
			name:  "anonymous downloads never match on empty user",
			a:     domain.DownloadEvent{IPAddress: "10.0.0.1"},
			b:     domain.DownloadEvent{IPAddress: "10.0.0.2"},
			match: false,
		},
		{
			name:  "empty IPs do not match each other",
			a:     domain.DownloadEvent{UserID: "u1"},
			b:     domain.DownloadEvent{UserID: "u2"},
			match: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, tt.a.SameIdentity(tt.b))
			assert.Equal(t, tt.match, tt.b.SameIdentity(tt.a))
		})
	}
}

func TestTaskStatus_Terminal(t *testing.T) {
	assert.False(t, domain.TaskStatusEnqueued.Terminal())
	assert.False(t, domain.TaskStatusProcessing.Terminal())
	assert.True(t, domain.TaskStatusSucceeded.Terminal())
	assert.True(t, domain.TaskStatusFailed.Terminal())
	assert.True(t, domain.TaskStatusCanceled.Terminal())
}
