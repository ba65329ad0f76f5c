package audit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finwell/internal/audit"
	"finwell/internal/audit/store"
	"finwell/internal/events"
)

func TestPublisherArchivesEvents(t *testing.T) {
	ctx := context.Background()
	p := audit.NewPublisher(store.NewInMemory())

	fanout := events.Fanout{events.Discard, p}
	require.NoError(t, fanout.Publish(ctx, events.Event{Name: events.DataSubmitted, RecordID: 1}))
	require.NoError(t, fanout.Publish(ctx, events.Event{Name: events.DataDecrypted, RecordID: 1, RequestID: 9}))

	got, err := p.List(ctx, audit.Query{RecordID: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, events.DataSubmitted, got[0].Event.Name)
	assert.False(t, got[0].Event.Timestamp.IsZero(), "missing timestamps are filled in")
	assert.NotEqual(t, got[0].ID, got[1].ID)
}
