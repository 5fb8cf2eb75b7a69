//go:build integration

package contacts

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookerregistry/internal/booker/models"
	"bookerregistry/pkg/testutil/containers"
)

type countingLookup struct {
	calls    int
	contacts []models.Contact
}

func (c *countingLookup) GetContacts(context.Context, string) ([]models.Contact, error) {
	c.calls++
	return c.contacts, nil
}

func TestCachedLookupAgainstRedis(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	dob := time.Date(1980, 1, 2, 0, 0, 0, 0, time.UTC)
	upstream := &countingLookup{contacts: []models.Contact{{PersonID: 1, FirstName: "Ann", LastName: "Lee", DateOfBirth: &dob}}}
	lookup := NewCachedLookup(upstream, rc.Client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	first, err := lookup.GetContacts(ctx, "A1234BC")
	require.NoError(t, err)
	second, err := lookup.GetContacts(ctx, "A1234BC")
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, first[0].PersonID, second[0].PersonID)
	require.NotNil(t, second[0].DateOfBirth)
	assert.True(t, dob.Equal(*second[0].DateOfBirth))

	ttl, err := rc.Client.TTL(ctx, "contacts:A1234BC").Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
}
