package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/campuskart/campuskart/internal/auth"
	"github.com/campuskart/campuskart/internal/repository"
	"github.com/campuskart/campuskart/internal/repository/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore()
	issuer := auth.NewIssuer("secret", time.Hour)

	var out bytes.Buffer
	require.NoError(t, seed(ctx, store, issuer, &out))
	require.NoError(t, seed(ctx, store, issuer, &out))

	seller, err := store.Users.GetByEmail(ctx, "asha@campus.edu")
	require.NoError(t, err)

	listings, err := store.Products.ListBySeller(ctx, seller.ID)
	require.NoError(t, err)
	assert.Len(t, listings, 2*len(demoProducts))
	assert.Equal(t, "Hostel 1", listings[0].Hostel)

	open, err := store.Products.List(ctx, repository.ProductFilter{Query: "calculator"})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	// every printed token identifies one of the demo users
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		fields := strings.Fields(line)
		if fields[0] != "user" {
			continue
		}
		userID, err := issuer.Parse(fields[len(fields)-1])
		require.NoError(t, err)
		assert.Equal(t, fields[1], userID)
	}
}
