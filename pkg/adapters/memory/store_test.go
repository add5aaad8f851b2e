package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/ferrobraz/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, NewStore())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		key := domain.ConversationKey{UserID: "u", PartnerID: string(rune('a' + i))}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.NoError(t, store.Save(ctx, key, domain.NewConversationState("root", time.Now())))
				_, err := store.Load(ctx, key)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	keys, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 8)
}
