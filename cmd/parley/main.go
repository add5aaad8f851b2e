package main

import (
	"fmt"
	"log/slog"

	"github.com/ferrobraz/parley"
	"github.com/ferrobraz/parley/internal/adapters/file"
	"github.com/ferrobraz/parley/internal/logging"
	redisAdapter "github.com/ferrobraz/parley/pkg/adapters/redis"
	"github.com/ferrobraz/parley/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func main() {
	Execute()
}

// newEngine builds an engine from the shared flags.
func newEngine(cmd *cobra.Command, opts ...parley.Option) (*parley.Engine, error) {
	contentDir, _ := cmd.Flags().GetString("content")

	store, locker, err := newStore(cmd)
	if err != nil {
		return nil, err
	}

	all := []parley.Option{
		parley.WithStore(store),
		parley.WithLogger(logging.New(slog.LevelInfo)),
	}
	if locker != nil {
		all = append(all, parley.WithLocker(locker))
	}
	all = append(all, opts...)

	return parley.New(contentDir, all...)
}

// newStore selects the persistence backend. The redis backend also provides
// a distributed locker so replicas can share one store.
func newStore(cmd *cobra.Command) (ports.StateStore, ports.DistributedLocker, error) {
	backendName, _ := cmd.Flags().GetString("store")

	switch backendName {
	case "memory":
		return nil, nil, nil // engine default
	case "file":
		dir, _ := cmd.Flags().GetString("state-dir")
		return file.New(dir), nil, nil
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		client := backend.NewClient(&backend.Options{Addr: addr})
		return redisAdapter.NewFromClient(client), redisAdapter.NewLocker(client, "parley:"), nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend: %q", backendName)
	}
}
