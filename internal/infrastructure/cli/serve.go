package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/latentqa-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/latentqa-go/internal/adapters/session"
	"github.com/0xcro3dile/latentqa-go/internal/adapters/vectordb"
	"github.com/0xcro3dile/latentqa-go/internal/domain/ports"
	"github.com/0xcro3dile/latentqa-go/internal/domain/usecases"
	httpserver "github.com/0xcro3dile/latentqa-go/internal/infrastructure/http"
)

func newServeCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := rt.setup(ctx, cmd); err != nil {
				return err
			}
			defer rt.teardown(context.Background())

			return serve(ctx, rt)
		},
	}

	cmd.Flags().String("server-addr", ":8000", "listen address")
	cmd.Flags().String("index-backend", "sqlite", "index backend: sqlite, memory or pgvector")
	cmd.Flags().Bool("index-watch", false, "reload the memory snapshot when it changes")
	return cmd
}

func serve(ctx context.Context, rt *runtime) error {
	cfg, log := rt.cfg, rt.logger

	st, err := openStore(ctx, cfg.Index, log)
	if err != nil {
		return err
	}
	defer st.close()

	if st.memory != nil && cfg.Index.Watch {
		if err := watchSnapshot(ctx, st.memory, cfg.Index.Snapshot, log); err != nil {
			return err
		}
	}

	index := usecases.NewEmbeddingIndex(newEmbedder(cfg.Embedding, log), st)
	if n, err := index.Count(ctx); err == nil && n == 0 {
		log.Warn("index is empty; run `latentqa index build` first")
	}

	chat := usecases.NewChatUseCase(
		index,
		newLLM(cfg.LLM),
		session.NewLRUStore(session.Options{
			MaxSessions: cfg.Session.MaxSessions,
			TTL:         cfg.Session.TTL,
			MaxMessages: cfg.Session.MaxMessages,
		}),
		usecases.ChatOptions{
			TokenLimit:    cfg.Retrieval.TokenLimit,
			HistoryWindow: cfg.Retrieval.HistoryWindow,
			Dedupe:        cfg.Retrieval.Dedupe,
		},
		log,
	)

	server := httpserver.NewServer(ctx, chat, index, httpserver.Options{
		Addr:           cfg.Server.Addr,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitRPS:   cfg.Server.RateLimit.RPS,
		RateLimitBurst: cfg.Server.RateLimit.Burst,
	}, log)

	return server.Start(ctx)
}

// watchSnapshot reloads the in-memory index whenever the snapshot file is
// replaced or rewritten. A failed reload keeps the previous index.
func watchSnapshot(ctx context.Context, mem *vectordb.InMemoryStore, path string, log *slog.Logger) error {
	watcher, err := filewatcher.NewFSNotifyWatcher(log)
	if err != nil {
		return err
	}
	events, err := watcher.Watch(ctx, path)
	if err != nil {
		watcher.Stop()
		return err
	}

	go func() {
		defer watcher.Stop()
		for ev := range events {
			if ev.Operation == ports.FileDeleted {
				log.Warn("index snapshot removed; keeping current index", "path", ev.Path)
				continue
			}
			// Writers may emit several events per update.
			time.Sleep(100 * time.Millisecond)
			n, err := mem.LoadSnapshot(path)
			if err != nil {
				log.Error("index snapshot reload failed", "path", path, "op", ev.Operation.String(), "error", err)
				continue
			}
			log.Info("index snapshot reloaded", "path", path, "documents", n)
		}
	}()

	log.Info("watching index snapshot", "path", path)
	return nil
}
