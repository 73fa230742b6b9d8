package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/latentqa-go/internal/adapters/loader"
	"github.com/0xcro3dile/latentqa-go/internal/domain/usecases"
)

func newIndexCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the document index",
	}
	cmd.AddCommand(newIndexBuildCmd(rt))
	return cmd
}

func newIndexBuildCmd(rt *runtime) *cobra.Command {
	var dataPath string
	var batchSize int

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Embed the dataset and replace the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := rt.setup(ctx, cmd); err != nil {
				return err
			}
			defer rt.teardown(ctx)
			cfg, log := rt.cfg, rt.logger

			docs, err := loader.NewDatasetLoader().Load(ctx, dataPath)
			if err != nil {
				return err
			}
			log.Info("dataset loaded", "path", dataPath, "documents", len(docs))

			st, err := openStore(ctx, cfg.Index, log)
			if err != nil {
				return err
			}
			defer st.close()

			start := time.Now()
			ingest := usecases.NewIngestUseCase(newEmbedder(cfg.Embedding, log), st, batchSize, cfg.Embedding.Concurrency, log)
			n, err := ingest.Rebuild(ctx, docs)
			if err != nil {
				return err
			}

			if st.memory != nil {
				if err := st.memory.SaveSnapshot(cfg.Index.Snapshot); err != nil {
					return err
				}
				log.Info("index snapshot written", "path", cfg.Index.Snapshot)
			}

			log.Info("index built", "backend", cfg.Index.Backend, "documents", n, "elapsed", time.Since(start))
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "path to the dataset JSON")
	cmd.Flags().IntVar(&batchSize, "batch-size", 32, "documents per embedding batch")
	cmd.Flags().String("index-backend", "sqlite", "index backend: sqlite, memory or pgvector")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}
