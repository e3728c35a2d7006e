package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/scorelens/ai"
	"github.com/hrygo/scorelens/cluster"
	"github.com/hrygo/scorelens/internal/profile"
	"github.com/hrygo/scorelens/internal/version"
	"github.com/hrygo/scorelens/scoring"
	"github.com/hrygo/scorelens/server"
	"github.com/hrygo/scorelens/store"
	"github.com/hrygo/scorelens/store/db"
	"github.com/hrygo/scorelens/worker"
)

var rootCmd = &cobra.Command{
	Use:   "scorelens",
	Short: "Hybrid score-retrieval engine: predicts evaluation scores for free-text answers from a corpus of previously scored answers.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Best-effort .env load for direct binary execution.
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		engine, instanceProfile, err := buildEngine()
		if err != nil {
			slog.Error("failed to initialize engine", "error", err)
			os.Exit(1)
		}
		defer engine.store.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := server.NewServer(instanceProfile, engine.store, engine.predictor, engine.processor, engine.clusterer)
		slog.Info("scorelens started",
			"version", version.String(),
			"addr", instanceProfile.Addr,
			"port", instanceProfile.Port,
			"mode", instanceProfile.Mode,
		)
		if err := srv.Start(ctx); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (same as running scorelens with no subcommand).",
	Run: func(cmd *cobra.Command, args []string) {
		rootCmd.Run(cmd, args)
	},
}

var processJobsCmd = &cobra.Command{
	Use:   "process-jobs",
	Short: "Drain pending embedding jobs once and exit.",
	Run: func(_ *cobra.Command, _ []string) {
		engine, _, err := buildEngine()
		if err != nil {
			slog.Error("failed to initialize engine", "error", err)
			os.Exit(1)
		}
		defer engine.store.Close()

		limit := viper.GetInt("limit")
		result, err := engine.processor.ProcessBatch(context.Background(), limit)
		if err != nil {
			slog.Error("job processing failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("processed=%d succeeded=%d failed=%d\n", result.Processed, result.Succeeded, result.Failed)
	},
}

var rebuildExemplarsCmd = &cobra.Command{
	Use:   "rebuild-exemplars",
	Short: "Rebuild the cluster exemplars for one case/question/bucket scope.",
	Run: func(_ *cobra.Command, _ []string) {
		engine, _, err := buildEngine()
		if err != nil {
			slog.Error("failed to initialize engine", "error", err)
			os.Exit(1)
		}
		defer engine.store.Close()

		question := store.Question(viper.GetString("question"))
		result, err := engine.clusterer.RebuildExemplars(
			context.Background(),
			viper.GetString("case"),
			question,
			viper.GetInt("bucket"),
			viper.GetInt("max-clusters"),
		)
		if err != nil {
			slog.Error("exemplar rebuild failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("clusters=%d points=%d\n", result.Clusters, result.Points)
	},
}

// engine bundles the wired components.
type engine struct {
	store     *store.Store
	predictor *scoring.Predictor
	processor *worker.Processor
	clusterer *cluster.Clusterer
}

func buildEngine() (*engine, *profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		DSN:     viper.GetString("dsn"),
		Version: version.GetCurrentVersion(viper.GetString("mode")),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, nil, err
	}

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, nil, err
	}
	storeInstance := store.New(dbDriver, instanceProfile)

	aiConfig := ai.NewConfigFromProfile(instanceProfile)
	if err := aiConfig.Validate(); err != nil {
		return nil, nil, err
	}
	embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		return nil, nil, err
	}

	// A nil scorer keeps the statistical estimate path.
	var scorer scoring.AnswerScorer
	if llmScorer := ai.NewLLMScorer(&aiConfig.Scorer); llmScorer != nil {
		scorer = llmScorer
		slog.Info("scoring service enabled",
			"provider", aiConfig.Scorer.Provider,
			"model", aiConfig.Scorer.Model,
		)
	}

	opts := scoring.DefaultOptions()
	opts.ScorerTimeout = aiConfig.Scorer.Timeout

	workerConfig := worker.DefaultConfig(aiConfig.Embedding.Model)
	workerConfig.Concurrency = instanceProfile.JobConcurrency
	workerConfig.MaxRetries = instanceProfile.JobMaxRetries

	return &engine{
		store:     storeInstance,
		predictor: scoring.NewPredictor(storeInstance, embeddingService, scorer, opts),
		processor: worker.NewProcessor(storeInstance, embeddingService, workerConfig),
		clusterer: cluster.NewClusterer(storeInstance, cluster.DefaultConfig()),
	}, instanceProfile, nil
}

func init() {
	rootCmd.PersistentFlags().String("mode", "demo", `mode of the server: "prod", "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of the server")
	rootCmd.PersistentFlags().Int("port", 8080, "port of the server")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (postgres)")

	processJobsCmd.Flags().Int("limit", 100, "maximum jobs to claim")

	rebuildExemplarsCmd.Flags().String("case", "", "case identifier")
	rebuildExemplarsCmd.Flags().String("question", "q1", "question identifier (q1 or q2)")
	rebuildExemplarsCmd.Flags().Int("bucket", 0, "score bucket")
	rebuildExemplarsCmd.Flags().Int("max-clusters", 0, "cluster cap (0 = default)")

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd, processJobsCmd, rebuildExemplarsCmd} {
		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			panic(err)
		}
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("scorelens")
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, processJobsCmd, rebuildExemplarsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
