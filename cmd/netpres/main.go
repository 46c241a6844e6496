package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"netpres/adapters/excel"
	"netpres/adapters/postgres"
	"netpres/domain/core"
	"netpres/domain/network"
	"netpres/internal"
	"netpres/internal/api"
	"netpres/internal/config"
	"netpres/internal/errors"
	"netpres/internal/preserve"
	"netpres/internal/properties"
	"netpres/internal/report"
	"netpres/internal/significance"
	"netpres/internal/testkit"
)

func main() {
	// Optional .env; absence is fine.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "netpres",
		Short: "Module preservation statistics between network datasets",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newPropertiesCmd(),
		newDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// datasetFlags collects the file locations of one dataset triple.
type datasetFlags struct {
	data, dataSheet string
	corr, corrSheet string
	net, netSheet   string
}

func (f *datasetFlags) register(cmd *cobra.Command, prefix string) {
	cmd.Flags().StringVar(&f.data, prefix+"-data", "", "Path to the "+prefix+" data matrix (xlsx or csv)")
	cmd.Flags().StringVar(&f.dataSheet, prefix+"-data-sheet", "", "Sheet name for the data matrix")
	cmd.Flags().StringVar(&f.corr, prefix+"-corr", "", "Path to the "+prefix+" correlation matrix (computed from data when omitted)")
	cmd.Flags().StringVar(&f.corrSheet, prefix+"-corr-sheet", "", "Sheet name for the correlation matrix")
	cmd.Flags().StringVar(&f.net, prefix+"-net", "", "Path to the "+prefix+" adjacency matrix (soft threshold of |r| when omitted)")
	cmd.Flags().StringVar(&f.netSheet, prefix+"-net-sheet", "", "Sheet name for the adjacency matrix")
}

func (f *datasetFlags) load(softPower float64) (*network.Dataset, error) {
	loader := excel.NewDatasetLoader(excel.DatasetConfig{
		DataPath: f.data, DataSheet: f.dataSheet,
		CorrPath: f.corr, CorrSheet: f.corrSheet,
		NetPath: f.net, NetSheet: f.netSheet,
		SoftPower: softPower,
	})
	return loader.Load()
}

func newRunCmd() *cobra.Command {
	var discovery, test datasetFlags
	var modulesFile, modulesSheet string
	var moduleFilter []string
	var permutations, workers int
	var nullModel, coherence string
	var seed int64
	var softPower float64
	var twoTailed bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the permutation procedure and report preservation p-values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, cfg, permutations, workers, nullModel, coherence, seed)

			logger := internal.NewDefaultLogger()

			dds, err := discovery.load(softPower)
			if err != nil {
				return err
			}
			tds, err := test.load(softPower)
			if err != nil {
				return err
			}
			assignments, err := excel.LoadAssignments(modulesFile, modulesSheet)
			if err != nil {
				return err
			}
			modules := selectModules(assignments, moduleFilter)
			if len(modules) == 0 {
				return errors.ConfigInvalid("no modules selected")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := preserve.PermutationProcedure(ctx, preserve.Input{
				Discovery:    dds,
				Test:         tds,
				Assignments:  assignments,
				Modules:      modules,
				Permutations: cfg.Run.Permutations,
				Workers:      cfg.Run.Workers,
				NullModel:    cfg.Run.NullModel,
				Coherence:    cfg.Run.CoherenceMode,
				Seed:         cfg.Run.Seed,
				Verbose:      cfg.Run.Verbose,
				Log:          logger.Progress(),
			})
			if err != nil {
				return err
			}

			summaries := significance.Evaluate(result.Observed, result.Nulls, twoTailed)
			run := report.Run{
				RunID:        result.RunID,
				Permutations: cfg.Run.Permutations,
				Workers:      cfg.Run.Workers,
				NullModel:    cfg.Run.NullModel,
				Elapsed:      result.Elapsed,
				Cancelled:    result.Cancelled,
				Summaries:    summaries,
			}
			fmt.Print(report.Markdown(run))

			if cfg.Database.URL != "" {
				if err := persistRun(ctx, cfg.Database.URL, cfg, result, dds, summaries); err != nil {
					logger.Warn("failed to persist run: %v", err)
				}
			}
			if cfg.Server.Addr != "" {
				return serveResults(ctx, cfg.Server.Addr, logger, &run)
			}
			return nil
		},
	}

	discovery.register(cmd, "discovery")
	test.register(cmd, "test")
	cmd.Flags().StringVar(&modulesFile, "modules", "", "Path to the node-to-module assignment file")
	cmd.Flags().StringVar(&modulesSheet, "modules-sheet", "", "Sheet name for the assignment file")
	cmd.Flags().StringSliceVar(&moduleFilter, "module", nil, "Module label to test (repeatable; default all except \"0\")")
	cmd.Flags().IntVar(&permutations, "permutations", 0, "Number of permutations (default from NETPRES_PERMUTATIONS or 10000)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of permutation workers (default all CPUs)")
	cmd.Flags().StringVar(&nullModel, "null-model", "", "Null model: overlap or all")
	cmd.Flags().StringVar(&coherence, "coherence", "", "Coherence mode: absolute or signed")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 draws from the clock)")
	cmd.Flags().Float64Var(&softPower, "soft-power", 6, "Soft threshold exponent for derived adjacency matrices")
	cmd.Flags().BoolVar(&twoTailed, "two-tailed", false, "Compare null magnitudes instead of one-sided greater")

	return cmd
}

func newPropertiesCmd() *cobra.Command {
	var dataset datasetFlags
	var modulesFile, modulesSheet string
	var moduleFilter []string
	var coherence string
	var softPower float64

	cmd := &cobra.Command{
		Use:   "properties",
		Short: "Compute module network properties for one dataset, no permutations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.load(softPower)
			if err != nil {
				return err
			}
			assignments, err := excel.LoadAssignments(modulesFile, modulesSheet)
			if err != nil {
				return err
			}
			modules := selectModules(assignments, moduleFilter)
			if len(modules) == 0 {
				return errors.ConfigInvalid("no modules selected")
			}

			mode := network.CoherenceAbsolute
			if coherence == "signed" {
				mode = network.CoherenceSigned
			}
			props, err := properties.NetworkProperties(properties.Input{
				Dataset:     ds,
				Assignments: assignments,
				Modules:     modules,
				Coherence:   mode,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(props)
		},
	}

	dataset.register(cmd, "dataset")
	cmd.Flags().StringVar(&modulesFile, "modules", "", "Path to the node-to-module assignment file")
	cmd.Flags().StringVar(&modulesSheet, "modules-sheet", "", "Sheet name for the assignment file")
	cmd.Flags().StringSliceVar(&moduleFilter, "module", nil, "Module label to include (repeatable)")
	cmd.Flags().StringVar(&coherence, "coherence", "absolute", "Coherence mode: absolute or signed")
	cmd.Flags().Float64Var(&softPower, "soft-power", 6, "Soft threshold exponent for derived adjacency matrices")

	return cmd
}

func newDemoCmd() *cobra.Command {
	var permutations, workers int
	var seed int64
	var listen string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run against synthetic data with one preserved and one degraded module",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.NewDefaultLogger()

			genConfig := testkit.DefaultGeneratorConfig()
			if seed != 0 {
				genConfig.Seed = seed
			}
			discovery, test, assignments := testkit.NewNetworkGenerator(genConfig).Generate()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := preserve.PermutationProcedure(ctx, preserve.Input{
				Discovery:    discovery,
				Test:         test,
				Assignments:  assignments,
				Modules:      []string{testkit.PreservedModule, testkit.DegradedModule},
				Permutations: permutations,
				Workers:      workers,
				NullModel:    network.NullOverlap,
				Coherence:    network.CoherenceAbsolute,
				Seed:         genConfig.Seed,
				Verbose:      true,
				Log:          logger.Progress(),
			})
			if err != nil {
				return err
			}

			summaries := significance.Evaluate(result.Observed, result.Nulls, false)
			run := report.Run{
				RunID:        result.RunID,
				Permutations: permutations,
				Workers:      workers,
				NullModel:    network.NullOverlap,
				Elapsed:      result.Elapsed,
				Cancelled:    result.Cancelled,
				Summaries:    summaries,
			}
			fmt.Print(report.Markdown(run))

			if listen != "" {
				return serveResults(ctx, listen, logger, &run)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&permutations, "permutations", 1000, "Number of permutations")
	cmd.Flags().IntVar(&workers, "workers", 4, "Number of permutation workers")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 uses the generator default)")
	cmd.Flags().StringVar(&listen, "listen", "", "Serve the report over HTTP on this address")

	return cmd
}

// selectModules returns the requested module labels, or every assigned
// module except the background label "0" when no filter is given.
func selectModules(assignments *network.ModuleAssignments, filter []string) []string {
	if len(filter) > 0 {
		return filter
	}
	var modules []string
	seen := make(map[string]bool)
	for _, node := range assignments.Nodes() {
		mod, _ := assignments.ModuleOf(node)
		if mod == "0" || seen[mod] {
			continue
		}
		seen[mod] = true
		modules = append(modules, mod)
	}
	return modules
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config, permutations, workers int, nullModel, coherence string, seed int64) {
	if permutations > 0 {
		cfg.Run.Permutations = permutations
	}
	if workers > 0 {
		cfg.Run.Workers = workers
	}
	if nullModel != "" {
		cfg.Run.NullModel = network.NullModel(nullModel)
	}
	if coherence == "signed" {
		cfg.Run.CoherenceMode = network.CoherenceSigned
	} else if coherence == "absolute" {
		cfg.Run.CoherenceMode = network.CoherenceAbsolute
	}
	if cmd.Flags().Changed("seed") {
		cfg.Run.Seed = seed
	}
}

// persistRun stores the run record and module statistics in PostgreSQL.
func persistRun(ctx context.Context, url string, cfg *config.Config, result *preserve.Result, discovery *network.Dataset, summaries []significance.ModuleSummary) error {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer db.Close()

	repo := postgres.NewResultsRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	fingerprint := core.NewRunFingerprint(discovery.Data.RawMatrix().Data)
	record := postgres.RunRecord{
		ID:           result.RunID,
		Fingerprint:  fingerprint.String(),
		Permutations: cfg.Run.Permutations,
		Workers:      cfg.Run.Workers,
		NullModel:    string(cfg.Run.NullModel),
		Seed:         result.Seed,
		Cancelled:    result.Cancelled,
		ElapsedMS:    result.Elapsed.Milliseconds(),
	}
	return repo.SaveRun(ctx, record, summaries)
}

// serveResults blocks serving the finished run until interrupted.
func serveResults(ctx context.Context, addr string, logger *internal.Logger, run *report.Run) error {
	server := api.NewServer(logger)
	server.RegisterRun(run)

	httpServer := &http.Server{Addr: addr, Handler: server.Handler()}
	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	logger.Info("serving run report at http://%s/runs/%s/report", addr, run.RunID)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
