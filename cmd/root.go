package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridhail/ridesim/internal/factories"
	"github.com/gridhail/ridesim/internal/models"
	"github.com/gridhail/ridesim/internal/repositories"
	"github.com/gridhail/ridesim/internal/repositories/postgres"
	"github.com/gridhail/ridesim/internal/server"
	"github.com/gridhail/ridesim/internal/simulator"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ridesim",
	Short: "Deterministic ride-hailing dispatch simulator",
	Long: `ridesim simulates drivers, riders and ride requests on a discrete
city grid. Time advances in explicit ticks, dispatch ranks candidate
drivers by fairness and distance, and every run with the same seed and
the same sequence of operations replays identically. The root command
serves the simulation over HTTP with a websocket state feed.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		sim, err := buildSimulator(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building simulator: %v\n", err)
			os.Exit(1)
		}

		srv := server.New(sim)
		log.Printf("serving on %s", cfg.HTTPAddr)
		if err := srv.Run(cfg.HTTPAddr); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

// buildSimulator assembles a simulator from config: output sink, seeded
// factories, and the initial fleet, either from the stored roster or
// freshly generated.
func buildSimulator(cfg *models.Config) (*simulator.Simulator, error) {
	sim := simulator.NewSimulator(cfg)

	output, err := simulator.NewOutputDestination(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating output destination: %w", err)
	}
	sim.SetOutput(output)

	factories.Seed(cfg.Seed)
	driverFactory := &factories.DriverFactory{}
	riderFactory := &factories.RiderFactory{}

	drivers := make([]*models.Driver, 0, cfg.InitialDrivers)
	for i := 0; i < cfg.InitialDrivers; i++ {
		drivers = append(drivers, driverFactory.CreateDriver(cfg))
	}
	riders := make([]*models.Rider, 0, cfg.InitialRiders)
	for i := 0; i < cfg.InitialRiders; i++ {
		riders = append(riders, riderFactory.CreateRider(cfg))
	}

	if cfg.Database.Enabled {
		ctx := context.Background()
		pool, err := postgres.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return nil, fmt.Errorf("ensuring schema: %w", err)
		}
		err = seedFromRoster(ctx, sim,
			postgres.NewDriverRepository(pool), postgres.NewRiderRepository(pool),
			drivers, riders, viper.GetBool("reset-roster"))
		if err != nil {
			return nil, err
		}
		return sim, nil
	}

	for _, d := range drivers {
		if err := sim.AddDriver(d); err != nil {
			return nil, err
		}
	}
	for _, r := range riders {
		if err := sim.AddRider(r); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

// seedFromRoster populates the simulator from the fleet roster. An existing
// roster takes precedence over the generated fleet so restarts resume with
// the same entities; an empty (or reset) roster is seeded with the generated
// fleet and persisted for the next run.
func seedFromRoster(ctx context.Context, sim *simulator.Simulator,
	driverRepo repositories.DriverRepository, riderRepo repositories.RiderRepository,
	drivers []*models.Driver, riders []*models.Rider, reset bool) error {
	if reset {
		if err := driverRepo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clearing driver roster: %w", err)
		}
		if err := riderRepo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clearing rider roster: %w", err)
		}
	}

	count, err := driverRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("checking roster: %w", err)
	}
	if count > 0 {
		drivers, err = driverRepo.GetAll(ctx)
		if err != nil {
			return fmt.Errorf("loading driver roster: %w", err)
		}
		riders, err = riderRepo.GetAll(ctx)
		if err != nil {
			return fmt.Errorf("loading rider roster: %w", err)
		}
		log.Printf("loaded roster: %d drivers, %d riders", len(drivers), len(riders))
	} else {
		if err := driverRepo.BulkCreate(ctx, drivers); err != nil {
			return fmt.Errorf("persisting drivers: %w", err)
		}
		if err := riderRepo.BulkCreate(ctx, riders); err != nil {
			return fmt.Errorf("persisting riders: %w", err)
		}
	}

	for _, d := range drivers {
		if err := sim.AddDriver(d); err != nil {
			return err
		}
	}
	for _, r := range riders {
		if err := sim.AddRider(r); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is examples/config.json)")

	rootCmd.PersistentFlags().Int64("seed", 42, "Random seed for the simulation")
	rootCmd.PersistentFlags().Int("grid-size", 100, "Grid dimension (coordinates range 0..size-1)")
	rootCmd.PersistentFlags().Int("initial-search-radius", 15, "Starting driver search radius")
	rootCmd.PersistentFlags().Int("max-search-radius", 100, "Upper bound on search radius growth")
	rootCmd.PersistentFlags().Int("radius-growth-interval", 2, "Idle ticks between radius increments")
	rootCmd.PersistentFlags().Int("rejection-cooldown-ticks", 5, "Ticks a rejected request waits before retry")
	rootCmd.PersistentFlags().Int("max-retries", 3, "Retries before a request fails permanently")
	rootCmd.PersistentFlags().Float64("fairness-penalty", 1.0, "Weight of completed rides in dispatch ranking")
	rootCmd.PersistentFlags().Int("initial-drivers", 0, "Drivers to generate at startup")
	rootCmd.PersistentFlags().Int("initial-riders", 0, "Riders to generate at startup")
	rootCmd.PersistentFlags().String("http-addr", ":8080", "HTTP listen address")
	rootCmd.PersistentFlags().String("output-destination", "console", "Event sink: console, json, csv, parquet, kafka, postgres")
	rootCmd.PersistentFlags().String("output-path", "", "Output file path for file sinks")
	rootCmd.PersistentFlags().String("output-folder", "", "Output folder for partitioned sinks")
	rootCmd.PersistentFlags().Bool("kafka-enabled", false, "Enable Kafka output")
	rootCmd.PersistentFlags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	rootCmd.PersistentFlags().Bool("reset-roster", false, "Discard the stored fleet roster and reseed it")

	viper.BindPFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
