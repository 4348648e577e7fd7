package cmd

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridhail/ridesim/internal/models"
	"github.com/gridhail/ridesim/internal/simulator"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a headless batch simulation",
	Long: `run executes a fixed number of ticks without the HTTP server,
generating ride requests from the seeded rider pool and streaming
events to the configured output destination. Useful for producing
datasets and for replaying a scenario end to end.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		if cfg.InitialDrivers == 0 {
			cfg.InitialDrivers = 20
		}
		if cfg.InitialRiders == 0 {
			cfg.InitialRiders = 50
		}

		sim, err := buildSimulator(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building simulator: %v\n", err)
			os.Exit(1)
		}

		ticks := viper.GetInt("ticks")
		requestRate := viper.GetFloat64("request-rate")
		if err := runBatch(sim, cfg, ticks, requestRate); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

// runBatch drives the simulation for the given number of ticks,
// injecting ride requests at requestRate per tick from idle riders.
// Request generation uses its own seeded source so the engine's RNG
// stays in lockstep with a served run of the same scenario.
func runBatch(sim *simulator.Simulator, cfg *models.Config, ticks int, requestRate float64) error {
	rng := rand.New(rand.NewSource(cfg.Seed + 1))
	bar := progressbar.Default(int64(ticks), "simulating")

	for i := 0; i < ticks; i++ {
		pending := requestRate
		for pending >= 1 || (pending > 0 && rng.Float64() < pending) {
			pending--
			if err := injectRequest(sim, cfg, rng); err != nil {
				return err
			}
		}

		sim.AdvanceTick()
		if err := bar.Add(1); err != nil {
			return err
		}
	}

	snap := sim.Snapshot()
	log.Printf("finished %d ticks: %d drivers, %d riders, %d completed, %d failed",
		snap.CurrentTick, snap.Summary.TotalDrivers, snap.Summary.TotalRiders,
		snap.Summary.CompletedRides, snap.Summary.FailedRides)
	return nil
}

func injectRequest(sim *simulator.Simulator, cfg *models.Config, rng *rand.Rand) error {
	snap := sim.Snapshot()
	ids := make([]string, 0, len(snap.Riders))
	for id, r := range snap.Riders {
		if r.Status == models.RiderStatusWaiting || r.Status == models.RiderStatusCompleted {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	riderID := ids[rng.Intn(len(ids))]
	pickup := snap.Riders[riderID].Position
	dropoff := models.Point{
		X: rng.Intn(cfg.GridSize),
		Y: rng.Intn(cfg.GridSize),
	}
	if _, err := sim.RequestRide(riderID, pickup, dropoff); err != nil {
		// The rider may already have an active request from an earlier tick.
		if errors.Is(err, models.ErrRiderBusy) {
			return nil
		}
		return err
	}
	return nil
}

func init() {
	runCmd.Flags().Int("ticks", 1000, "Number of ticks to simulate")
	runCmd.Flags().Float64("request-rate", 0.5, "Average ride requests injected per tick")

	viper.BindPFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}
