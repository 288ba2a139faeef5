package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dos-group/group-adaptive-scheduler/pkg/cluster"
	"github.com/dos-group/group-adaptive-scheduler/pkg/estimator"
	gaslog "github.com/dos-group/group-adaptive-scheduler/pkg/log"
	"github.com/dos-group/group-adaptive-scheduler/pkg/metrics"
	"github.com/dos-group/group-adaptive-scheduler/pkg/persistence"
	"github.com/dos-group/group-adaptive-scheduler/pkg/resourcemanager"
	"github.com/dos-group/group-adaptive-scheduler/pkg/scheduler"
	"github.com/dos-group/group-adaptive-scheduler/pkg/telemetry"
	"github.com/dos-group/group-adaptive-scheduler/pkg/types"
	"github.com/dos-group/group-adaptive-scheduler/pkg/updater"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scheduling experiment to completion",
	RunE:  runExperiment,
}

func init() {
	runCmd.Flags().StringP("experiment", "f", "", "experiment YAML file (required)")
	runCmd.Flags().String("policy", "group-adaptive-extend", "placement policy: random, roundrobin, adaptive, group-adaptive, group-adaptive-extend")
	runCmd.Flags().Int("jobs-to-peek", 0, "peek-window size (0 uses the policy's default)")
	runCmd.Flags().Int("waiting-limit", -1, "fairness waiting-time limit for group-adaptive-extend (-1 uses its default)")
	runCmd.Flags().Duration("update-interval", updater.DefaultInterval, "interval between estimator updates")
	runCmd.Flags().Bool("activate-random-arrival", false, "simulate background application arrivals alongside the experiment file's batch")
	runCmd.Flags().Bool("print-estimation", false, "log the estimator's learned state on every update tick")
	runCmd.Flags().Duration("app-runtime", 10*time.Second, "simulated runtime for each admitted application")
	runCmd.Flags().Duration("round-interval", 0, "pause between admission attempts within a round")
	runCmd.Flags().String("snapshot-db", "", "bbolt database path for estimator snapshot persistence (empty disables it)")
	runCmd.Flags().String("snapshot-path", "default", "key under which to save/load the estimator snapshot")
	runCmd.Flags().String("metrics-addr", "", "address to serve Prometheus metrics on (empty disables it)")
	runCmd.Flags().Int64("seed", time.Now().UnixNano(), "seed for the synthetic metrics source (the scheduler's policy RNG is seeded from the clock, not from this flag)")

	_ = runCmd.MarkFlagRequired("experiment")

	rootCmd.AddCommand(runCmd)
}

func runExperiment(cmd *cobra.Command, _ []string) error {
	experimentPath, _ := cmd.Flags().GetString("experiment")
	policyName, _ := cmd.Flags().GetString("policy")
	jobsToPeek, _ := cmd.Flags().GetInt("jobs-to-peek")
	waitingLimit, _ := cmd.Flags().GetInt("waiting-limit")
	updateInterval, _ := cmd.Flags().GetDuration("update-interval")
	activateRandomArrival, _ := cmd.Flags().GetBool("activate-random-arrival")
	printEstimation, _ := cmd.Flags().GetBool("print-estimation")
	appRuntime, _ := cmd.Flags().GetDuration("app-runtime")
	roundInterval, _ := cmd.Flags().GetDuration("round-interval")
	snapshotDB, _ := cmd.Flags().GetString("snapshot-db")
	snapshotPath, _ := cmd.Flags().GetString("snapshot-path")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	seed, _ := cmd.Flags().GetInt64("seed")

	logger := gaslog.WithComponent("gaschedule")

	exp, err := LoadExperiment(experimentPath)
	if err != nil {
		return err
	}

	nodes, slots := exp.BuildNodes()
	c := cluster.New(nodes, slots, newSyntheticMetrics(seed))

	pol, err := buildPolicy(policyName, jobsToPeek, waitingLimit)
	if err != nil {
		return err
	}

	var writer persistence.Writer
	if snapshotDB != "" {
		writer, err = persistence.NewBoltWriter(snapshotDB)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
	}

	est := estimator.NewDefault()
	if writer != nil {
		if err := est.Load(writer, snapshotPath); err != nil {
			logger.Debug().Err(err).Msg("no prior estimator snapshot to restore")
		}
	}

	rm := resourcemanager.NewInMemory(appRuntime)

	broker := telemetry.NewBroker()
	broker.Start()
	defer broker.Stop()
	finalized := broker.Subscribe()

	sched := scheduler.New(c, est, pol, rm, broker, writer, snapshotPath)
	sched.AttachUpdater(updater.New(c, est, sched, updateInterval, printEstimation))
	sched.RoundInterval = roundInterval
	sched.ActivateRandomArrival = activateRandomArrival
	if activateRandomArrival {
		sched.ArrivalSource = randomArrivalFromTemplates(exp.Applications)
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		logger.Info().Str("addr", metricsAddr).Msg("serving metrics")
	}

	sched.AddAll(exp.BuildApplications())
	logger.Info().Int("applications", len(exp.Applications)).Int("nodes", len(exp.Nodes)).Str("policy", pol.Name).Msg("starting run")

	sched.Start()

	for ev := range finalized {
		if ev.Type == telemetry.EventRunFinalized {
			logger.Info().Str("message", ev.Message).Msg("run complete")
			break
		}
	}

	return nil
}

// randomArrivalFromTemplates cycles through the experiment's declared
// application specs to synthesize additional arrivals, rather than
// inventing an unrelated workload shape.
func randomArrivalFromTemplates(templates []ApplicationSpec) scheduler.ArrivalSource {
	if len(templates) == 0 {
		return nil
	}
	i := 0
	return func() *types.Application {
		t := templates[i%len(templates)]
		i++
		containers := t.Containers
		if containers <= 0 {
			containers = 1
		}
		return types.NewApplication(t.Name, t.Group, containers)
	}
}
