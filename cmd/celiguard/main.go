// Command celiguard trains, inspects, and serves one-off predictions from the
// celiac malignancy risk model.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/YuminosukeSato/celiguard/artifact"
	"github.com/YuminosukeSato/celiguard/dataset"
	"github.com/YuminosukeSato/celiguard/inference"
	"github.com/YuminosukeSato/celiguard/pkg/log"
	"github.com/YuminosukeSato/celiguard/registry"
	"github.com/YuminosukeSato/celiguard/schema"
	"github.com/YuminosukeSato/celiguard/training"
)

var version = "dev"

func main() {
	root := &cli.Command{
		Name:    "celiguard",
		Usage:   "celiac disease malignancy risk stratification pipeline",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level [debug, info, warn, error]",
				Value: "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.SetupLogger(cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			trainCmd(),
			predictCmd(),
			infoCmd(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", log.ErrAttr(err))
		os.Exit(1)
	}
}

func trainCmd() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "generate synthetic data, train candidates, publish the best model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a YAML training config (defaults used when omitted)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := training.DefaultConfig()
			if path := cmd.String("config"); path != "" {
				loaded, err := training.LoadConfig(path)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			return runTraining(ctx, cfg)
		},
	}
}

func runTraining(ctx context.Context, cfg training.Config) error {
	logger := slog.Default()
	logger.Info("generating synthetic dataset",
		slog.Int(log.SamplesKey, cfg.Samples),
		slog.Int64(log.RandomSeedKey, cfg.Seed))

	var opts []dataset.Option
	if len(cfg.ClassWeights) > 0 {
		opts = append(opts, dataset.WithClassWeights(cfg.ClassWeights))
	}
	ds, err := dataset.Generate(cfg.Samples, cfg.Seed, opts...)
	if err != nil {
		return err
	}

	result, err := training.NewTrainer(cfg, logger).Train(ds)
	if err != nil {
		return err
	}

	for _, dir := range []string{cfg.ParamsPath, cfg.MetadataPath} {
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return err
		}
	}
	store := artifact.NewStore(cfg.ParamsPath, cfg.MetadataPath)
	if err := store.Publish(result.Artifact); err != nil {
		return err
	}

	if len(result.Importances) > 0 {
		training.LogTopFeatures(logger, training.TopFeatures(result.FeatureNames, result.Importances, 10))
		if cfg.ImportancePlot != "" {
			if err := training.WriteImportancePlot(cfg.ImportancePlot,
				result.FeatureNames, result.Importances, 15); err != nil {
				return err
			}
			logger.Info("importance chart written", slog.String("path", cfg.ImportancePlot))
		}
	}

	if cfg.RegistryPath != "" {
		if err := recordRun(ctx, cfg, result); err != nil {
			return err
		}
	}
	return nil
}

func recordRun(ctx context.Context, cfg training.Config, result *training.Result) error {
	reg, err := registry.Open(ctx, cfg.RegistryPath)
	if err != nil {
		return err
	}
	defer reg.Close()

	meta := result.Artifact.Meta
	run := registry.Run{
		ID:           meta.Version,
		CreatedAt:    meta.TrainedAt,
		Kind:         string(meta.Kind),
		Accuracy:     meta.Metrics.Accuracy,
		ArtifactPath: cfg.ParamsPath,
	}
	if len(meta.Metrics.F1PerClass) == 3 {
		run.F1Low = meta.Metrics.F1PerClass[0]
		run.F1Moderate = meta.Metrics.F1PerClass[1]
		run.F1High = meta.Metrics.F1PerClass[2]
	}
	return reg.Record(ctx, run)
}

func predictCmd() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "score one patient record against the published model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "params",
				Usage: "path to the model params blob",
				Value: "artifacts/model_params.json",
			},
			&cli.StringFlag{
				Name:  "metadata",
				Usage: "path to the model metadata blob",
				Value: "artifacts/model_metadata.json",
			},
			&cli.StringFlag{
				Name:  "input",
				Usage: "path to a JSON patient record, or - for stdin",
				Value: "-",
			},
			&cli.BoolFlag{
				Name:  "explain",
				Usage: "attach a human-readable rationale to the output",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd.String("input"))
			if err != nil {
				return err
			}

			rec, err := schema.RecordFromMap(svc.Metadata().Schema, payload)
			if err != nil {
				return err
			}
			result, err := svc.Predict(rec)
			if err != nil {
				return err
			}

			out := map[string]interface{}{
				"predicted_class": result.PredictedClass,
				"risk_label":      result.RiskLabel,
				"probabilities":   result.Probabilities,
				"model_version":   result.ModelVersion,
			}
			if cmd.Bool("explain") {
				out["explanation"] = inference.Explain(rec, schema.RiskClass(result.PredictedClass))
			}
			return printJSON(out)
		},
	}
}

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "show the published model's metadata and recent training runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "params",
				Value: "artifacts/model_params.json",
			},
			&cli.StringFlag{
				Name:  "metadata",
				Value: "artifacts/model_metadata.json",
			},
			&cli.StringFlag{
				Name:  "registry",
				Usage: "path to the training-run registry database",
				Value: "artifacts/runs.db",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "number of past runs to list",
				Value: 10,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store := artifact.NewStore(cmd.String("params"), cmd.String("metadata"))
			art, err := store.Load()
			if err != nil {
				return err
			}

			out := map[string]interface{}{
				"model": art.Meta,
			}
			if path := cmd.String("registry"); path != "" {
				if _, statErr := os.Stat(path); statErr == nil {
					reg, err := registry.Open(ctx, path)
					if err != nil {
						return err
					}
					defer reg.Close()
					runs, err := reg.List(ctx, int(cmd.Int("limit")))
					if err != nil {
						return err
					}
					out["runs"] = runs
				}
			}
			return printJSON(out)
		},
	}
}

func loadService(cmd *cli.Command) (*inference.PredictionService, error) {
	store := artifact.NewStore(cmd.String("params"), cmd.String("metadata"))
	art, err := store.Load()
	if err != nil {
		return nil, err
	}
	return inference.NewPredictionService(art, slog.Default())
}

func readPayload(path string) (map[string]interface{}, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var payload map[string]interface{}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode patient record: %w", err)
	}
	return payload, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
