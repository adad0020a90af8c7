// Package celiguard stratifies malignancy risk for Celiac Disease patients
// into three ordered classes (Low/Moderate/High) from 13 clinical and
// demographic features.
//
// The pipeline flows through five stages: dataset generates labelled
// synthetic cohorts, preprocessing freezes the feature encoding contract,
// training fits and selects among candidate classifiers, artifact persists
// the winner as versioned JSON blobs, and inference reproduces the
// training-time transformations exactly for per-request predictions.
//
// # Quick Start
//
// Train and publish a model:
//
//	ds, _ := dataset.Generate(1500, 42)
//	result, err := training.NewTrainer(training.DefaultConfig(), nil).Train(ds)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := artifact.NewStore("model_params.json", "model_metadata.json")
//	_ = store.Publish(result.Artifact)
//
// Serve predictions from it:
//
//	art, _ := store.Load()
//	svc, _ := inference.NewPredictionService(art, nil)
//	res, err := svc.Predict(record)
//
// The celiguard command wraps the same flow as train, predict, and info
// subcommands.
package celiguard
