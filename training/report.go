package training

import (
	"log/slog"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/celiguard/pkg/errors"
)

// FeatureWeight pairs an encoded feature name with its importance score.
type FeatureWeight struct {
	Name   string
	Weight float64
}

// TopFeatures returns the k most important encoded features, highest first.
// Equal weights keep encoder order so the ranking is deterministic.
func TopFeatures(names []string, importances []float64, k int) []FeatureWeight {
	if len(names) != len(importances) {
		return nil
	}
	ranked := make([]FeatureWeight, len(names))
	for i, name := range names {
		ranked[i] = FeatureWeight{Name: name, Weight: importances[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Weight > ranked[j].Weight })
	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

// LogTopFeatures emits the ranking as structured logs, one line per feature.
func LogTopFeatures(logger *slog.Logger, features []FeatureWeight) {
	for rank, fw := range features {
		logger.Info("feature importance",
			slog.Int("rank", rank+1),
			slog.String("feature", fw.Name),
			slog.Float64("importance", fw.Weight))
	}
}

// WriteImportancePlot renders a horizontal-labelled bar chart of the top
// feature importances to path (format inferred from the extension).
func WriteImportancePlot(path string, names []string, importances []float64, topK int) error {
	ranked := TopFeatures(names, importances, topK)
	if len(ranked) == 0 {
		return errors.NewValueError("WriteImportancePlot", "no feature importances to plot")
	}

	p := plot.New()
	p.Title.Text = "Feature Importances"
	p.Y.Label.Text = "Mean impurity decrease"
	p.X.Tick.Label.Rotation = 0.9
	p.X.Tick.Label.XAlign = -0.9

	values := make(plotter.Values, len(ranked))
	labels := make([]string, len(ranked))
	for i, fw := range ranked {
		values[i] = fw.Weight
		labels[i] = fw.Name
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return errors.Wrap(err, "build importance bar chart")
	}
	p.Add(bars)
	p.NominalX(labels...)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save importance chart to %s", path)
	}
	return nil
}
