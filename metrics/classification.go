// Package metrics は分類モデルの評価指標を提供します。
package metrics

import (
	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}

	return float64(correct) / float64(n), nil
}

// ConfusionMatrix は混同行列を計算する
// 行が真のクラス、列が予測クラスに対応する (numClasses × numClasses)
func ConfusionMatrix(yTrue, yPred *mat.VecDense, numClasses int) (*mat.Dense, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return nil, errors.NewDimensionError("ConfusionMatrix", n, yPred.Len(), 0)
	}
	if numClasses < 2 {
		return nil, errors.NewValueError("ConfusionMatrix", "numClasses must be >= 2")
	}

	cm := mat.NewDense(numClasses, numClasses, nil)
	for i := 0; i < n; i++ {
		t := int(yTrue.AtVec(i))
		p := int(yPred.AtVec(i))
		if t < 0 || t >= numClasses {
			return nil, errors.NewValueError("ConfusionMatrix", "true label out of range")
		}
		if p < 0 || p >= numClasses {
			return nil, errors.NewValueError("ConfusionMatrix", "predicted label out of range")
		}
		cm.Set(t, p, cm.At(t, p)+1)
	}

	return cm, nil
}

// PrecisionPerClass はクラスごとの適合率を計算する
// あるクラスの予測が一つもない場合、そのクラスの適合率は0とする
func PrecisionPerClass(yTrue, yPred *mat.VecDense, numClasses int) ([]float64, error) {
	cm, err := ConfusionMatrix(yTrue, yPred, numClasses)
	if err != nil {
		return nil, err
	}

	precision := make([]float64, numClasses)
	for c := 0; c < numClasses; c++ {
		// 列和 = クラスcと予測されたサンプル数
		var predicted float64
		for t := 0; t < numClasses; t++ {
			predicted += cm.At(t, c)
		}
		if predicted > 0 {
			precision[c] = cm.At(c, c) / predicted
		}
	}

	return precision, nil
}

// RecallPerClass はクラスごとの再現率を計算する
// あるクラスの実例が一つもない場合、そのクラスの再現率は0とする
func RecallPerClass(yTrue, yPred *mat.VecDense, numClasses int) ([]float64, error) {
	cm, err := ConfusionMatrix(yTrue, yPred, numClasses)
	if err != nil {
		return nil, err
	}

	recall := make([]float64, numClasses)
	for c := 0; c < numClasses; c++ {
		// 行和 = 真のクラスがcであるサンプル数
		var actual float64
		for p := 0; p < numClasses; p++ {
			actual += cm.At(c, p)
		}
		if actual > 0 {
			recall[c] = cm.At(c, c) / actual
		}
	}

	return recall, nil
}

// F1PerClass はクラスごとのF1スコアを計算する
// F1 = 2 * precision * recall / (precision + recall)
func F1PerClass(yTrue, yPred *mat.VecDense, numClasses int) ([]float64, error) {
	precision, err := PrecisionPerClass(yTrue, yPred, numClasses)
	if err != nil {
		return nil, err
	}
	recall, err := RecallPerClass(yTrue, yPred, numClasses)
	if err != nil {
		return nil, err
	}

	f1 := make([]float64, numClasses)
	for c := 0; c < numClasses; c++ {
		if precision[c]+recall[c] > 0 {
			f1[c] = 2 * precision[c] * recall[c] / (precision[c] + recall[c])
		}
	}

	return f1, nil
}

// MacroF1 はクラスごとのF1スコアの単純平均を計算する
func MacroF1(yTrue, yPred *mat.VecDense, numClasses int) (float64, error) {
	f1, err := F1PerClass(yTrue, yPred, numClasses)
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, v := range f1 {
		sum += v
	}
	return sum / float64(numClasses), nil
}
