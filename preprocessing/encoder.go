// Package preprocessing は特徴量エンコーディングを提供します。
//
// RecordEncoder は学習時とレコード単位の推論時で同一の変換を保証する
// 凍結された特徴量エンコーダです。数値特徴は学習データで凍結した
// 平均・標準偏差で標準化し、カテゴリ特徴はスキーマのカテゴリ集合に
// 対するone-hot表現に変換します。
package preprocessing

import (
	"github.com/YuminosukeSato/celiguard/pkg/errors"
	"github.com/YuminosukeSato/celiguard/schema"
	"gonum.org/v1/gonum/mat"
)

// RecordEncoder はPatientRecordを固定長の実数ベクトルへ写像する。
//
// 列の並びはスキーマ順、カテゴリ内は辞書順で固定される。
// 出力次元 = 数値特徴数 + 全カテゴリ集合サイズの合計。
//
// 未知カテゴリの方針: エンコーダ自体は該当特徴のインジケータ列を
// すべて0にする（scikit-learnのhandle_unknown="ignore"相当）。
// 推論境界では先にスキーマ検証が走るため、外部の呼び出し元には
// ValidationErrorとして現れる。
type RecordEncoder struct {
	// Schema はエンコーダを学習させたスキーマのスナップショット
	Schema schema.FeatureSchema `json:"schema"`

	// Scaler は数値特徴の凍結済み標準化統計量
	Scaler *StandardScaler `json:"scaler"`
}

// NewRecordEncoder は指定スキーマ用のエンコーダを作成する
func NewRecordEncoder(s schema.FeatureSchema) *RecordEncoder {
	return &RecordEncoder{
		Schema: s,
		Scaler: NewStandardScaler(),
	}
}

// Dim はエンコード後のベクトル次元を返す
func (e *RecordEncoder) Dim() int {
	return e.Schema.EncodedDim()
}

// IsFitted はエンコーダが学習済みかどうかを返す
func (e *RecordEncoder) IsFitted() bool {
	return e.Scaler != nil && e.Scaler.IsFitted()
}

// Fit は学習データから数値特徴の標準化統計量を計算し凍結する
func (e *RecordEncoder) Fit(records []schema.PatientRecord) error {
	if len(records) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "RecordEncoder.Fit")
	}

	numeric := e.Schema.NumericFields()
	X := mat.NewDense(len(records), len(numeric), nil)
	for i, rec := range records {
		for j, f := range numeric {
			v, ok := rec.Numeric(f.Name)
			if !ok {
				return errors.NewValidationError(f.Name, "unknown numeric field", nil)
			}
			X.Set(i, j, v)
		}
	}

	return e.Scaler.Fit(X)
}

// EncodeRecord は1レコードを凍結済みパラメータでエンコードする。
// 純粋関数であり、同一のレコードと凍結パラメータに対して常に
// ビット単位で同一のベクトルを返す。
func (e *RecordEncoder) EncodeRecord(rec schema.PatientRecord) ([]float64, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("RecordEncoder", "EncodeRecord")
	}

	vec := make([]float64, 0, e.Dim())

	numericIdx := 0
	for _, f := range e.Schema.Fields {
		switch f.Kind {
		case schema.KindNumeric:
			v, ok := rec.Numeric(f.Name)
			if !ok {
				return nil, errors.NewValidationError(f.Name, "unknown numeric field", nil)
			}
			vec = append(vec, e.Scaler.TransformValue(numericIdx, v))
			numericIdx++
		case schema.KindCategorical:
			v, ok := rec.Categorical(f.Name)
			if !ok {
				return nil, errors.NewValidationError(f.Name, "unknown categorical field", nil)
			}
			// 未知カテゴリは全0インジケータになる
			for _, category := range f.SortedCategories() {
				if v == category {
					vec = append(vec, 1)
				} else {
					vec = append(vec, 0)
				}
			}
		}
	}

	return vec, nil
}

// Transform は複数レコードをエンコードして行列にまとめる
func (e *RecordEncoder) Transform(records []schema.PatientRecord) (*mat.Dense, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("RecordEncoder", "Transform")
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "RecordEncoder.Transform")
	}

	X := mat.NewDense(len(records), e.Dim(), nil)
	for i, rec := range records {
		row, err := e.EncodeRecord(rec)
		if err != nil {
			return nil, err
		}
		X.SetRow(i, row)
	}

	return X, nil
}

// FitTransform は学習と変換を一度に行う
func (e *RecordEncoder) FitTransform(records []schema.PatientRecord) (*mat.Dense, error) {
	if err := e.Fit(records); err != nil {
		return nil, err
	}
	return e.Transform(records)
}

// FeatureNames はエンコード後の列名をスキーマ順・辞書順で返す
func (e *RecordEncoder) FeatureNames() []string {
	names := make([]string, 0, e.Dim())
	for _, f := range e.Schema.Fields {
		switch f.Kind {
		case schema.KindNumeric:
			names = append(names, f.Name)
		case schema.KindCategorical:
			for _, category := range f.SortedCategories() {
				names = append(names, f.Name+"="+category)
			}
		}
	}
	return names
}

// Restore は逆シリアライズ後に凍結済み状態を復元する
func (e *RecordEncoder) Restore() error {
	if e.Scaler == nil {
		return errors.NewValueError("RecordEncoder.Restore", "missing scaler parameters")
	}
	if err := e.Scaler.Restore(); err != nil {
		return err
	}
	if e.Scaler.NFeatures != len(e.Schema.NumericFields()) {
		return errors.NewDimensionError("RecordEncoder.Restore",
			len(e.Schema.NumericFields()), e.Scaler.NFeatures, 1)
	}
	return nil
}
