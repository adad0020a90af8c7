// Package errors はプロジェクト全体のエラーハンドリングを提供します。
// 学習・推論パイプラインの失敗を型付きエラーとして表現し、
// cockroachdb/errors によるスタックトレースと zerolog 向けの構造化出力を付与します。
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// ValidationError は入力レコードがスキーマの検証に失敗した場合のエラーです。
// フィールド名を必ず保持し、リクエスト境界で呼び出し元に返されます。
type ValidationError struct {
	Field  string
	Reason string
	Value  interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("celiguard: validation failed for field '%s': %s (got: %v)", e.Field, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("field", e.Field).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(field, reason string, value interface{}) error {
	err := &ValidationError{Field: field, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ArtifactLoadError はモデル成果物の読み込みに失敗した場合のエラーです。
// ファイル欠損、バージョン不一致、破損のいずれもこの型で報告され、
// サービング起動時には致命的エラーとして扱われます。
type ArtifactLoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ArtifactLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("celiguard: failed to load artifact %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("celiguard: failed to load artifact %q: %s", e.Path, e.Reason)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ArtifactLoadError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("reason", e.Reason).
		Str("type", "ArtifactLoadError")
}

// NewArtifactLoadError は新しいArtifactLoadErrorを作成し、スタックトレースを付与します。
func NewArtifactLoadError(path, reason string, err error) error {
	loadErr := &ArtifactLoadError{Path: path, Reason: reason, Err: err}
	return errors.WithStack(loadErr)
}

// TrainingDataError は学習データが縮退している場合のエラーです。
// 例えば、出現するクラスが2未満の場合など。学習は中断され、成果物は公開されません。
type TrainingDataError struct {
	Reason  string
	Samples int
	Classes int
}

func (e *TrainingDataError) Error() string {
	return fmt.Sprintf("celiguard: degenerate training data: %s (samples=%d, classes=%d)", e.Reason, e.Samples, e.Classes)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *TrainingDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("reason", e.Reason).
		Int("samples", e.Samples).
		Int("classes", e.Classes).
		Str("type", "TrainingDataError")
}

// NewTrainingDataError は新しいTrainingDataErrorを作成し、スタックトレースを付与します。
func NewTrainingDataError(reason string, samples, classes int) error {
	err := &TrainingDataError{Reason: reason, Samples: samples, Classes: classes}
	return errors.WithStack(err)
}

// ModelNotLoadedError は成果物の読み込み前に推論が要求された場合のエラーです。
// 呼び出し順序のプログラミングエラーであり、ユーザー向けの条件ではありません。
type ModelNotLoadedError struct {
	Op string
}

func (e *ModelNotLoadedError) Error() string {
	return fmt.Sprintf("celiguard: %s: no model artifact loaded. Load an artifact before requesting predictions", e.Op)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ModelNotLoadedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("type", "ModelNotLoadedError")
}

// NewModelNotLoadedError は新しいModelNotLoadedErrorを作成し、スタックトレースを付与します。
func NewModelNotLoadedError(op string) error {
	err := &ModelNotLoadedError{Op: op}
	return errors.WithStack(err)
}

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("celiguard: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("celiguard: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("celiguard: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
