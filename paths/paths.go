package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// RootEnv overrides the project root when set.
const RootEnv = "CREDITGUARD_ROOT"

const (
	DefaultRawFile    = "creditcard.csv"
	ProcessedFile     = "data.csv"
	DefaultModelFile  = "xgboost_final_model.joblib"
	DefaultScalerFile = "amount_scaler.joblib"
)

var ErrUnknownSplit = errors.New("unknown split")

// Split selects one partition of the processed dataset.
type Split string

const (
	Train Split = "train"
	Val   Split = "val"
	Test  Split = "test"
)

func Splits() []Split {
	return []Split{Train, Val, Test}
}

func ParseSplit(s string) (Split, error) {
	switch Split(s) {
	case Train, Val, Test:
		return Split(s), nil
	default:
		return "", fmt.Errorf("%w: %q (want train, val or test)", ErrUnknownSplit, s)
	}
}

func (s Split) String() string {
	return string(s)
}

func (s Split) Valid() bool {
	_, err := ParseSplit(string(s))
	return err == nil
}

// Root returns the absolute project root. It is recomputed on every call:
// RootEnv wins when set, otherwise the directory two levels above this
// source file is used, falling back to the working directory.
func Root() string {
	if root := os.Getenv(RootEnv); root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			return abs
		}
		return filepath.Clean(root)
	}
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		filename = ""
	}
	return rootFromSource(filename)
}

// rootFromSource returns the directory two levels above filename. Binaries
// built with -trimpath report a module-relative filename, and then the
// working directory is used instead so the result is always absolute.
func rootFromSource(filename string) string {
	if filepath.IsAbs(filename) {
		return filepath.Dir(filepath.Dir(filename))
	}
	wd, err := os.Getwd()
	if err != nil {
		return string(filepath.Separator)
	}
	return wd
}

// RootOr returns root when non-empty, otherwise Root().
func RootOr(root string) string {
	if root == "" {
		return Root()
	}
	return root
}

func RawDataPath(root string) string {
	return filepath.Join(root, "data", "raw", DefaultRawFile)
}

func ProcessedDir(root string, split Split) string {
	return filepath.Join(root, "data", "processed", split.String())
}

func ProcessedDataPath(root string, split Split) string {
	return filepath.Join(ProcessedDir(root, split), ProcessedFile)
}

func ModelsDir(root string) string {
	return filepath.Join(root, "models")
}
