// Package optimization runs the exhaustive parameter grid search: every combination is
// replayed through the decision policy, the simulator and the evaluator, filtered by
// trading activity and ranked by Sharpe ratio.
package optimization

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aristath/sentinel-tuner/internal/domain"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Grid holds the candidate values for each tunable field. Combinations are enumerated
// with BuyScore as the most significant digit and AllocPct as the least significant.
type Grid struct {
	BuyScore             []int     `yaml:"buy_score" json:"buy_score" default:"[10,15,20,25,30,35,40,50]" validate:"required,min=1"`
	BuyRSIMax            []float64 `yaml:"buy_rsi_max" json:"buy_rsi_max" default:"[28,35,45,50]" validate:"required,min=1,dive,gte=0,lte=100"`
	SellScore            []int     `yaml:"sell_score" json:"sell_score" default:"[-30,-25,-20,-15,-10,-5,0]" validate:"required,min=1"`
	SellScoreMild        []int     `yaml:"sell_score_mild" json:"sell_score_mild" default:"[-15,-10,-5,0,5,10]" validate:"required,min=1"`
	SellRSIMin           []float64 `yaml:"sell_rsi_min" json:"sell_rsi_min" default:"[35,40,45,50]" validate:"required,min=1,dive,gte=0,lte=100"`
	SellBB               []float64 `yaml:"sell_bb" json:"sell_bb" default:"[0.7,0.8,0.9,1.0,1.1,1.5]" validate:"required,min=1"`
	RequireMACDImproving []bool    `yaml:"require_macd_improving" json:"require_macd_improving" default:"[true,false]" validate:"required,min=1"`
	AllocPct             []float64 `yaml:"alloc_pct" json:"alloc_pct" default:"[0.03,0.05,0.08]" validate:"required,min=1,dive,gt=0,lte=1"`
}

// DefaultGrid returns the standard candidate lists
func DefaultGrid() Grid {
	var g Grid
	// defaults only fails on malformed tags
	if err := defaults.Set(&g); err != nil {
		panic(fmt.Sprintf("invalid grid defaults: %v", err))
	}
	return g
}

// LoadGrid reads a YAML grid file. Fields left out of the file keep their default
// candidate lists.
func LoadGrid(path string) (Grid, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Grid{}, fmt.Errorf("read grid: %w", err)
	}
	return ParseGrid(b)
}

// ParseGrid parses a YAML grid document, fills unspecified fields with defaults and
// validates the result.
func ParseGrid(b []byte) (Grid, error) {
	var g Grid
	if err := yaml.Unmarshal(b, &g); err != nil {
		return Grid{}, fmt.Errorf("parse grid: %w", err)
	}
	if err := g.WithDefaults(); err != nil {
		return Grid{}, err
	}
	if err := g.Validate(); err != nil {
		return Grid{}, fmt.Errorf("validate grid: %w", err)
	}
	return g, nil
}

// WithDefaults fills empty candidate lists with their defaults
func (g *Grid) WithDefaults() error {
	if err := defaults.Set(g); err != nil {
		return fmt.Errorf("apply grid defaults: %w", err)
	}
	return nil
}

// Validate checks that every field has at least one candidate and that the numeric
// candidates are in range.
func (g Grid) Validate() error {
	err := validate.Struct(g)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("%s needs at least one candidate", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// radix returns the candidate count per field, most significant first
func (g Grid) radix() [8]int {
	return [8]int{
		len(g.BuyScore),
		len(g.BuyRSIMax),
		len(g.SellScore),
		len(g.SellScoreMild),
		len(g.SellRSIMin),
		len(g.SellBB),
		len(g.RequireMACDImproving),
		len(g.AllocPct),
	}
}

// Size returns the number of combinations, 0 if any field has no candidates
func (g Grid) Size() int {
	n := 1
	for _, r := range g.radix() {
		n *= r
	}
	return n
}

// At decodes combination i (0 <= i < Size()) in enumeration order
func (g Grid) At(i int) domain.ParameterSet {
	r := g.radix()
	var digit [8]int
	for k := len(r) - 1; k >= 0; k-- {
		digit[k] = i % r[k]
		i /= r[k]
	}

	return domain.ParameterSet{
		BuyScore:             g.BuyScore[digit[0]],
		BuyRSIMax:            g.BuyRSIMax[digit[1]],
		SellScore:            g.SellScore[digit[2]],
		SellScoreMild:        g.SellScoreMild[digit[3]],
		SellRSIMin:           g.SellRSIMin[digit[4]],
		SellBB:               g.SellBB[digit[5]],
		RequireMACDImproving: g.RequireMACDImproving[digit[6]],
		AllocPct:             g.AllocPct[digit[7]],
	}
}

// Combinations returns every parameter set in enumeration order
func (g Grid) Combinations() []domain.ParameterSet {
	out := make([]domain.ParameterSet, g.Size())
	for i := range out {
		out[i] = g.At(i)
	}
	return out
}
