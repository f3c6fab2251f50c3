package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/plugtest/plugtest/constant"
	"github.com/plugtest/plugtest/icon"
	"github.com/plugtest/plugtest/key"
	"github.com/plugtest/plugtest/player"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

type rule func(v any) error

var rules = map[string]rule{
	key.FetchTimeout:      atLeast(1),
	key.RunnerTimeout:     atLeast(0),
	key.RunnerConcurrency: atLeast(1),
	key.TesterLogsCap:     atLeast(1),
	key.ParamsContentID:   notBlank,
	key.ParamsMediaType:   oneOf(constant.MediaMovie, constant.MediaTV),
	key.ParamsSeason:      atLeast(1),
	key.ParamsEpisode:     atLeast(1),
	key.HistoryKeep:       atLeast(0),
	key.IconsVariant:      oneOf(icon.AvailableVariants()...),
	key.LogsLevel: func(v any) error {
		_, err := logrus.ParseLevel(v.(string))
		return err
	},
	key.Player: func(v any) error {
		_, err := player.Get(v.(string))
		return err
	},
}

func atLeast(n int) rule {
	return func(v any) error {
		if v.(int) < n {
			return fmt.Errorf("must be at least %d, got %d", n, v)
		}
		return nil
	}
}

func oneOf(options ...string) rule {
	return func(v any) error {
		if !lo.Contains(options, v.(string)) {
			return fmt.Errorf("expected one of %s, got %q", strings.Join(options, ", "), v)
		}
		return nil
	}
}

func notBlank(v any) error {
	if strings.TrimSpace(v.(string)) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

// Parse converts raw command line values into the type of the key's default and checks the
// result against the key's constraints.
func Parse(k string, raw []string) (any, error) {
	field, ok := Default[k]
	if !ok {
		return nil, fmt.Errorf("unknown key %s", k)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: value is required", k)
	}

	var v any
	switch field.Value.(type) {
	case string:
		v = raw[0]
	case int:
		n, err := strconv.Atoi(strings.TrimSpace(raw[0]))
		if err != nil {
			return nil, fmt.Errorf("%s: invalid integer %q", k, raw[0])
		}
		v = n
	case bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw[0]))
		if err != nil {
			return nil, fmt.Errorf("%s: invalid boolean %q", k, raw[0])
		}
		v = b
	case []string:
		v = raw
	}

	if err := Validate(k, v); err != nil {
		return nil, err
	}

	return v, nil
}

// Validate checks an already typed value for key.
func Validate(k string, v any) error {
	check, ok := rules[k]
	if !ok {
		return nil
	}

	if err := check(v); err != nil {
		return fmt.Errorf("%s: %w", k, err)
	}

	return nil
}

// Current returns the effective value of key converted to the type of its default.
func Current(k string) any {
	switch Default[k].Value.(type) {
	case int:
		return viper.GetInt(k)
	case bool:
		return viper.GetBool(k)
	case []string:
		return viper.GetStringSlice(k)
	default:
		return viper.GetString(k)
	}
}

// Check validates the effective value of every key, in key order.
func Check() []error {
	keys := lo.Keys(Default)
	slices.Sort(keys)

	var errs []error
	for _, k := range keys {
		if err := Validate(k, Current(k)); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}
