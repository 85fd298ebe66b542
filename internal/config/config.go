// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/alvinbaena/breachguard/internal/util"
	"github.com/alvinbaena/breachguard/pkg/hibp"
	"github.com/alvinbaena/breachguard/pkg/strength"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. BREACHGUARD_RANGE_TIMEOUT.
const EnvPrefix = "BREACHGUARD"

type Config struct {
	Port    uint16 `mapstructure:"PORT" validate:"required"`
	SelfTLS bool   `mapstructure:"SELF_TLS"`
	TLSCert string `mapstructure:"TLS_CERT" validate:"required_with=TLSKey"`
	TLSKey  string `mapstructure:"TLS_KEY" validate:"required_with=TLSCert"`
	Debug   bool   `mapstructure:"DEBUG"`
	// RateLimit is the number of API requests per second served, zero disables the limiter.
	RateLimit float64 `mapstructure:"RATE_LIMIT" validate:"gte=0"`
	RateBurst int     `mapstructure:"RATE_BURST" validate:"gte=0"`

	Range    Range    `mapstructure:"RANGE"`
	Strength Strength `mapstructure:"STRENGTH"`
}

// Range configures the breach corpus endpoint.
type Range struct {
	Endpoint  string        `mapstructure:"ENDPOINT" validate:"required,url,startswith=https://"`
	Timeout   time.Duration `mapstructure:"TIMEOUT" validate:"gt=0"`
	Padding   bool          `mapstructure:"PADDING"`
	Retries   int           `mapstructure:"RETRIES" validate:"gte=0,lte=5"`
	UserAgent string        `mapstructure:"USER_AGENT" validate:"required"`
}

// Strength overrides the estimator thresholds. See strength.Policy for their meaning.
type Strength struct {
	MaxLength          int     `mapstructure:"MAX_LENGTH" validate:"gt=0,lte=4096"`
	MinLength          int     `mapstructure:"MIN_LENGTH" validate:"gt=0,ltefield=MaxLength"`
	RecommendedLength  int     `mapstructure:"RECOMMENDED_LENGTH" validate:"gtefield=MinLength"`
	EntropyForMaxScore float64 `mapstructure:"ENTROPY_FOR_MAX_SCORE" validate:"gt=0"`
	GuessesPerSecond   float64 `mapstructure:"GUESSES_PER_SECOND" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	p := strength.DefaultPolicy()

	v.SetDefault("PORT", 3100)
	v.SetDefault("RATE_LIMIT", 10)
	v.SetDefault("RATE_BURST", 20)
	v.SetDefault("RANGE.ENDPOINT", hibp.DefaultEndpoint)
	v.SetDefault("RANGE.TIMEOUT", hibp.DefaultTimeout)
	v.SetDefault("RANGE.PADDING", true)
	v.SetDefault("RANGE.RETRIES", 0)
	v.SetDefault("RANGE.USER_AGENT", hibp.DefaultUserAgent)
	v.SetDefault("STRENGTH.MAX_LENGTH", p.MaxLength)
	v.SetDefault("STRENGTH.MIN_LENGTH", p.MinLength)
	v.SetDefault("STRENGTH.RECOMMENDED_LENGTH", p.RecommendedLength)
	v.SetDefault("STRENGTH.ENTROPY_FOR_MAX_SCORE", p.EntropyForMaxScore)
	v.SetDefault("STRENGTH.GUESSES_PER_SECOND", p.GuessesPerSecond)
}

func bindEnvs(v *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		fv := ifv.Field(i)
		t := ift.Field(i)
		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		switch fv.Kind() {
		case reflect.Struct:
			bindEnvs(v, fv.Interface(), append(parts, tv)...)
		default:
			_ = v.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "required_with":
		return fmt.Sprintf("This field requires the presence of %s", util.ToScreamingSnakeCase(fe.Param()))
	case "url":
		return "This field must be a valid URL"
	case "startswith":
		return fmt.Sprintf("This field must start with %s", fe.Param())
	case "gt", "gte", "lte":
		return fmt.Sprintf("This field must be %s %s", opWords[fe.Tag()], fe.Param())
	case "ltefield", "gtefield":
		return fmt.Sprintf("This field must be %s %s", opWords[strings.TrimSuffix(fe.Tag(), "field")],
			util.ToScreamingSnakeCase(fe.Param()))
	}
	return fe.Error() // default error
}

var opWords = map[string]string{
	"gt":  "greater than",
	"gte": "greater than or equal to",
	"lte": "less than or equal to",
}

// envName maps a validator namespace like Config.Range.Timeout to RANGE_TIMEOUT.
func envName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return util.ToScreamingSnakeCase(ns)
}

// Load reads the configuration from the environment and, when file is not empty, from a config file.
// Environment variables win over the file.
func Load(file string) (config Config, err error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err = v.ReadInConfig(); err != nil {
			return config, fmt.Errorf("error reading config file %s: %w", file, err)
		}
	}

	// This is to not require a config file to unmarshal Envs in a struct
	// https://github.com/spf13/viper/issues/188#issuecomment-399884438
	config = Config{}
	bindEnvs(v, config)

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("error decoding configuration: %w", err)
	}

	return config, config.Validate()
}

// Validate checks the struct tags and reports every failing field by its environment name.
func (c Config) Validate() error {
	err := validator.New().Struct(&c)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("%s_%s: %s", EnvPrefix, envName(fe), msgForTag(fe)))
		}
		return errors.New(strings.Join(msgs, ". "))
	}

	return fmt.Errorf("error validating configuration: %w", err)
}

// Policy overlays the configured thresholds on the default strength policy.
func (c Config) Policy() strength.Policy {
	p := strength.DefaultPolicy()
	p.MaxLength = c.Strength.MaxLength
	p.MinLength = c.Strength.MinLength
	p.RecommendedLength = c.Strength.RecommendedLength
	p.EntropyForMaxScore = c.Strength.EntropyForMaxScore
	p.GuessesPerSecond = c.Strength.GuessesPerSecond
	return p
}

func (c Config) ClientConfig() hibp.ClientConfig {
	return hibp.ClientConfig{
		Endpoint:  c.Range.Endpoint,
		Timeout:   c.Range.Timeout,
		Padding:   c.Range.Padding,
		Retries:   c.Range.Retries,
		UserAgent: c.Range.UserAgent,
	}
}
