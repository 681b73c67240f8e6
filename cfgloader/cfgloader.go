// Package cfgloader loads and validates the configuration of a service at
// start-up.
//
// The configuration is read from <dir>/${ENVIRONMENT}.yaml after loading a
// .env file when present. ${VAR} references in the file are expanded from
// the environment, `default` tags fill missing values and `validate` tags
// are checked with go-playground/validator.
package cfgloader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rise-and-shine/dispatch/mask"
	"github.com/rise-and-shine/dispatch/observability/logger"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvLocal      = "local"
	EnvTest       = "test"

	CodeInvalidEnvironment = "CONFIG_INVALID_ENVIRONMENT"
	CodeReadFailed         = "CONFIG_READ_FAILED"
	CodeInvalidConfig      = "CONFIG_INVALID"
)

//nolint:gochecknoglobals // fixed set
var environments = []string{EnvProduction, EnvStaging, EnvDev, EnvLocal, EnvTest}

// MustLoad is like Load but terminates the process on failure.
//
//	type Config struct {
//	    Host string `yaml:"host" validate:"required"`
//	    Port int    `yaml:"port" default:"8080"`
//	}
//
//	cfg := cfgloader.MustLoad[Config]()
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		logger.Named("cfgloader").Fatalx(err)
	}
	return cfg
}

// Load reads the configuration for the current environment into a T.
// T must be a struct type, not a pointer.
func Load[T any](opts ...Option) (T, error) {
	var cfg T

	o := newOptions(opts)

	if reflect.TypeOf(cfg) == nil || reflect.TypeOf(cfg).Kind() != reflect.Struct {
		return cfg, errx.New("config type must be a struct", errx.WithCode(CodeInvalidConfig))
	}

	_ = godotenv.Load()

	env := o.environment
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if !slices.Contains(environments, env) {
		return cfg, errx.New(
			fmt.Sprintf("ENVIRONMENT is not set or invalid, choices are: %s", strings.Join(environments, ", ")),
			errx.WithCode(CodeInvalidEnvironment),
			errx.WithDetails(errx.D{"environment": env}),
		)
	}

	path := filepath.Join(o.dir, env+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errx.Wrap(err, errx.WithCode(CodeReadFailed), errx.WithDetails(errx.D{"path": path}))
	}

	if err = yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, errx.Wrap(err, errx.WithCode(CodeInvalidConfig), errx.WithDetails(errx.D{"path": path}))
	}

	if err = defaults.Set(&cfg); err != nil {
		return cfg, errx.Wrap(err, errx.WithCode(CodeInvalidConfig))
	}

	if err = validate(cfg); err != nil {
		return cfg, err
	}

	if !o.silent {
		logger.Named("cfgloader").
			With("environment", env).
			With("config", mask.StructToOrdMap(cfg)).
			Info("config loaded")
	}

	return cfg, nil
}

func validate(cfg any) error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errx.Wrap(err, errx.WithCode(CodeInvalidConfig))
	}

	fields := make(errx.M, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Namespace()] = rule
	}

	return errx.New("invalid config fields",
		errx.WithCode(CodeInvalidConfig),
		errx.WithType(errx.T_Validation),
		errx.WithFields(fields),
	)
}
