package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/viper"
)

var log = logging.Logger("config")

// Validatable is implemented by every configuration section.
type Validatable interface {
	Validate() error
}

// Load unmarshals the global viper configuration into T and validates it.
func Load[T Validatable]() (T, error) {
	var out T
	if err := viper.Unmarshal(&out); err != nil {
		return out, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := out.Validate(); err != nil {
		return out, err
	}
	log.Debugw("loaded configuration", "file", viper.ConfigFileUsed())
	return out, nil
}

// identifierPattern matches names that can be used unquoted as object keys.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their configuration key rather than the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	must(v.RegisterValidation("hexaddr", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
	}))
	must(v.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func validateConfig(s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
