package utilities

import (
	"encoding/json"
	"os"
	"regexp"

	"github.com/pkg/errors"
)

// JsonConfigObj is the on-disk shape of a config section. ConvertToDomain
// applies defaults and parses strings into domain types.
type JsonConfigObj[T any] interface {
	ConvertToDomain() T
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func ReadConfig[T JsonConfigObj[U], U any](file string) (U, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		var empty U
		return empty, errors.Wrapf(err, "read config %s", file)
	}
	return ParseConfig[T, U](raw)
}

// ParseConfig substitutes ${NAME} references from the environment before
// decoding, so secrets such as broker passwords stay out of the file. Unset
// variables expand to the empty string.
func ParseConfig[T JsonConfigObj[U], U any](content []byte) (U, error) {
	expanded := envRef.ReplaceAllFunc(content, func(ref []byte) []byte {
		name := envRef.FindSubmatch(ref)[1]
		return jsonEscape(os.Getenv(string(name)))
	})

	var cfg T
	if err := json.Unmarshal(expanded, &cfg); err != nil {
		var empty U
		return empty, errors.Wrap(err, "parse config")
	}
	return cfg.ConvertToDomain(), nil
}

// jsonEscape quotes v for embedding inside an existing JSON string literal.
func jsonEscape(v string) []byte {
	quoted, _ := json.Marshal(v)
	return quoted[1 : len(quoted)-1]
}

func ConvertJsonArrayToDomain[T JsonConfigObj[U], U any](items []T) []U {
	out := make([]U, 0, len(items))
	for _, item := range items {
		out = append(out, item.ConvertToDomain())
	}
	return out
}

func ConvertJsonMapToDomain[T JsonConfigObj[U], U any](items map[string]T) map[string]U {
	out := make(map[string]U, len(items))
	for key, item := range items {
		out[key] = item.ConvertToDomain()
	}
	return out
}
