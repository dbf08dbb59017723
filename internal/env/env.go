package env

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	ErrNotFound         = errors.New("environment variable with key not found")
	ErrConversionFailed = errors.New("failed to convert environment variable with key to value")
)

func errNotFound(key string) error {
	return fmt.Errorf("key: %s: %w", key, ErrNotFound)
}

func errConversionFailed(key string, typeName string) error {
	return fmt.Errorf("key: %s type: %s: %w", key, typeName, ErrConversionFailed)
}

func GetStringOrDefault(key string, defaultVal string) string {
	if val, found := os.LookupEnv(key); found {
		return val
	}

	return defaultVal
}

func GetString(key string) (string, error) {
	if val, found := os.LookupEnv(key); found {
		return val, nil
	}

	return "", errNotFound(key)
}

func GetInt(key string) (int, error) {
	val, err := GetString(key)
	if err != nil {
		return 0, err
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, errConversionFailed(key, "int")
	}

	return i, nil
}

func GetIntOrDefault(key string, defaultVal int) (int, error) {
	i, err := GetInt(key)
	if errors.Is(err, ErrNotFound) {
		return defaultVal, nil
	}
	return i, err
}

func GetBoolOrDefault(key string, defaultVal bool) (bool, error) {
	val, found := os.LookupEnv(key)
	if !found || val == "" {
		return defaultVal, nil
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, errConversionFailed(key, "bool")
	}

	return b, nil
}

func GetFloatOrDefault(key string, defaultVal float64) (float64, error) {
	val, found := os.LookupEnv(key)
	if !found || val == "" {
		return defaultVal, nil
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, errConversionFailed(key, "float64")
	}

	return f, nil
}

func GetDurationOrDefault(key string, defaultVal time.Duration) (time.Duration, error) {
	val, found := os.LookupEnv(key)
	if !found || val == "" {
		return defaultVal, nil
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, errConversionFailed(key, "time.Duration")
	}

	return d, nil
}
