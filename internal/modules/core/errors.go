package core

import (
	"errors"
	"fmt"
)

var (
	ErrReferenceNotFound  = errors.New("reference not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflictResolution = errors.New("conflict resolution failed")
	ErrConnectivity       = errors.New("sink unreachable")
	ErrSerialization      = errors.New("serialization failed")
	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

func ReferenceNotFound(kind string, slug string) error {
	return fmt.Errorf("%s: '%s': %w", kind, slug, ErrReferenceNotFound)
}

func ConflictResolutionFailure(slug string) error {
	return fmt.Errorf("slug: '%s' was ignored on insert and not found afterwards: %w", slug, ErrConflictResolution)
}

func SerializationFailure(field string, err error) error {
	return fmt.Errorf("field: %s: %w: %s", field, ErrSerialization, err.Error())
}

func ProductNotFound(id int64) error {
	return fmt.Errorf("id: %d: %w", id, ErrProductNotFound)
}

func Connectivity(target string, err error) error {
	return fmt.Errorf("%s: %w: %s", target, ErrConnectivity, err.Error())
}

func InvalidConfig(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidConfig)
}
