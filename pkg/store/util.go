package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rzbill/stockroom/pkg/types"
)

// AllNamespaces lists across every namespace of a resource type.
const AllNamespaces = "*"

// MakeKey creates a standardized key for a resource.
func MakeKey(resourceType types.ResourceType, namespace, name string) []byte {
	return []byte(fmt.Sprintf("%s/%s/%s", resourceType, namespace, name))
}

// MakeVersionKey creates a standardized key for a resource version.
func MakeVersionKey(resourceType types.ResourceType, namespace, name, version string) []byte {
	return []byte(fmt.Sprintf("%s-versions/%s/%s/%s", resourceType, namespace, name, version))
}

// MakePrefix creates a prefix for listing resources by type and namespace.
func MakePrefix(resourceType types.ResourceType, namespace string) []byte {
	if namespace == AllNamespaces || namespace == "" {
		return []byte(fmt.Sprintf("%s/", resourceType))
	}
	return []byte(fmt.Sprintf("%s/%s/", resourceType, namespace))
}

// MakeVersionPrefix creates a prefix for listing resource versions.
func MakeVersionPrefix(resourceType types.ResourceType, namespace, name string) []byte {
	return []byte(fmt.Sprintf("%s-versions/%s/%s/", resourceType, namespace, name))
}

// ParseKey parses a key into its components.
func ParseKey(key []byte) (resourceType, namespace, name string, ok bool) {
	parts := strings.SplitN(string(key), "/", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// newVersionID returns a sortable version id. Ids are zero padded so that
// byte order matches time order.
func newVersionID(now time.Time) string {
	return fmt.Sprintf("v%020d", now.UnixNano())
}

// versionRecord is the stored form of one historical version.
type versionRecord struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Resource  json.RawMessage `json:"resource"`
}

func (r versionRecord) historical() (HistoricalVersion, error) {
	var resource interface{}
	if err := json.Unmarshal(r.Resource, &resource); err != nil {
		return HistoricalVersion{}, fmt.Errorf("failed to deserialize version: %w", err)
	}
	return HistoricalVersion{Version: r.ID, Timestamp: r.Timestamp, Resource: resource}, nil
}

// UnmarshalResource converts a resource interface to a target type using JSON
// marshaling and unmarshaling.
func UnmarshalResource(source interface{}, target interface{}) error {
	jsonData, err := json.Marshal(source)
	if err != nil {
		return fmt.Errorf("failed to marshal resource: %w", err)
	}
	if err := json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("failed to unmarshal resource: %w", err)
	}
	return nil
}

// unmarshalList decodes raw JSON documents into a pointer to a slice.
func unmarshalList(items [][]byte, target interface{}) error {
	raw := make([]json.RawMessage, len(items))
	for i, item := range items {
		raw[i] = item
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal resources: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal resources: %w", err)
	}
	return nil
}

func notFound(resourceType types.ResourceType, namespace, name string) error {
	return fmt.Errorf("resource %s/%s/%s %w", resourceType, namespace, name, ErrNotFound)
}

func alreadyExists(resourceType types.ResourceType, namespace, name string) error {
	return fmt.Errorf("resource %s/%s/%s %w", resourceType, namespace, name, ErrAlreadyExists)
}

// IsAlreadyExistsError checks if an error is an already exists error.
func IsAlreadyExistsError(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsNotFoundError checks if an error is a not found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
