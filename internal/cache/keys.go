package cache

import "strings"

const (
	GlobalKeyPrefix = "studyhub"
)

// GenerateCacheKey builds "studyhub:<service>:<objectType>:<identifier>[:<params joined by _>]".
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}
