// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Check that the given flag value is a well-formed uuid. Empty values pass,
// an unset flag is not an error.
func parseUUID(flag, value string) error {
	if value == "" {
		return nil
	}
	if err := uuid.Validate(value); err != nil {
		return fmt.Errorf("invalid uuid for --%s: %q", flag, value)
	}
	return nil
}

// Split a comma-separated flag value into uuids, rejecting any malformed
// element. An empty value yields an empty list.
func parseUUIDList(flag, value string) ([]string, error) {
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if err := uuid.Validate(part); err != nil {
			return nil, fmt.Errorf("invalid uuid for --%s: %q", flag, part)
		}
		result[i] = part
	}
	return result, nil
}
