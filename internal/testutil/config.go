package testutil

import (
	"os"
	"strconv"
)

const (
	// Test credential environment variables
	TestClientIDVar     = "TEST_BLIZZARD_CLIENT_ID"
	TestClientSecretVar = "TEST_BLIZZARD_CLIENT_SECRET"
	TestRegionVar       = "TEST_BLIZZARD_REGION"

	// Default test values when environment variables are not set
	DefaultTestClientID     = "test-client-id"
	DefaultTestClientSecret = "test-client-secret"
	DefaultTestRegion       = "us"
)

// GetTestCredential returns a test credential from environment variable or default
func GetTestCredential(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// GetTestClientID returns the client id used against recorded test servers
func GetTestClientID() string {
	return GetTestCredential(TestClientIDVar, DefaultTestClientID)
}

// GetTestClientSecret returns the client secret used against recorded test servers
func GetTestClientSecret() string {
	return GetTestCredential(TestClientSecretVar, DefaultTestClientSecret)
}

// GetTestRegion returns the region test fixtures are built for
func GetTestRegion() string {
	return GetTestCredential(TestRegionVar, DefaultTestRegion)
}

// IsTestMode returns true if we're running in test mode
func IsTestMode() bool {
	testMode := os.Getenv("TEST_MODE")
	if testMode == "" {
		return true // Default to test mode if not specified
	}

	enabled, _ := strconv.ParseBool(testMode)
	return enabled
}
