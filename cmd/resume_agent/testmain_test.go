package main

import (
	"os"
	"testing"
)

// serviceEnv points commands at real services; tests run without them
var serviceEnv = []string{
	"GEMINI_API_KEY",
	"RESUME_LLM_API_KEY",
	"DATABASE_URL",
	"RESUME_DATABASE_URL",
	"RESUME_CACHE_REDIS_URL",
}

func TestMain(m *testing.M) {
	for _, key := range serviceEnv {
		os.Unsetenv(key) //nolint:errcheck
	}
	os.Exit(m.Run())
}
