package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatasetsCmd_Use(t *testing.T) {
	assert.Equal(t, "datasets", datasetsCmd.Use)
}

func TestDatasetsCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"datasets"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Supported coding systems")
	assert.Contains(t, out, "ICD-10-CM")
	assert.Contains(t, out, "LOINC")
	assert.Contains(t, out, "official")
	assert.Contains(t, out, "supplementary")
}

func TestDatasetsCmd_ServiceNotConfigured(t *testing.T) {
	oldService := lookupService
	lookupService = nil
	defer func() {
		lookupService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"datasets"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "lookup service not configured")
}
