package sstv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LoadStreamingConfig_parsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "streaming.yaml")
	yaml := "sample_rate: 48000\nmax_buffer_seconds: 12\nfft_size: 8192\nforce_mode: \"Martin M1\"\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	f, err := LoadStreamingConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 48000.0, f.SampleRate)
	assert.Equal(t, 12.0, f.MaxBufferSeconds)
	assert.Equal(t, 8192, f.FFTSize)

	cfg := f.ToStreamingConfig()
	assert.NotNil(t, cfg.ForceMode)
	assert.Equal(t, "Martin M1", cfg.ForceMode.Name)
}

func Test_LoadStreamingConfig_withoutForceModeAutoDetects(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "streaming.yaml")
	yaml := "sample_rate: 44100\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	f, err := LoadStreamingConfig(path)
	require.NoError(t, err)
	cfg := f.ToStreamingConfig()
	assert.Nil(t, cfg.ForceMode)
}

func Test_LoadStreamingConfig_rejectsUnknownMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "streaming.yaml")
	yaml := "sample_rate: 48000\nforce_mode: \"not a mode\"\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := LoadStreamingConfig(path)
	assert.Error(t, err)
}

func Test_LoadStreamingConfig_rejectsInvalidSampleRate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "streaming.yaml")
	yaml := "sample_rate: -1\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := LoadStreamingConfig(path)
	assert.Error(t, err)
}

func Test_LoadEncoderConfig_parsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "encoder.yaml")
	yaml := "mode: \"Scottie S1\"\nsample_rate: 48000\nadd_calibration_header: true\nadd_vox_tones: true\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	f, err := LoadEncoderConfig(path)
	require.NoError(t, err)

	cfg, err := f.ToEncoderConfig()
	require.NoError(t, err)
	assert.Equal(t, "Scottie S1", cfg.Mode.Name)
	assert.True(t, cfg.AddCalibrationHeader)
	assert.True(t, cfg.AddVoxTones)
}

func Test_LoadEncoderConfig_requiresMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "encoder.yaml")
	yaml := "sample_rate: 48000\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := LoadEncoderConfig(path)
	assert.Error(t, err)
}

func Test_LoadStreamingConfig_missingFileErrors(t *testing.T) {
	_, err := LoadStreamingConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
