package sstv

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

/*
 * YAML configuration loading.
 *
 * Mirrors the teacher's decoder_config.go: enum types get their own
 * MarshalYAML/UnmarshalYAML pair so config files name things ("RGB",
 * "YCrCb", "Martin M1") instead of carrying raw integers, and a single
 * top-level struct is read with yaml.Unmarshal and then validated.
 */

// MarshalYAML implements yaml.Marshaler for ColorFormat.
func (c ColorFormat) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler for ColorFormat.
func (c *ColorFormat) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "rgb":
		*c = ColorFormatRGB
	case "gbr":
		*c = ColorFormatGBR
	case "ycrcb":
		*c = ColorFormatYCrCb
	case "grayscale":
		*c = ColorFormatGrayscale
	default:
		return fmt.Errorf("sstv: unknown color format %q", s)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler for ChromaSubsampling.
func (c ChromaSubsampling) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler for ChromaSubsampling.
func (c *ChromaSubsampling) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch s {
	case "4:4:4":
		*c = Chroma444
	case "4:2:2":
		*c = Chroma422
	case "4:2:0":
		*c = Chroma420
	default:
		return fmt.Errorf("sstv: unknown chroma subsampling %q", s)
	}
	return nil
}

// modeRef names a Mode by its registry name or short name in YAML, and
// resolves to the actual *Mode on load — config files shouldn't have to
// spell out a mode's full timing table to pin one.
type modeRef struct {
	name string
	mode *Mode
}

// MarshalYAML implements yaml.Marshaler for modeRef.
func (r modeRef) MarshalYAML() (interface{}, error) {
	if r.mode == nil {
		return "", nil
	}
	return r.mode.Name, nil
}

// UnmarshalYAML implements yaml.Unmarshaler for modeRef.
func (r *modeRef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	r.name = s
	if s == "" {
		r.mode = nil
		return nil
	}
	m := GetByName(s)
	if m == nil {
		return fmt.Errorf("sstv: unknown mode %q", s)
	}
	r.mode = m
	return nil
}

// StreamingConfigFile is the on-disk YAML shape of a StreamingConfig.
// ForceMode, left blank, means "auto-detect VIS" (StreamingConfig's
// zero value for ForceMode).
type StreamingConfigFile struct {
	SampleRate       float64 `yaml:"sample_rate"`
	MaxBufferSeconds float64 `yaml:"max_buffer_seconds"`
	FFTSize          int     `yaml:"fft_size"`
	ForceMode        modeRef `yaml:"force_mode"`
}

// ToStreamingConfig resolves the file's modeRef into a concrete
// StreamingConfig.
func (f StreamingConfigFile) ToStreamingConfig() StreamingConfig {
	return StreamingConfig{
		SampleRate:       f.SampleRate,
		MaxBufferSeconds: f.MaxBufferSeconds,
		FFTSize:          f.FFTSize,
		ForceMode:        f.ForceMode.mode,
	}
}

// EncoderConfigFile is the on-disk YAML shape of an EncoderConfig.
type EncoderConfigFile struct {
	Mode                 modeRef `yaml:"mode"`
	SampleRate           float64 `yaml:"sample_rate"`
	AddCalibrationHeader bool    `yaml:"add_calibration_header"`
	AddVoxTones          bool    `yaml:"add_vox_tones"`
}

// ToEncoderConfig resolves the file's modeRef into a concrete
// EncoderConfig.
func (f EncoderConfigFile) ToEncoderConfig() (EncoderConfig, error) {
	if f.Mode.mode == nil {
		return EncoderConfig{}, fmt.Errorf("sstv: encoder config requires a mode")
	}
	return EncoderConfig{
		Mode:                 f.Mode.mode,
		SampleRate:           f.SampleRate,
		AddCalibrationHeader: f.AddCalibrationHeader,
		AddVoxTones:          f.AddVoxTones,
	}, nil
}

// Validate checks that a streaming config file is usable before it's
// handed to NewController.
func (f StreamingConfigFile) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sstv: sample_rate must be positive")
	}
	if f.MaxBufferSeconds < 0 {
		return fmt.Errorf("sstv: max_buffer_seconds cannot be negative")
	}
	if f.FFTSize < 0 {
		return fmt.Errorf("sstv: fft_size cannot be negative")
	}
	return nil
}

// Validate checks that an encoder config file is usable before it's
// handed to Encode.
func (f EncoderConfigFile) Validate() error {
	if f.Mode.name == "" {
		return fmt.Errorf("sstv: mode is required")
	}
	if f.Mode.mode == nil {
		return fmt.Errorf("sstv: unknown mode %q", f.Mode.name)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("sstv: sample_rate must be positive")
	}
	return nil
}

// LoadStreamingConfig reads and validates a StreamingConfigFile from a
// YAML file on disk.
func LoadStreamingConfig(path string) (StreamingConfigFile, error) {
	var f StreamingConfigFile
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("sstv: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("sstv: parsing config %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}

// LoadEncoderConfig reads and validates an EncoderConfigFile from a
// YAML file on disk.
func LoadEncoderConfig(path string) (EncoderConfigFile, error) {
	var f EncoderConfigFile
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("sstv: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("sstv: parsing config %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}
