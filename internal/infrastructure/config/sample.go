package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/llmsim/llmsim/internal/domain/models"
)

const sampleHeader = `# llmsim configuration
#
# Every value can be overridden with LLMSIM_* environment variables
# (LLMSIM_HOST, LLMSIM_PORT, LLMSIM_SEED) and the serve command's flags.
#
# latency.profile accepts a model name (gpt-5, gpt-4o, claude-haiku, ...)
# or the synthetic profiles "instant" and "fast". Leave the latency block
# zeroed to derive timing from each request's model.
#
# response.generator: lorem | echo | random | sequence | fixed:TEXT
`

// sampleFile mirrors Config with yaml tags for the generated sample.
type sampleFile struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`
	Latency struct {
		Profile      string  `yaml:"profile"`
		TTFTMeanMs   float64 `yaml:"ttft_mean_ms"`
		TTFTStddevMs float64 `yaml:"ttft_stddev_ms"`
		TBTMeanMs    float64 `yaml:"tbt_mean_ms"`
		TBTStddevMs  float64 `yaml:"tbt_stddev_ms"`
	} `yaml:"latency"`
	Response struct {
		Generator    string `yaml:"generator"`
		TargetTokens int    `yaml:"target_tokens"`
	} `yaml:"response"`
	Errors struct {
		RateLimitRate   float64 `yaml:"rate_limit_rate"`
		ServerErrorRate float64 `yaml:"server_error_rate"`
		TimeoutRate     float64 `yaml:"timeout_rate"`
		TimeoutAfterMs  int     `yaml:"timeout_after_ms"`
	} `yaml:"errors"`
	Models struct {
		Available []string `yaml:"available"`
	} `yaml:"models"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Seed uint64 `yaml:"seed"`
}

// WriteSample writes a commented default config to path. Refuses to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	var s sampleFile
	s.Server.Host = "0.0.0.0"
	s.Server.Port = 8080
	s.Server.Mode = "release"
	s.Response.Generator = "lorem"
	s.Response.TargetTokens = 100
	s.Errors.TimeoutAfterMs = 30000
	s.Models.Available = models.DefaultAvailable
	s.Log.Level = "info"
	s.Log.Format = "json"

	body, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshal sample config: %w", err)
	}

	return os.WriteFile(path, append([]byte(sampleHeader), body...), 0o644)
}
