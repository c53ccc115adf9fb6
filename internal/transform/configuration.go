package transform

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	pipelinePathMissingMessageConstant     = "pipeline configuration path is required"
	readPipelineFileErrorTemplateConstant  = "read pipeline configuration %s: %w"
	parsePipelineFileErrorTemplateConstant = "parse pipeline configuration %s: %w"
	pipelinePassNameMissingMessageConstant = "pipeline configuration contains a pass without a name"
)

// ErrPipelinePathMissing reports a blank pipeline configuration path.
var ErrPipelinePathMissing = errors.New(pipelinePathMissingMessageConstant)

// ErrPipelinePassNameMissing reports a pass entry without a name.
var ErrPipelinePassNameMissing = errors.New(pipelinePassNameMissingMessageConstant)

// PassConfiguration declares one pipeline pass by name with its options.
type PassConfiguration struct {
	Name string         `yaml:"name"`
	With map[string]any `yaml:"with"`
}

// PipelineConfiguration is the YAML document describing the cleanup pipeline.
type PipelineConfiguration struct {
	Passes []PassConfiguration `yaml:"passes"`
}

// LoadPipelineConfiguration reads and parses the pipeline YAML document.
func LoadPipelineConfiguration(configurationFilePath string) (PipelineConfiguration, error) {
	trimmedPath := strings.TrimSpace(configurationFilePath)
	if len(trimmedPath) == 0 {
		return PipelineConfiguration{}, ErrPipelinePathMissing
	}

	configurationContents, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return PipelineConfiguration{}, fmt.Errorf(readPipelineFileErrorTemplateConstant, trimmedPath, readError)
	}

	var pipelineConfiguration PipelineConfiguration
	parseError := yaml.Unmarshal(configurationContents, &pipelineConfiguration)
	if parseError != nil {
		return PipelineConfiguration{}, fmt.Errorf(parsePipelineFileErrorTemplateConstant, trimmedPath, parseError)
	}

	for _, passConfiguration := range pipelineConfiguration.Passes {
		if len(strings.TrimSpace(passConfiguration.Name)) == 0 {
			return PipelineConfiguration{}, ErrPipelinePassNameMissing
		}
	}
	return pipelineConfiguration, nil
}
