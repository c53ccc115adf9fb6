package passes

import (
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/gardenerhq/gardener/internal/transform"
)

const (
	unknownPassMessageConstant             = "unknown cleanup pass"
	unknownPassErrorTemplateConstant       = "%w: %q"
	decodePassOptionsErrorTemplateConstant = "decode options for pass %s: %w"
)

// ErrUnknownPassName reports a pipeline configuration naming an unshipped pass.
var ErrUnknownPassName = errors.New(unknownPassMessageConstant)

type trailingWhitespaceOptions struct {
	Suffixes []string `mapstructure:"suffixes"`
}

type managedGitignoreOptions struct {
	Entries []string `mapstructure:"entries"`
}

type rewriteImportsOptions struct {
	Rules []ImportRewriteRule `mapstructure:"rules"`
}

// BuildPipeline turns a parsed pipeline configuration into runnable passes.
func BuildPipeline(pipelineConfiguration transform.PipelineConfiguration) ([]transform.Pass, error) {
	builtPasses := make([]transform.Pass, 0, len(pipelineConfiguration.Passes))
	for _, passConfiguration := range pipelineConfiguration.Passes {
		switch passConfiguration.Name {
		case trailingWhitespacePassNameConstant:
			var passOptions trailingWhitespaceOptions
			if decodeError := decodePassOptions(passConfiguration, &passOptions); decodeError != nil {
				return nil, decodeError
			}
			builtPasses = append(builtPasses, NewTrailingWhitespacePass(passOptions.Suffixes))
		case managedGitignorePassNameConstant:
			var passOptions managedGitignoreOptions
			if decodeError := decodePassOptions(passConfiguration, &passOptions); decodeError != nil {
				return nil, decodeError
			}
			builtPasses = append(builtPasses, NewManagedGitignorePass(passOptions.Entries))
		case rewriteImportsPassNameConstant:
			var passOptions rewriteImportsOptions
			if decodeError := decodePassOptions(passConfiguration, &passOptions); decodeError != nil {
				return nil, decodeError
			}
			builtPasses = append(builtPasses, NewRewriteImportsPass(passOptions.Rules))
		default:
			return nil, fmt.Errorf(unknownPassErrorTemplateConstant, ErrUnknownPassName, passConfiguration.Name)
		}
	}
	return builtPasses, nil
}

// DefaultPipeline returns the passes used when no pipeline file is configured.
// Import rewriting is excluded because it has no universal default rules.
func DefaultPipeline() []transform.Pass {
	return []transform.Pass{
		NewTrailingWhitespacePass(nil),
		NewManagedGitignorePass(nil),
	}
}

func decodePassOptions(passConfiguration transform.PassConfiguration, passOptions any) error {
	if len(passConfiguration.With) == 0 {
		return nil
	}
	decodeError := mapstructure.Decode(passConfiguration.With, passOptions)
	if decodeError != nil {
		return fmt.Errorf(decodePassOptionsErrorTemplateConstant, passConfiguration.Name, decodeError)
	}
	return nil
}
