// Package batch wires discovery, checkout, analysis, transformation, and
// publishing into the single gardener run that sweeps every repository of an
// organization.
package batch
