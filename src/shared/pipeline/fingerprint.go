package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// fingerprintInput is what actually gets hashed. json.Marshal sorts map
// keys, so identical options always serialize identically regardless of
// how the map was built.
type fingerprintInput struct {
	Stage    Stage          `json:"stage"`
	Options  map[string]any `json:"options"`
	Upstream []string       `json:"upstream"`
}

// Fingerprint derives the cache key for one stage invocation from the
// stage kind, its own options, and the fingerprints of its upstream
// artifacts in declared order. Any change upstream ripples down.
func Fingerprint(stage Stage, stageOptions map[string]any, upstreamFingerprints []string) (string, error) {
	if upstreamFingerprints == nil {
		upstreamFingerprints = []string{}
	}

	contents, err := json.Marshal(fingerprintInput{
		Stage:    stage,
		Options:  stageOptions,
		Upstream: upstreamFingerprints,
	})
	if err != nil {
		return "", errors.Wrap(err, "Failed to serialize the fingerprint input")
	}

	digest := sha256.Sum256(contents)
	return hex.EncodeToString(digest[:]), nil
}

// FingerprintAll computes fingerprints for the whole graph bottom up.
func FingerprintAll(options Options) (map[Stage]string, error) {
	fingerprints := map[Stage]string{}

	for _, stage := range runOrder {
		stageOptions, err := options.ForStage(stage)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to get the stage options")
		}

		upstreamFingerprints := []string{}
		for _, upstream := range stageUpstreams[stage] {
			upstreamFingerprints = append(upstreamFingerprints, fingerprints[upstream])
		}

		fingerprint, err := Fingerprint(stage, stageOptions, upstreamFingerprints)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to compute the stage fingerprint")
		}

		fingerprints[stage] = fingerprint
	}

	return fingerprints, nil
}
