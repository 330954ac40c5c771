package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const logPrefix = "policy:loader"

// EnvPolicyFile names the environment variable consulted after explicit paths.
const EnvPolicyFile = "UFTP_POLICY_FILE"

// Load loads a policy from the first readable file. It tries the paths passed in, then
// UFTP_POLICY_FILE, then config/policy.yaml and policy.yaml. When none exists the built-in
// default is returned. A file that exists but does not parse is an error.
func Load(paths ...string) (*Policy, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv(EnvPolicyFile); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/policy.yaml", "policy.yaml")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Warn(fmt.Sprintf("%s - Cannot read policy file %s: %v", logPrefix, p, err))
			}
			continue
		}

		pol, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s - policy file %s: %w", logPrefix, p, err)
		}

		slog.Info(fmt.Sprintf("%s - Loaded policy %q from %s", logPrefix, pol.Name(), p))
		return pol, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default policy", logPrefix))
	return Compile(DefaultDocument())
}

// Parse decodes and compiles a YAML policy document. Unknown keys are rejected.
func Parse(data []byte) (*Policy, error) {
	var doc Document
	if err := decodeStrict(data, &doc); err != nil {
		return nil, err
	}
	return Compile(doc)
}

// ParseDocument decodes a YAML policy document without compiling it.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	err := decodeStrict(data, &doc)
	return doc, err
}

func decodeStrict(data []byte, doc *Document) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		return fmt.Errorf("%s - failed to decode policy: %w", logPrefix, err)
	}
	return nil
}

// DefaultDocument returns the built-in policy: 15 minute ISPs in Europe/Amsterdam, EUR, UFTP 3.x,
// and no reference data.
func DefaultDocument() Document {
	return Document{
		Name: "uftp-default",
		Settings: SettingsDocument{
			ISPDurations: []string{"PT15M"},
			TimeZones:    []string{"Europe/Amsterdam"},
			Currencies:   []string{"EUR"},
			Versions:     ">=3.0.0 <4.0.0",
		},
	}
}
