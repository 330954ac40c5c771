// Package policy holds the deployment's supported UFTP settings and reference data.
package policy

import (
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/morezero/uftp-compliance/pkg/history"
	"github.com/morezero/uftp-compliance/pkg/isptime"
	"github.com/morezero/uftp-compliance/pkg/message"
)

// SettingsDocument is the YAML form of the supported settings.
type SettingsDocument struct {
	ISPDurations       []string `yaml:"ispDurations"`
	TimeZones          []string `yaml:"timeZones"`
	Currencies         []string `yaml:"currencies"`
	Versions           string   `yaml:"versions"`
	DisabledValidators []string `yaml:"disabledValidators"`
}

// Document is the root of a policy file.
type Document struct {
	Name          string                `yaml:"name"`
	Settings      SettingsDocument      `yaml:"settings"`
	ReferenceData history.ReferenceData `yaml:"referenceData"`
}

// Policy is a compiled Document. It is immutable once built and safe for concurrent use.
type Policy struct {
	name         string
	ispDurations map[time.Duration]bool
	timeZones    map[string]bool
	currencies   map[string]bool
	versions     *semver.Constraints
	versionsRaw  string
	disabled     []string
	reference    history.ReferenceData
}

// Compile checks a Document and builds the lookup structures.
func Compile(doc Document) (*Policy, error) {
	p := &Policy{
		name:         doc.Name,
		ispDurations: make(map[time.Duration]bool, len(doc.Settings.ISPDurations)),
		timeZones:    make(map[string]bool, len(doc.Settings.TimeZones)),
		currencies:   make(map[string]bool, len(doc.Settings.Currencies)),
		versionsRaw:  doc.Settings.Versions,
		disabled:     append([]string(nil), doc.Settings.DisabledValidators...),
		reference:    doc.ReferenceData,
	}

	for _, raw := range doc.Settings.ISPDurations {
		d, err := message.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%s - ispDurations: %w", logPrefix, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("%s - ispDurations: %q is not positive", logPrefix, raw)
		}
		p.ispDurations[d.Std()] = true
	}

	for _, tz := range doc.Settings.TimeZones {
		if _, err := isptime.Location(tz); err != nil {
			return nil, fmt.Errorf("%s - timeZones: %w", logPrefix, err)
		}
		p.timeZones[tz] = true
	}

	for _, c := range doc.Settings.Currencies {
		p.currencies[c] = true
	}

	if doc.Settings.Versions != "" {
		constraints, err := semver.NewConstraint(doc.Settings.Versions)
		if err != nil {
			return nil, fmt.Errorf("%s - versions %q: %w", logPrefix, doc.Settings.Versions, err)
		}
		p.versions = constraints
	}

	for i, e := range doc.ReferenceData.Participants {
		if e.Domain == "" {
			return nil, fmt.Errorf("%s - participants[%d]: empty domain", logPrefix, i)
		}
		if _, err := message.ParseRole(string(e.Role)); err != nil {
			return nil, fmt.Errorf("%s - participants[%d]: %w", logPrefix, i, err)
		}
	}

	return p, nil
}

// Name returns the policy name, used in logs.
func (p *Policy) Name() string {
	return p.name
}

// IsSupportedIspDuration reports whether d is an allowed ISP duration.
func (p *Policy) IsSupportedIspDuration(d message.Duration) bool {
	return p.ispDurations[d.Std()]
}

// IsSupportedTimeZone reports whether tz is an allowed IANA zone.
func (p *Policy) IsSupportedTimeZone(tz string) bool {
	return p.timeZones[tz]
}

// IsSupportedCurrency reports whether an ISO 4217 currency code is accepted.
func (p *Policy) IsSupportedCurrency(code string) bool {
	return p.currencies[code]
}

// IsSupportedVersion reports whether a UFTP version attribute satisfies the configured range.
// Without a range every well-formed version is accepted.
func (p *Policy) IsSupportedVersion(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	if p.versions == nil {
		return true
	}
	return p.versions.Check(v)
}

// Versions returns the configured version constraint as written.
func (p *Policy) Versions() string {
	return p.versionsRaw
}

// DisabledValidators returns the names of validators removed from the catalog.
func (p *Policy) DisabledValidators() []string {
	return append([]string(nil), p.disabled...)
}

// ReferenceData returns the identifier data to seed a History Oracle with.
func (p *Policy) ReferenceData() history.ReferenceData {
	return p.reference
}

// ISPDurations returns the supported durations in ascending order.
func (p *Policy) ISPDurations() []message.Duration {
	out := make([]message.Duration, 0, len(p.ispDurations))
	for d := range p.ispDurations {
		out = append(out, message.Duration(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
