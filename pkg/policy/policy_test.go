package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/morezero/uftp-compliance/pkg/history"
	"github.com/morezero/uftp-compliance/pkg/message"
)

const samplePolicy = `
name: test
settings:
  ispDurations: [PT15M, PT5M]
  timeZones: [Europe/Amsterdam, UTC]
  currencies: [EUR]
  versions: ">=3.0.0 <4.0.0"
  disabledValidators: [Currency]
referenceData:
  participants:
    - {domain: dso.example.com, role: DSO, handled: true}
    - {domain: agr.example.com, role: AGR}
  congestionPoints: [ean.1]
  contractIds: [contract-1]
  baselineReferences: [baseline-1]
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(samplePolicy))
	if err != nil {
		t.Fatalf("policy:policy_test - Parse: %v", err)
	}

	if p.Name() != "test" {
		t.Errorf("policy:policy_test - Name = %q, want test", p.Name())
	}
	if !p.IsSupportedIspDuration(message.Minutes(15)) {
		t.Error("policy:policy_test - PT15M should be supported")
	}
	if p.IsSupportedIspDuration(message.Minutes(30)) {
		t.Error("policy:policy_test - PT30M should not be supported")
	}
	if got := p.ISPDurations(); len(got) != 2 || got[0] != message.Minutes(5) {
		t.Errorf("policy:policy_test - ISPDurations = %v, want [PT5M PT15M]", got)
	}
	if !p.IsSupportedTimeZone("UTC") || p.IsSupportedTimeZone("America/New_York") {
		t.Error("policy:policy_test - time zone set mismatch")
	}
	if !p.IsSupportedCurrency("EUR") || p.IsSupportedCurrency("USD") {
		t.Error("policy:policy_test - currency set mismatch")
	}
	if got := p.DisabledValidators(); len(got) != 1 || got[0] != "Currency" {
		t.Errorf("policy:policy_test - DisabledValidators = %v, want [Currency]", got)
	}
	ref := p.ReferenceData()
	if len(ref.Participants) != 2 || !ref.Participants[0].Handled || ref.Participants[1].Role != message.RoleAGR {
		t.Errorf("policy:policy_test - unexpected participants %+v", ref.Participants)
	}
	if len(ref.CongestionPoints) != 1 || ref.ContractIDs[0] != "contract-1" || ref.BaselineReferences[0] != "baseline-1" {
		t.Errorf("policy:policy_test - unexpected reference data %+v", ref)
	}
}

func TestIsSupportedVersion(t *testing.T) {
	p, err := Parse([]byte(samplePolicy))
	if err != nil {
		t.Fatalf("policy:policy_test - Parse: %v", err)
	}

	tests := []struct {
		version string
		want    bool
	}{
		{"3.0.0", true},
		{"3.1.2", true},
		{"2.9.0", false},
		{"4.0.0", false},
		{"not-a-version", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.IsSupportedVersion(tt.version); got != tt.want {
			t.Errorf("policy:policy_test - IsSupportedVersion(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestIsSupportedVersion_NoConstraint(t *testing.T) {
	p, err := Compile(Document{})
	if err != nil {
		t.Fatalf("policy:policy_test - Compile: %v", err)
	}
	if !p.IsSupportedVersion("1.0.0") {
		t.Error("policy:policy_test - without a range any version should pass")
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"bad duration", Document{Settings: SettingsDocument{ISPDurations: []string{"15 minutes"}}}},
		{"zero duration", Document{Settings: SettingsDocument{ISPDurations: []string{"PT0M"}}}},
		{"bad zone", Document{Settings: SettingsDocument{TimeZones: []string{"Mars/Olympus"}}}},
		{"bad range", Document{Settings: SettingsDocument{Versions: "abc"}}},
		{"bad role", Document{ReferenceData: referenceWithRole("XYZ")}},
	}
	for _, tt := range tests {
		if _, err := Compile(tt.doc); err == nil {
			t.Errorf("policy:policy_test - %s: expected error", tt.name)
		}
	}
}

func TestParse_UnknownField(t *testing.T) {
	if _, err := Parse([]byte("settings:\n  ispDuration: [PT15M]\n")); err == nil {
		t.Error("policy:policy_test - expected error for misspelled key")
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Setenv(EnvPolicyFile, "")
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(samplePolicy), 0o600); err != nil {
		t.Fatalf("policy:policy_test - write: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("policy:policy_test - Load: %v", err)
	}
	if p.Name() != "test" {
		t.Errorf("policy:policy_test - Load picked %q, want test", p.Name())
	}
}

func TestLoad_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	if err := os.WriteFile(path, []byte(samplePolicy), 0o600); err != nil {
		t.Fatalf("policy:policy_test - write: %v", err)
	}
	t.Setenv(EnvPolicyFile, path)

	p, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("policy:policy_test - Load: %v", err)
	}
	if p.Name() != "test" {
		t.Errorf("policy:policy_test - Load picked %q, want test", p.Name())
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Setenv(EnvPolicyFile, "")
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("settings: [oops"), 0o600); err != nil {
		t.Fatalf("policy:policy_test - write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("policy:policy_test - expected error for malformed policy")
	}
}

func TestDefaultDocument(t *testing.T) {
	p, err := Compile(DefaultDocument())
	if err != nil {
		t.Fatalf("policy:policy_test - Compile(DefaultDocument): %v", err)
	}
	if !p.IsSupportedIspDuration(message.Minutes(15)) {
		t.Error("policy:policy_test - default should support PT15M")
	}
	if !p.IsSupportedTimeZone("Europe/Amsterdam") {
		t.Error("policy:policy_test - default should support Europe/Amsterdam")
	}
	if !p.IsSupportedVersion("3.0.0") {
		t.Error("policy:policy_test - default should support 3.0.0")
	}
}

func referenceWithRole(role string) history.ReferenceData {
	return history.ReferenceData{
		Participants: []history.ParticipantEntry{{Domain: "x.example.com", Role: message.Role(role)}},
	}
}
