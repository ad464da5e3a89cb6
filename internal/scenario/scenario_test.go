package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashvale/tradewinds/internal/goods"
)

func TestDefaultScenarioLoads(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if s.LegalTender != "crown" {
		t.Fatalf("legal tender = %q, want crown", s.LegalTender)
	}
	if len(s.Locations) != 2 {
		t.Fatalf("locations = %d, want 2", len(s.Locations))
	}

	reg, err := s.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	fish, ok := reg.Get("fish")
	if !ok {
		t.Fatal("fish missing from catalogue")
	}
	if fish.DecayRate != goods.Unit/10 {
		t.Fatalf("fish decay = %d, want %d", fish.DecayRate, goods.Unit/10)
	}
	if fish.Transport != goods.TransportSea {
		t.Fatal("fish should move by sea")
	}

	needs, err := s.BuildNeeds(reg)
	if err != nil {
		t.Fatalf("BuildNeeds: %v", err)
	}
	sustenance, ok := needs["sustenance"]
	if !ok {
		t.Fatal("sustenance need missing")
	}
	if len(sustenance.Consumed) != 2 {
		t.Fatalf("sustenance goods = %d, want 2", len(sustenance.Consumed))
	}
	if sustenance.MinAmountSquare != 4*goods.Unit {
		t.Fatalf("sustenance target = %d, want %d", sustenance.MinAmountSquare, 4*goods.Unit)
	}
}

func TestUnitsParseDecimals(t *testing.T) {
	s := loadString(t, strings.Replace(minimalYAML, "credit_limit: 25.0", "credit_limit: 2.345678", 1))
	if got := s.CreditLimit.Amount(); got != 2_345_678 {
		t.Fatalf("credit limit = %d micro-units, want 2345678", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "tidepool" {
		t.Fatalf("name = %q", s.Name)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	bad := strings.Replace(minimalYAML, "credit_limit:", "credit_limt:", 1)
	if _, err := parse([]byte(bad)); err == nil {
		t.Fatal("typoed key accepted")
	}
}

func TestValidateCrossReferences(t *testing.T) {
	tests := []struct {
		name    string
		mangle  func(string) string
		wantErr string
	}{
		{
			"tender not a good",
			replacer("legal_tender: crown", "legal_tender: doubloon"),
			"legal tender",
		},
		{
			"population with unknown need",
			replacer("need: sustenance", "need: opulence"),
			"unknown need",
		},
		{
			"producer of unknown good",
			replacer("- good: fish", "- good: unobtainium"),
			"unknown good",
		},
		{
			"negative credit limit",
			replacer("credit_limit: 25.0", "credit_limit: -1.0"),
			"credit limit",
		},
		{
			"duplicate location",
			func(s string) string { return s + dupLocation },
			"defined twice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.mangle(minimalYAML)))
			if err == nil {
				t.Fatal("invalid scenario accepted")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func loadString(t *testing.T, data string) *Scenario {
	t.Helper()
	s, err := parse([]byte(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return s
}

func replacer(old, new string) func(string) string {
	return func(s string) string { return strings.Replace(s, old, new, 1) }
}

const minimalYAML = `
name: tidepool
legal_tender: crown
credit_limit: 25.0
goods:
  - name: crown
    bulk: 0.01
    weight: 0.01
    transport: land
  - name: fish
    bulk: 1.0
    weight: 1.0
    decay_rate: 0.1
    transport: sea
needs:
  - name: sustenance
    offset: 1.0
    target: 4.0
    goods:
      - name: fish
        crossing: 3.0
locations:
  - name: tidepool
    coastal: true
    money: 10.0
    populations:
      - name: fishers
        size: 5
        money: 2.0
        need: sustenance
        produces:
          - good: fish
            output: 0.5
`

const dupLocation = `
  - name: tidepool
    money: 1.0
`
