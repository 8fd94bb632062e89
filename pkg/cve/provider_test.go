package cve

import (
	"context"
	"testing"
)

type countingLogger struct {
	infos, warns int
}

func (c *countingLogger) InfoObj(string, string, interface{}) { c.infos++ }
func (c *countingLogger) WarnObj(string, string, interface{}) { c.warns++ }

func TestStaticProviderReturnsFixedRecords(t *testing.T) {
	p := StaticProvider{}
	records := p.RecentCVEs(context.Background())
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Severity != "HIGH" || records[1].Severity != "CRITICAL" {
		t.Fatalf("unexpected severities %#v", records)
	}
	if p.Notice() != DemoNotice {
		t.Fatalf("expected demo notice, got %q", p.Notice())
	}
}

func TestStaticProviderReturnsIndependentSlices(t *testing.T) {
	p := StaticProvider{}
	first := p.RecentCVEs(context.Background())
	first[0].ID = "mutated"

	second := p.RecentCVEs(context.Background())
	if second[0].ID != "CVE-2024-XXXXX" {
		t.Fatalf("records leaked between calls: %#v", second[0])
	}
}

func TestNewProviderReportsKeyState(t *testing.T) {
	log := &countingLogger{}
	if _, ok := NewProvider("", log).(StaticProvider); !ok {
		t.Fatalf("expected static provider")
	}
	if log.infos != 1 || log.warns != 0 {
		t.Fatalf("expected one info without key, got %+v", log)
	}

	log = &countingLogger{}
	NewProvider("secret", log)
	if log.warns != 1 {
		t.Fatalf("expected one warning with key, got %+v", log)
	}
}
