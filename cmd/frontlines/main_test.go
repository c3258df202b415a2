package main

import (
	"errors"
	"testing"

	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/pkg/config"
)

func TestSelectPeriods(t *testing.T) {
	cfg := &config.Config{Frontlines: config.FrontlinesConfig{
		OutputPeriods: []config.PeriodConfig{{Label: "1915"}, {Label: "somme", Date: "1916-07-01"}},
	}}

	got, err := selectPeriods(cfg, "all")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1].Label != "somme" {
		t.Errorf("expected the configured periods, got %+v", got)
	}

	got, err = selectPeriods(cfg, "1917, 1918-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Label != "1917" || got[1].Label != "1918-03" {
		t.Errorf("expected the flag periods, got %+v", got)
	}

	if _, err := selectPeriods(cfg, "1917,soon"); !errors.Is(err, domain.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := selectPeriods(&config.Config{}, "all"); !errors.Is(err, domain.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod for an empty selection, got %v", err)
	}
}

func TestWritersFor(t *testing.T) {
	writers := writersFor([]string{"cfs3", "geojson"})
	if len(writers) != 2 {
		t.Fatalf("expected 2 writers, got %d", len(writers))
	}
	if writers[0].Format() != "cfs3" || writers[1].Format() != "geojson" {
		t.Errorf("unexpected formats %s, %s", writers[0].Format(), writers[1].Format())
	}
}
