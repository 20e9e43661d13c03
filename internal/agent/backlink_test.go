package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kitbuilder587/morvo/internal/domain"
	"github.com/kitbuilder587/morvo/internal/repository/memory"
	"github.com/kitbuilder587/morvo/internal/seranking"
	smock "github.com/kitbuilder587/morvo/internal/seranking/mock"
)

type failingHistory struct{}

func (failingHistory) Create(context.Context, *domain.BacklinkAnalysis) error {
	return errors.New("disk full")
}

func TestBacklink_NoDomainGivesGeneralGuidance(t *testing.T) {
	client := smock.New()
	a := NewBacklinkAdapter(client, BacklinkConfig{}, nil)

	res := a.Invoke(context.Background(), Input{Message: "how do I rank higher?"})

	if !res.Success {
		t.Fatalf("Invoke() failed: %v", res.Err)
	}
	if len(client.Domains()) != 0 {
		t.Error("vendor should not be called without a domain")
	}
	if len(res.Payload.Recommendations) != len(regionalSEOBasics) {
		t.Errorf("Recommendations = %v", res.Payload.Recommendations)
	}
	if res.Payload.Recommendations[0] != "Focus on Arabic keyword optimization" {
		t.Errorf("first recommendation = %q", res.Payload.Recommendations[0])
	}
}

func TestBacklink_AnalyzesDomain(t *testing.T) {
	client := smock.New()
	history := memory.NewBacklinkRepo()
	obs := newRecordingObserver()
	a := NewBacklinkAdapter(client, BacklinkConfig{History: history, Observer: obs}, nil)

	res := a.Invoke(context.Background(), Input{URL: "https://www.example.sa/shop", UserID: "u1"})
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !res.Success {
		t.Fatalf("Invoke() failed: %v", res.Err)
	}
	if got := client.Domains(); len(got) != 1 || got[0] != "example.sa" {
		t.Errorf("Domains() = %v, want [example.sa]", got)
	}

	data, ok := res.Payload.Data.(BacklinkData)
	if !ok {
		t.Fatalf("Data = %T", res.Payload.Data)
	}
	// 18/60*4 + 6/60*2 + 1/2*2
	if data.Regional.RelevanceScore != 2.4 {
		t.Errorf("RelevanceScore = %v, want 2.4", data.Regional.RelevanceScore)
	}
	if data.Regional.SaudiDomains != 18 || data.Regional.GCCDomains != 6 {
		t.Errorf("Regional = %+v", data.Regional)
	}
	if !containsPrefix(res.Payload.Insights, "Regional SEO relevance score: 2.4/10") {
		t.Errorf("Insights = %v", res.Payload.Insights)
	}
	if !containsPrefix(res.Payload.Recommendations, "Earn backlinks from Saudi (.sa) publishers") {
		t.Errorf("Recommendations = %v", res.Payload.Recommendations)
	}
	if len(obs.scores) != 1 || obs.scores[0] != 2.4 {
		t.Errorf("observed scores = %v", obs.scores)
	}

	saved, err := history.ListByDomain(context.Background(), "example.sa", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 {
		t.Fatalf("history = %d entries, want 1", len(saved))
	}
	if saved[0].UserID != "u1" || saved[0].ReferringDomains != 60 || saved[0].ID == "" {
		t.Errorf("history entry = %+v", saved[0])
	}
	if !client.Closed() {
		t.Error("analyzer was not closed")
	}
}

func TestBacklink_HistoryFailureDoesNotFailResult(t *testing.T) {
	a := NewBacklinkAdapter(smock.New(), BacklinkConfig{History: failingHistory{}}, nil)

	res := a.Invoke(context.Background(), Input{Domain: "example.sa"})
	_ = a.Close()

	if !res.Success {
		t.Errorf("Invoke() failed: %v", res.Err)
	}
}

func TestBacklink_VendorErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"quota", seranking.ErrRateLimit, FailureQuota},
		{"no data", seranking.ErrNoData, FailureUpstream},
		{"invalid", seranking.ErrInvalidRequest, FailureInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := memory.NewBacklinkRepo()
			a := NewBacklinkAdapter(smock.New().WithError(tt.err), BacklinkConfig{History: history}, nil)

			res := a.Invoke(context.Background(), Input{Domain: "example.sa"})
			_ = a.Close()

			if res.Success || res.Err.Kind != tt.want {
				t.Errorf("Invoke() = %+v, want %v", res, tt.want)
			}
			if saved, _ := history.ListByDomain(context.Background(), "example.sa", 0); len(saved) != 0 {
				t.Errorf("failed analysis recorded in history: %v", saved)
			}
		})
	}
}

func TestBacklink_AnalyzeOnDemand(t *testing.T) {
	client := smock.New()
	history := memory.NewBacklinkRepo()
	a := NewBacklinkAdapter(client, BacklinkConfig{History: history}, nil)
	ctx := context.Background()

	report, err := a.Analyze(ctx, "https://www.Example.sa/about", "u9")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Analysis.Domain != "example.sa" || report.Summary.Target != "example.sa" {
		t.Errorf("report = %+v", report)
	}
	if report.Regional.RelevanceScore != 2.4 || report.Analysis.RelevanceScore != 2.4 {
		t.Errorf("RelevanceScore = %v / %v, want 2.4", report.Regional.RelevanceScore, report.Analysis.RelevanceScore)
	}

	// запись синхронная: видна сразу, без Close
	saved, _ := history.ListByDomain(ctx, "example.sa", 0)
	if len(saved) != 1 || saved[0].UserID != "u9" || saved[0].ID != report.Analysis.ID {
		t.Errorf("history = %+v", saved)
	}

	if _, err := a.Analyze(ctx, "localhost", ""); !errors.Is(err, domain.ErrInvalidDomain) {
		t.Errorf("Analyze(localhost) error = %v", err)
	}
}

func TestBacklink_AnalyzeErrors(t *testing.T) {
	ctx := context.Background()

	a := NewBacklinkAdapter(smock.New().WithError(seranking.ErrRateLimit), BacklinkConfig{History: memory.NewBacklinkRepo()}, nil)
	_, err := a.Analyze(ctx, "example.sa", "")
	var f *Failure
	if !errors.As(err, &f) || f.Kind != FailureQuota {
		t.Errorf("vendor error = %v, want quota failure", err)
	}

	a = NewBacklinkAdapter(smock.New(), BacklinkConfig{History: failingHistory{}}, nil)
	if _, err := a.Analyze(ctx, "example.sa", ""); err == nil || errors.As(err, &f) {
		t.Errorf("history error = %v, want plain storage error", err)
	}
}

func TestBacklink_Timeout(t *testing.T) {
	a := NewBacklinkAdapter(smock.New().WithDelay(time.Second), BacklinkConfig{}, nil)
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := a.Invoke(ctx, Input{Domain: "example.sa"})

	if res.Success || res.Err.Kind != FailureTimeout {
		t.Errorf("Invoke() = %+v, want timeout", res)
	}
}

func TestBacklinkPayload_StrongProfile(t *testing.T) {
	s := &seranking.Summary{
		Backlinks:  100,
		RefDomains: 10,
		TopCountries: []seranking.CountryStat{
			{Country: "sa", ReferringDomains: 10},
		},
		TopAnchors: []seranking.AnchorStat{{Anchor: "متجر", Backlinks: 5}},
		TopReferringDomains: []seranking.RefDomainStat{
			{Domain: "moc.gov.sa", Backlinks: 3},
			{Domain: "ksu.edu.sa", Backlinks: 2},
		},
	}
	rc := seranking.AnalyzeRegion(*s)

	p := backlinkPayload("example.sa", s, rc)

	if rc.RelevanceScore != 7.5 {
		t.Errorf("RelevanceScore = %v, want 7.5", rc.RelevanceScore)
	}
	for _, r := range p.Recommendations {
		if strings.Contains(r, ".edu.sa") || strings.Contains(r, "Vision 2030") || strings.Contains(r, "Arabic anchor") {
			t.Errorf("unexpected recommendation for a strong profile: %q", r)
		}
	}
	if !containsPrefix(p.Insights, "3 backlinks from Saudi government") {
		t.Errorf("Insights = %v", p.Insights)
	}
}
