package report

import (
	"strings"
	"testing"
	"time"

	"github.com/techjoec/driftbuster/internal/detect"
	"github.com/techjoec/driftbuster/internal/diff"
	"github.com/techjoec/driftbuster/internal/hunt"
)

type fakeApprovalStore struct {
	approved map[string]hunt.TokenApproval
}

func (f fakeApprovalStore) Get(tokenName string) (hunt.TokenApproval, bool, error) {
	a, ok := f.approved[tokenName]
	return a, ok, nil
}
func (f fakeApprovalStore) Put(approval hunt.TokenApproval) error { return nil }
func (f fakeApprovalStore) List() ([]hunt.TokenApproval, error)   { return nil, nil }

func TestIterDetectionPayloadsFunc_SplitsApprovedAndPendingTokens(t *testing.T) {
	matches := []detect.DetectionMatch{
		{Path: "/etc/app/appsettings.json", FormatID: "json", Confidence: 0.9, Reasons: []string{"extension match"}},
	}
	huntCtx := &HuntContext{
		HitsByPath: map[string][]hunt.Hit{
			"/etc/app/appsettings.json": {
				{TokenName: "db_password"},
				{TokenName: "api_key"},
			},
		},
		Approvals: fakeApprovalStore{approved: map[string]hunt.TokenApproval{
			"db_password": {TokenName: "db_password"},
		}},
	}

	var got []Payload
	err := IterDetectionPayloadsFunc(matches, huntCtx, nil, func(p Payload) bool {
		got = append(got, p)
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one payload, got %d", len(got))
	}
	p := got[0]
	if len(p.ApprovedTokens) != 1 || p.ApprovedTokens[0] != "db_password" {
		t.Fatalf("expected db_password approved, got %v", p.ApprovedTokens)
	}
	if len(p.PendingReviews) != 1 || p.PendingReviews[0] != "api_key" {
		t.Fatalf("expected api_key pending, got %v", p.PendingReviews)
	}
}

func TestIterDetectionPayloadsFunc_NoHuntContextLeavesTokenFieldsEmpty(t *testing.T) {
	matches := []detect.DetectionMatch{{Path: "/a", FormatID: "xml", Confidence: 0.5}}
	var got Payload
	err := IterDetectionPayloadsFunc(matches, nil, nil, func(p Payload) bool {
		got = p
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.ApprovedTokens) != 0 || len(got.PendingReviews) != 0 {
		t.Fatalf("expected no token fields without a hunt context, got %+v", got)
	}
}

func TestIterDetectionPayloadsFunc_UnknownMatchReportsBinaryPlugin(t *testing.T) {
	matches := []detect.DetectionMatch{{Path: "/a.bin", FormatID: detect.FormatUnknown, Confidence: 0}}
	var got Payload
	_ = IterDetectionPayloadsFunc(matches, nil, nil, func(p Payload) bool {
		got = p
		return true
	})
	if got.Plugin != detect.BinaryFormatID {
		t.Fatalf("expected binary-dat plugin name, got %q", got.Plugin)
	}
}

func TestIterDetectionPayloadsFunc_StopsEarlyWhenYieldReturnsFalse(t *testing.T) {
	matches := []detect.DetectionMatch{
		{Path: "/a", FormatID: "json"},
		{Path: "/b", FormatID: "xml"},
	}
	count := 0
	_ = IterDetectionPayloadsFunc(matches, nil, nil, func(p Payload) bool {
		count++
		return false
	})
	if count != 1 {
		t.Fatalf("expected exactly one payload before stopping, got %d", count)
	}
}

func TestRenderHTMLReport_EscapesUntrustedContentAndEmbedsDiffs(t *testing.T) {
	payloads := []Payload{
		{Plugin: "json", Format: "json", Confidence: 0.9, Reasons: []string{"<script>alert(1)</script>"}},
	}
	diffs := map[string]diff.Result{
		"appsettings.json": {DiffText: "-prod-db-01.internal\n+prod-db-02.internal\n"},
	}
	html, err := RenderHTMLReport(payloads, diffs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Fatalf("expected reason text to be escaped, got:\n%s", html)
	}
	if !strings.Contains(html, "appsettings.json") {
		t.Fatalf("expected diff section for appsettings.json, got:\n%s", html)
	}
	if strings.Contains(html, "<link ") || strings.Contains(html, "<script src") {
		t.Fatalf("expected a self-contained report with no external assets")
	}
}

func TestRenderHTMLReport_SweepsMaskTokensFromDiffText(t *testing.T) {
	diffs := map[string]diff.Result{
		"cfg": {DiffText: "contains raw-secret-literal inline"},
	}
	html, err := RenderHTMLReport(nil, diffs, []string{"raw-secret-literal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(html, "raw-secret-literal inline") {
		t.Fatalf("expected the mask token literal to be swept, got:\n%s", html)
	}
	if !strings.Contains(html, "[[TOKEN:raw-secret-literal]]") {
		t.Fatalf("expected the masked placeholder form, got:\n%s", html)
	}
}

func TestExportConfigurationInventory_BuildsOneComponentPerPayload(t *testing.T) {
	payloads := []Payload{
		{Plugin: "json", Format: "json", Confidence: 0.87, PendingReviews: []string{"api_key"}},
		{Plugin: "xml", Format: "xml", Confidence: 0.5, ApprovedTokens: []string{"db_password"}},
	}
	bom := ExportConfigurationInventory(payloads, "1.0.0")
	if bom.Components == nil || len(*bom.Components) != 2 {
		t.Fatalf("expected two components, got %+v", bom.Components)
	}
	if bom.SerialNumber == "" {
		t.Fatalf("expected a serial number to be set")
	}
	if bom.Metadata == nil || bom.Metadata.Timestamp == "" {
		t.Fatalf("expected a metadata timestamp to be set")
	}
	if _, err := time.Parse(time.RFC3339, bom.Metadata.Timestamp); err != nil {
		t.Fatalf("expected an RFC3339 timestamp, got %q: %v", bom.Metadata.Timestamp, err)
	}
}
