package hunt

import "sort"

// TransformEntry is one row of BuildPlanTransforms' output (spec §4.5,
// "build_plan_transforms... yield (token_name, placeholder, value)").
type TransformEntry struct {
	TokenName   string
	Placeholder string
	Value       string
}

type transformKey struct {
	path      string
	line      int
	tokenName string
}

// BuildPlanTransforms dedups hits by (file, line, token_name) and renders
// each surviving one's placeholder against template, ignoring hits with no
// token_name (spec §4.5, "build_plan_transforms(hits, template)").
func BuildPlanTransforms(hits []Hit, template string) []TransformEntry {
	seen := make(map[transformKey]struct{})
	var out []TransformEntry
	for _, h := range hits {
		if h.TokenName == "" || h.PlanTransform == nil {
			continue
		}
		key := transformKey{path: h.Path, line: h.LineNumber, tokenName: h.TokenName}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, TransformEntry{
			TokenName:   h.TokenName,
			Placeholder: renderPlaceholder(template, h.TokenName),
			Value:       h.PlanTransform.Value,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TokenName != out[j].TokenName {
			return out[i].TokenName < out[j].TokenName
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// ApprovedCandidate pairs a Hit with the TokenApproval that cleared it.
type ApprovedCandidate struct {
	Hit      Hit
	Approval TokenApproval
}

// CollectTokenCandidates aligns hits carrying a token_name against store,
// separating them into approved (an approval exists for that token_name)
// and pending (spec §4.5, "collect_token_candidates(hits, approvals)").
// Hits with no token_name are ignored; they carry nothing to approve.
func CollectTokenCandidates(hits []Hit, store ApprovalStore) (approved []ApprovedCandidate, pending []Hit, err error) {
	cache := make(map[string]*TokenApproval)
	for _, h := range hits {
		if h.TokenName == "" {
			continue
		}
		approval, ok := cache[h.TokenName]
		if !ok {
			a, found, lookupErr := store.Get(h.TokenName)
			if lookupErr != nil {
				return nil, nil, lookupErr
			}
			if found {
				approval = &a
			}
			cache[h.TokenName] = approval
		}
		if approval != nil {
			approved = append(approved, ApprovedCandidate{Hit: h, Approval: *approval})
		} else {
			pending = append(pending, h)
		}
	}
	return approved, pending, nil
}
