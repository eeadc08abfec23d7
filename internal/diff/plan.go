package diff

// Plan is the pure, serialisable input to ExecuteDiffPlan (DiffPlan in
// spec §4.6): everything build_unified_diff needs, with no file handles or
// live state, so a plan can be persisted and replayed later.
type Plan struct {
	Before  string
	After   string
	Options Options
}

// Summary is an optional, caller-defined roll-up attached to an
// ExecutionResult by the summarise callback passed to ExecuteDiffPlan.
type Summary struct {
	Headline string
	Detail   map[string]any
}

// ExecutionResult bundles the plan that produced it with its Result and an
// optional Summary.
type ExecutionResult struct {
	Plan    Plan
	Result  Result
	Summary *Summary
}

// ExecuteDiffPlan runs plan through BuildUnifiedDiff and, when summarise is
// non-nil, attaches its output as the ExecutionResult's Summary.
func ExecuteDiffPlan(plan Plan, summarise func(Plan, Result) *Summary) ExecutionResult {
	result := BuildUnifiedDiff(plan.Before, plan.After, plan.Options)
	res := ExecutionResult{Plan: plan, Result: result}
	if summarise != nil {
		res.Summary = summarise(plan, result)
	}
	return res
}
