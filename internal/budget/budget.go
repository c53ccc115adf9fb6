package budget

// PushBudget caps the number of publish attempts in a single run. A zero
// maximum turns the run into a dry run that denies every candidate. The
// budget is consulted from the sequential publish loop only, so access is
// not synchronized.
type PushBudget struct {
	maximumPushCount int
	pushedCount      int
	deniedCount      int
}

// NewPushBudget constructs a budget. Negative maximums collapse to zero.
func NewPushBudget(maximumPushCount int) *PushBudget {
	if maximumPushCount < 0 {
		maximumPushCount = 0
	}
	return &PushBudget{maximumPushCount: maximumPushCount}
}

// TryConsume reserves one publish slot. It reports false once the budget is
// exhausted and counts the request as denied.
func (pushBudget *PushBudget) TryConsume() bool {
	if pushBudget.pushedCount < pushBudget.maximumPushCount {
		pushBudget.pushedCount++
		return true
	}

	pushBudget.deniedCount++
	return false
}

// Maximum returns the configured publish cap.
func (pushBudget *PushBudget) Maximum() int {
	return pushBudget.maximumPushCount
}

// PushedCount returns how many slots were consumed.
func (pushBudget *PushBudget) PushedCount() int {
	return pushBudget.pushedCount
}

// DeniedCount returns how many requests were denied after exhaustion.
func (pushBudget *PushBudget) DeniedCount() int {
	return pushBudget.deniedCount
}
