package access

import (
	"errors"
	"strings"
)

// Unlimited marks a plan quota with no ceiling.
const Unlimited = -1

// Plan names.
const (
	PlanFree       = "free"
	PlanDeveloper  = "developer"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

var (
	// ErrProjectLimitReached is returned when the plan's project quota is used up.
	ErrProjectLimitReached = errors.New("project limit reached")

	// ErrMemberLimitReached is returned when the plan's member quota is used up.
	ErrMemberLimitReached = errors.New("member limit reached")
)

var projectLimits = map[string]int{
	PlanFree:       2,
	PlanDeveloper:  10,
	PlanPro:        Unlimited,
	PlanEnterprise: Unlimited,
}

var memberLimits = map[string]int{
	PlanFree:       1,
	PlanDeveloper:  2,
	PlanPro:        10,
	PlanEnterprise: Unlimited,
}

func normalize(plan string) string {
	return strings.ToLower(strings.TrimSpace(plan))
}

// ProjectLimit returns the number of projects a plan may own. Unknown plans get
// the free quota.
func ProjectLimit(plan string) int {
	if n, ok := projectLimits[normalize(plan)]; ok {
		return n
	}
	return projectLimits[PlanFree]
}

// MemberLimit returns the number of non-owner members a plan allows per
// project. Unknown plans get the free quota.
func MemberLimit(plan string) int {
	if n, ok := memberLimits[normalize(plan)]; ok {
		return n
	}
	return memberLimits[PlanFree]
}

// CanCreateProject reports whether a user on plan who owns count projects may
// create another.
func CanCreateProject(plan string, count int) bool {
	return under(ProjectLimit(plan), count)
}

// CanAddMember reports whether a project with count non-owner members may
// take one more under plan.
func CanAddMember(plan string, count int) bool {
	return under(MemberLimit(plan), count)
}

func under(limit, count int) bool {
	return limit == Unlimited || count < limit
}
