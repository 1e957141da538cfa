package stated

import (
	"fmt"
	"strings"
)

// Visibility controls which callers may reach a state method. The zero value
// is not a valid visibility.
type Visibility int

const (
	// VisibilityPublic methods are reachable from any caller.
	VisibilityPublic Visibility = iota + 1
	// VisibilityProtected methods are reachable from inside the composition.
	VisibilityProtected
	// VisibilityPrivate methods are reachable from the declaring stated class.
	VisibilityPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

// Valid reports whether v is one of the three known visibilities.
func (v Visibility) Valid() bool {
	return v >= VisibilityPublic && v <= VisibilityPrivate
}

// ParseVisibility converts a textual visibility into its Visibility value.
func ParseVisibility(value string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "public":
		return VisibilityPublic, nil
	case "protected":
		return VisibilityProtected, nil
	case "private":
		return VisibilityPrivate, nil
	default:
		return 0, newError(ErrInvalidArgument, withDetail(fmt.Sprintf("unknown visibility %q", value)))
	}
}

// IsVisible decides whether a method declared with target visibility, living
// in a state owned by stateOwner, is callable by callerOrigin when scope is
// requested.
//
// Private methods of a state in private mode (inherited from an ancestor
// stated class) are only reachable when the caller originates from that
// ancestor.
func IsVisible(target Visibility, privateMode bool, stateOwner, callerOrigin string, scope Visibility) (bool, error) {
	switch scope {
	case VisibilityPublic:
		return target == VisibilityPublic, nil
	case VisibilityProtected:
		return target != VisibilityPrivate, nil
	case VisibilityPrivate:
		return !(privateMode && callerOrigin != stateOwner && target == VisibilityPrivate), nil
	default:
		return false, newError(ErrInvalidArgument, withScope(scope), withDetail("unsupported scope"))
	}
}
