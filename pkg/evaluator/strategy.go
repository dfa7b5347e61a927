package evaluator

import (
	"math/rand"
	"net"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/nlohse/feature-toggle-client/pkg/defs"
)

// Built-in activation strategy names.
const (
	StrategyDefault         = "default"
	StrategyUserWithID      = "userWithId"
	StrategyRemoteAddress   = "remoteAddress"
	StrategyFlexibleRollout = "flexibleRollout"
)

// Stickiness names accepted by flexibleRollout and variant selection.
// Any other value names a context field to bucket on.
const (
	StickinessDefault   = "default"
	StickinessUserID    = "userId"
	StickinessSessionID = "sessionId"
	StickinessRandom    = "random"
)

// strategyEnabled reports whether one strategy activates the feature
// for this context. Constraints gate the strategy: all must hold before
// the strategy-specific rule runs. An unknown strategy name never
// activates.
func (e *Engine) strategyEnabled(s *defs.Strategy, featureName string, c defs.Context) (bool, error) {
	for i := range s.Constraints {
		ok, err := e.constraintSatisfied(&s.Constraints[i], c)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	switch s.Name {
	case StrategyDefault:
		return true, nil
	case StrategyUserWithID:
		return userWithID(s.Parameters["userIds"], c.UserID), nil
	case StrategyRemoteAddress:
		return remoteAddress(s.Parameters["IPs"], c.RemoteAddress), nil
	case StrategyFlexibleRollout:
		return flexibleRollout(s.Parameters, featureName, c), nil
	default:
		return false, nil
	}
}

// userWithID matches the context user against a comma-separated list.
func userWithID(userIDs, userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range strings.Split(userIDs, ",") {
		if strings.TrimSpace(id) == userID {
			return true
		}
	}
	return false
}

// remoteAddress matches the context address against a comma-separated
// list of IPs and CIDR blocks.
func remoteAddress(ips, addr string) bool {
	if addr == "" {
		return false
	}
	remote := net.ParseIP(strings.TrimSpace(addr))

	for _, entry := range strings.Split(ips, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if entry == addr {
			return true
		}
		if remote == nil {
			continue
		}
		if _, network, err := net.ParseCIDR(entry); err == nil && network.Contains(remote) {
			return true
		}
		if ip := net.ParseIP(entry); ip != nil && ip.Equal(remote) {
			return true
		}
	}
	return false
}

// flexibleRollout buckets the context into a percentage group. The
// groupId parameter defaults to the feature name so distinct features
// roll out to distinct user sets.
func flexibleRollout(params map[string]string, featureName string, c defs.Context) bool {
	rollout := parsePercentage(params["rollout"])
	if rollout <= 0 {
		return false
	}

	groupID := params["groupId"]
	if groupID == "" {
		groupID = featureName
	}

	identifier := stickinessIdentifier(params["stickiness"], c)
	if identifier == "" {
		return false
	}

	return normalizedValue(identifier, groupID, 100) <= rollout
}

// stickinessIdentifier resolves the identity a bucketing decision
// sticks to. Default stickiness prefers userId, then sessionId, then a
// random identity. An empty return means the demanded identity is
// absent from the context.
func stickinessIdentifier(stickiness string, c defs.Context) string {
	switch stickiness {
	case "", StickinessDefault:
		if c.UserID != "" {
			return c.UserID
		}
		if c.SessionID != "" {
			return c.SessionID
		}
		return randomIdentifier()
	case StickinessUserID:
		return c.UserID
	case StickinessSessionID:
		return c.SessionID
	case StickinessRandom:
		return randomIdentifier()
	default:
		value, _ := c.Field(stickiness)
		return value
	}
}

// normalizedValue buckets an identifier into 1..normalizer for a group.
// The same identifier and group always land in the same bucket.
func normalizedValue(identifier, groupID string, normalizer int) int {
	hash := murmur3.Sum32([]byte(groupID + ":" + identifier))
	return int(hash%uint32(normalizer)) + 1
}

// parsePercentage parses a rollout percentage, clamped to 0..100.
// Unparseable input counts as 0.
func parsePercentage(s string) int {
	value, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

func randomIdentifier() string {
	return strconv.Itoa(rand.Intn(100000) + 1)
}
