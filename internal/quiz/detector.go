package quiz

import "github.com/PYTHAGON2/cdcfib-mock-test/internal/models"

// Thresholds bound what counts as normal use of one address. An address is
// flagged when it exceeds either bound.
type Thresholds struct {
	MaxAttempts int
	MaxNames    int
}

var DefaultThresholds = Thresholds{MaxAttempts: 3, MaxNames: 1}

type SuspiciousAddress struct {
	Address   string   `json:"address"`
	Count     int      `json:"count"`
	UserNames []string `json:"userNames"`
}

// DetectSuspicious groups attempts by address and returns the flagged
// groups in order of first appearance. Zero thresholds fall back to
// DefaultThresholds.
func DetectSuspicious(attempts []models.QuizAttempt, th Thresholds) []SuspiciousAddress {
	if th.MaxAttempts <= 0 {
		th.MaxAttempts = DefaultThresholds.MaxAttempts
	}
	if th.MaxNames <= 0 {
		th.MaxNames = DefaultThresholds.MaxNames
	}

	type group struct {
		count int
		names []string
		seen  map[string]struct{}
	}
	var order []string
	groups := make(map[string]*group)

	for _, a := range attempts {
		g, ok := groups[a.IPAddress]
		if !ok {
			g = &group{seen: make(map[string]struct{})}
			groups[a.IPAddress] = g
			order = append(order, a.IPAddress)
		}
		g.count++
		if _, dup := g.seen[a.UserName]; !dup {
			g.seen[a.UserName] = struct{}{}
			g.names = append(g.names, a.UserName)
		}
	}

	flagged := []SuspiciousAddress{}
	for _, addr := range order {
		g := groups[addr]
		if g.count > th.MaxAttempts || len(g.names) > th.MaxNames {
			flagged = append(flagged, SuspiciousAddress{Address: addr, Count: g.count, UserNames: g.names})
		}
	}
	return flagged
}
