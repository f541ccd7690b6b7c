package notification

import (
	"regexp"
	"strings"

	"github.com/Strob0t/MissionControl/internal/domain/agent"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ParseMentions returns every "@name" token in content, in order of
// appearance. Duplicates are preserved.
func ParseMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Resolution is the outcome of resolving one mention. Agent is nil when no
// agent carries the mentioned name.
type Resolution struct {
	Name  string
	Agent *agent.Agent
}

// Resolved reports whether the mention matched an agent.
func (r Resolution) Resolved() bool { return r.Agent != nil }

// Resolve matches each name against agents by case-insensitive exact name.
// Agents must be ordered oldest first: when several share a name the first
// one wins.
func Resolve(names []string, agents []agent.Agent) []Resolution {
	if len(names) == 0 {
		return nil
	}
	byName := make(map[string]*agent.Agent, len(agents))
	for i := range agents {
		key := strings.ToLower(agents[i].Name)
		if _, ok := byName[key]; !ok {
			byName[key] = &agents[i]
		}
	}

	out := make([]Resolution, 0, len(names))
	for _, n := range names {
		out = append(out, Resolution{Name: n, Agent: byName[strings.ToLower(n)]})
	}
	return out
}

// Ambiguous returns the lower-cased names that more than one agent shares.
func Ambiguous(agents []agent.Agent) []string {
	seen := make(map[string]int, len(agents))
	for i := range agents {
		seen[strings.ToLower(agents[i].Name)]++
	}
	var dup []string
	for name, n := range seen {
		if n > 1 {
			dup = append(dup, name)
		}
	}
	return dup
}
