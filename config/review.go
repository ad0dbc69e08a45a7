package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/txsync/locale"
)

// allLocales marks a policy that applies to every locale.
const allLocales = "*"

// ReviewPolicy selects the locales for which only reviewed translations are
// counted and downloaded. The zero value disables review-only mode.
//
// In YAML it is either a boolean or a list of locale codes; in the
// environment it is "true", "false" or a comma separated list.
type ReviewPolicy []string

// ReviewAll returns a policy that applies to every locale.
func ReviewAll() ReviewPolicy { return ReviewPolicy{allLocales} }

// ReviewLocales returns a policy that applies to the listed locales only.
func ReviewLocales(codes ...string) ReviewPolicy {
	p := make(ReviewPolicy, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			p = append(p, c)
		}
	}
	return p
}

// Enabled reports whether review-only mode is on for at least one locale.
func (p ReviewPolicy) Enabled() bool { return len(p) > 0 }

// All reports whether review-only mode is on for every locale.
func (p ReviewPolicy) All() bool { return slices.Contains(p, allLocales) }

// Applies reports whether only reviewed strings count for code. Codes are
// compared in hyphen form, so "pt_BR" and "pt-BR" match each other.
func (p ReviewPolicy) Applies(code string) bool {
	if !p.Enabled() {
		return false
	}
	if p.All() {
		return true
	}
	return slices.ContainsFunc(p, func(c string) bool { return locale.Equal(c, code) })
}

// UnmarshalYAML accepts a boolean or a sequence of locale codes.
func (p *ReviewPolicy) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var on bool
		if err := node.Decode(&on); err != nil {
			return fmt.Errorf("reviewed_only: expected boolean or list, got %q", node.Value)
		}
		*p = nil
		if on {
			*p = ReviewAll()
		}
		return nil
	case yaml.SequenceNode:
		var codes []string
		if err := node.Decode(&codes); err != nil {
			return fmt.Errorf("reviewed_only: %w", err)
		}
		*p = ReviewLocales(codes...)
		return nil
	default:
		return fmt.Errorf("reviewed_only: expected boolean or list at line %d", node.Line)
	}
}

// SetValue parses the environment form of the policy.
func (p *ReviewPolicy) SetValue(s string) error {
	s = strings.TrimSpace(s)
	if on, err := strconv.ParseBool(s); err == nil {
		*p = nil
		if on {
			*p = ReviewAll()
		}
		return nil
	}
	*p = ReviewLocales(strings.Split(s, ",")...)
	return nil
}

// String renders the policy for display.
func (p ReviewPolicy) String() string {
	switch {
	case !p.Enabled():
		return "off"
	case p.All():
		return "all locales"
	default:
		return strings.Join(p, ", ")
	}
}
