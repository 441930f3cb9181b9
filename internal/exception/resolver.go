package exception

import (
	"fmt"
	"strings"

	apperrors "github.com/apikit/apikit/internal/pkg/errors"
)

// MatchMode selects how an error's kind is matched against bound kinds
type MatchMode int

const (
	// MatchExact only accepts the error's own kind. Kinds declared under a
	// registered kind fall through to the catch-all.
	MatchExact MatchMode = iota
	// MatchNearest accepts the most specific registered ancestor.
	MatchNearest
)

// String implements fmt.Stringer
func (m MatchMode) String() string {
	if m == MatchNearest {
		return "nearest"
	}
	return "exact"
}

// ParseMatchMode parses "exact" or "nearest"
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return MatchExact, nil
	case "nearest", "ancestor":
		return MatchNearest, nil
	default:
		return MatchExact, fmt.Errorf("unknown match mode %q", s)
	}
}

// matchKind picks the bound kind serving kind. ordered lists the bound kinds
// in priority order; bound reports membership. catchAll is returned when
// nothing matches, and an exact catch-all kind short-circuits to it.
func matchKind(kind *apperrors.Kind, mode MatchMode, catchAll *apperrors.Kind, ordered []*apperrors.Kind, bound func(*apperrors.Kind) bool) *apperrors.Kind {
	if kind == nil || kind == catchAll {
		return catchAll
	}

	if mode == MatchNearest {
		for k := kind; k != nil; k = k.Parent() {
			if bound(k) {
				return k
			}
		}
		return catchAll
	}

	for _, k := range ordered {
		if k == catchAll {
			continue
		}
		if k == kind {
			return k
		}
	}
	return catchAll
}

// Resolver picks the registry entry for an error
type Resolver struct {
	registry *Registry
	kinds    []*apperrors.Kind
}

// NewResolver creates a resolver over reg. A nil reg uses BuildRegistry.
func NewResolver(reg *Registry) *Resolver {
	if reg == nil {
		reg = BuildRegistry()
	}
	kinds := make([]*apperrors.Kind, len(reg.entries))
	for i, e := range reg.entries {
		kinds[i] = e.Kind
	}
	return &Resolver{registry: reg, kinds: kinds}
}

// Registry returns the registry the resolver reads
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve returns the ErrorInfo registered for exactly err's kind, or the
// catch-all when the kind is not registered.
func (r *Resolver) Resolve(err error) ErrorInfo {
	return r.ResolveWith(err, MatchExact)
}

// ResolveNearest returns the ErrorInfo of the most specific registered
// ancestor of err's kind.
func (r *Resolver) ResolveNearest(err error) ErrorInfo {
	return r.ResolveWith(err, MatchNearest)
}

// ResolveWith resolves err under mode
func (r *Resolver) ResolveWith(err error, mode MatchMode) ErrorInfo {
	info, _ := r.registry.Lookup(r.KindFor(apperrors.KindOf(err), mode))
	return info
}

// KindFor returns the registered kind serving kind under mode
func (r *Resolver) KindFor(kind *apperrors.Kind, mode MatchMode) *apperrors.Kind {
	return matchKind(kind, mode, apperrors.KindUnknown, r.kinds, func(k *apperrors.Kind) bool {
		_, ok := r.registry.index[k]
		return ok
	})
}
