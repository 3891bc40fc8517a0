package content

import "github.com/ignite/newsletter-builder/internal/domain"

// validateOrder checks a proposed article order against the membership an
// issue will have after the in-flight operation: the short names of its
// non-intro articles, plus add, minus remove (either may be empty).
//
// The proposed order is valid iff, read as a set, it equals that membership.
// Duplicates collapse; ordering within the list is the caller's business and
// is stored verbatim. The intro article is never part of either set.
func validateOrder(articles []domain.Article, proposed []string, add, remove string) bool {
	valid := make(map[string]bool, len(articles)+1)
	for _, a := range articles {
		if a.Key.IsIntro() {
			continue
		}
		valid[a.Key.ShortName] = true
	}
	if add != "" && add != domain.IntroShortName {
		valid[add] = true
	}
	if remove != "" {
		delete(valid, remove)
	}

	seen := make(map[string]bool, len(proposed))
	for _, name := range proposed {
		if name == "" {
			continue
		}
		if !valid[name] {
			return false
		}
		seen[name] = true
	}
	return len(seen) == len(valid)
}
