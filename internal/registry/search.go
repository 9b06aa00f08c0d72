package registry

import (
	"context"
	"iter"
	"strings"

	"github.com/rickgao/agri-market/internal/model"
)

// Filter narrows ListActive. Zero value matches every unsold listing.
type Filter struct {
	Query    string // substring of name or description, case-insensitive
	Location string // substring of the owner's location, case-insensitive
}

func (f Filter) empty() bool {
	return f.Query == "" && f.Location == ""
}

// ListActive yields unsold listings matching f in creation order. Each
// iteration reloads the collection. A load or owner-lookup failure is
// yielded once as an error and ends the sequence.
//
// With a non-empty filter, listings whose owner is not in the directory are
// skipped.
func (r *Registry) ListActive(ctx context.Context, f Filter) iter.Seq2[model.Listing, error] {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	location := strings.ToLower(strings.TrimSpace(f.Location))
	f = Filter{Query: query, Location: location}

	return func(yield func(model.Listing, error) bool) {
		listings, err := r.repo.LoadListings(ctx)
		if err != nil {
			yield(model.Listing{}, err)
			return
		}

		owners := make(map[string]ownerLookup)
		for _, l := range listings {
			if l.Sold {
				continue
			}
			if query != "" && !matchesQuery(l, query) {
				continue
			}
			if !f.empty() {
				o, ok := owners[l.Owner]
				if !ok {
					o.owner, o.found, err = r.owners.FindOwner(ctx, l.Owner)
					if err != nil {
						yield(model.Listing{}, err)
						return
					}
					owners[l.Owner] = o
				}
				if !o.found {
					continue
				}
				if location != "" && !strings.Contains(strings.ToLower(o.owner.Location), location) {
					continue
				}
			}
			if !yield(l, nil) {
				return
			}
		}
	}
}

type ownerLookup struct {
	owner model.Owner
	found bool
}

func matchesQuery(l model.Listing, query string) bool {
	return strings.Contains(strings.ToLower(l.Name), query) ||
		strings.Contains(strings.ToLower(l.Description), query)
}
