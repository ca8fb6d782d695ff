package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/network"
)

// DeadLink is an edge pointing at a node the network does not define.
type DeadLink struct {
	From      domain.NodeID `json:"from"`
	Direction string        `json:"direction"`
	To        domain.NodeID `json:"to"`
}

func (d DeadLink) String() string {
	return fmt.Sprintf("%s -%s-> %s", d.From, d.Direction, d.To)
}

// Result is the outcome of a crawl.
type Result struct {
	Reachable   []domain.NodeID `json:"reachable"`
	Unreachable []domain.NodeID `json:"unreachable,omitempty"`
	DeadLinks   []DeadLink      `json:"dead_links,omitempty"`
}

// ValidateNetwork crawls every edge reachable from starts and reports
// successors that are not defined. Unreachable nodes are listed but are not errors.
// The returned error wraps domain.ErrUnknownNode when a start or a reachable
// successor is missing.
func ValidateNetwork(g *network.Network, starts []domain.NodeID) (*Result, error) {
	visited := make(map[domain.NodeID]bool)
	queue := make([]domain.NodeID, 0, len(starts))
	var errs []string

	for _, s := range starts {
		if !g.Has(s) {
			errs = append(errs, fmt.Sprintf("Missing start node: '%s'", s))
			continue
		}
		queue = append(queue, s)
	}

	res := &Result{}
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true
		res.Reachable = append(res.Reachable, currentID)

		for _, dir := range []domain.Direction{domain.Left, domain.Right} {
			target, err := g.Lookup(currentID, dir)
			if err != nil {
				continue
			}
			if !g.Has(target) {
				link := DeadLink{From: currentID, Direction: dir.String(), To: target}
				res.DeadLinks = append(res.DeadLinks, link)
				errs = append(errs, fmt.Sprintf("Missing node: %s", link))
				continue
			}
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	slices.Sort(res.Reachable)
	for _, id := range g.Nodes() {
		if !visited[id] {
			res.Unreachable = append(res.Unreachable, id)
		}
	}

	if len(errs) > 0 {
		return res, fmt.Errorf("%w: found %d errors:\n- %s", domain.ErrUnknownNode, len(errs), strings.Join(errs, "\n- "))
	}
	return res, nil
}
