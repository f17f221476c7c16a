package console

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

// MainGroupsAPI is what the main groups view needs from the admin API.
type MainGroupsAPI interface {
	SubgroupAPI
	ListMainGroups(ctx context.Context) ([]api.MainGroup, error)
	ListChannelGroups(ctx context.Context) ([]api.ChannelGroup, error)
}

// MainGroupsView lists main groups next to the channel groups they may bind.
type MainGroupsView struct {
	client MainGroupsAPI

	Groups        []api.MainGroup
	ChannelGroups []api.ChannelGroup
}

func NewMainGroupsView(client MainGroupsAPI) *MainGroupsView {
	return &MainGroupsView{client: client}
}

// Load fetches both lists concurrently. Either failure clears both.
func (v *MainGroupsView) Load(ctx context.Context) error {
	var (
		groups   []api.MainGroup
		channels []api.ChannelGroup
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		groups, err = v.client.ListMainGroups(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		channels, err = v.client.ListChannelGroups(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		v.Groups = nil
		v.ChannelGroups = nil
		return err
	}
	v.Groups = groups
	v.ChannelGroups = channels
	return nil
}

// ChannelGroup looks up a loaded channel group by name.
func (v *MainGroupsView) ChannelGroup(name string) (api.ChannelGroup, bool) {
	for _, g := range v.ChannelGroups {
		if g.Name == name {
			return g, true
		}
	}
	return api.ChannelGroup{}, false
}

// Candidate is a channel group offered for binding to a main group.
type Candidate struct {
	Name            string `json:"name"`
	PriceMultiplier string `json:"price_multiplier"`
	// Available is false when the name is already in the working set.
	Available bool `json:"available"`
}

// Candidates lists enabled channel groups sorted by name, marking those
// already bound in current.
func (v *MainGroupsView) Candidates(current []string) []Candidate {
	out := make([]Candidate, 0, len(v.ChannelGroups))
	for _, g := range v.ChannelGroups {
		if g.Status != 1 {
			continue
		}
		out = append(out, Candidate{
			Name:            g.Name,
			PriceMultiplier: g.PriceMultiplier,
			Available:       ordering.IndexOf(current, g.Name) < 0,
		})
	}
	slices.SortFunc(out, func(a, b Candidate) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Editor starts a subgroup edit for the named main group.
func (v *MainGroupsView) Editor(name string) *SubgroupEditor {
	return NewSubgroupEditor(v.client, strings.TrimSpace(name))
}
