package personality

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/becomeliminal/astra/core"
	"github.com/becomeliminal/astra/logging"
	"github.com/becomeliminal/astra/oracle"
)

// Machine drifts the trait map after a remembered exchange. Each Update makes
// three oracle calls: an emotional reflection, a growth list and a decay list.
type Machine struct {
	oracle core.Completer
	store  Store
	parser *oracle.Parser
}

// NewMachine creates a personality machine.
func NewMachine(completer core.Completer, store Store) *Machine {
	return &Machine{
		oracle: completer,
		store:  store,
		parser: oracle.NewParser(),
	}
}

// Update is the result of one Machine.Update call.
type Update struct {
	Reflection string
	Grown      []string
	Decayed    []string
	Traits     TraitMap
}

// Traits loads the current trait map.
func (m *Machine) Traits(ctx context.Context) (TraitMap, error) {
	return m.store.Load(ctx)
}

// Render loads the current trait map and renders it for a prompt.
func (m *Machine) Render(ctx context.Context) (string, error) {
	traits, err := m.store.Load(ctx)
	if err != nil {
		return "", err
	}
	return Render(traits), nil
}

// Update reflects on exchange and applies growth then decay to the stored
// trait map. The map is loaded at the start and written back at the end; a
// failure before the write leaves the stored map untouched.
func (m *Machine) Update(ctx context.Context, exchange core.Exchange) (*Update, error) {
	log := logging.For("personality")

	traits, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	reflection, err := m.oracle.Complete(ctx, oracle.ReflectionPrompt(exchange.String()))
	if err != nil {
		return nil, fmt.Errorf("%w: reflection: %w", core.ErrOracle, err)
	}
	reflection = strings.TrimSpace(reflection)

	grown, err := m.traitList(ctx, oracle.GrowthPrompt(reflection, MaxTraits))
	if err != nil {
		return nil, fmt.Errorf("%w: growth traits: %w", core.ErrOracle, err)
	}
	traits.Grow(grown)

	decayed, err := m.traitList(ctx, oracle.DecayPrompt(reflection, MaxTraits))
	if err != nil {
		return nil, fmt.Errorf("%w: decay traits: %w", core.ErrOracle, err)
	}
	traits.Decay(decayed)

	if err := m.store.Save(ctx, traits); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"grown":   grown,
		"decayed": decayed,
		"traits":  len(traits),
	}).Info("updated personality")

	return &Update{
		Reflection: reflection,
		Grown:      grown,
		Decayed:    decayed,
		Traits:     traits.Clone(),
	}, nil
}

func (m *Machine) traitList(ctx context.Context, prompt string) ([]string, error) {
	resp, err := m.oracle.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	names, structured := m.parser.ParseList(resp, MaxTraits)
	if !structured {
		logging.For("personality").WithField("traits", names).Warn("trait response was not a JSON array, used quoted scan")
	}
	return names, nil
}
