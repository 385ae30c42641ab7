package market

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tradesim/internal/engine"
)

var (
	// ErrUnknownAction is returned by NewEvent for names not in the registry.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidArgs is returned by NewEvent when arguments do not decode
	// into the event's payload.
	ErrInvalidArgs = errors.New("invalid args")
)

type constructor func(rules Rules, args []byte) (engine.Event[*State], error)

var registry = map[string]constructor{
	EventBuy: func(rules Rules, args []byte) (engine.Event[*State], error) {
		var p BuyPayload
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return &Buy{BuyPayload: p, Rules: rules}, nil
	},
	EventSell: func(_ Rules, args []byte) (engine.Event[*State], error) {
		var p SellPayload
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return &Sell{SellPayload: p}, nil
	},
	EventTravel: func(rules Rules, args []byte) (engine.Event[*State], error) {
		var p TravelPayload
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return &Travel{TravelPayload: p, Rules: rules}, nil
	},
	EventPriceSurge: func(_ Rules, args []byte) (engine.Event[*State], error) {
		var p PriceSurgePayload
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return &PriceSurge{PriceSurgePayload: p}, nil
	},
	EventDealerScam: func(_ Rules, args []byte) (engine.Event[*State], error) {
		var p DealerScamPayload
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return &DealerScam{DealerScamPayload: p}, nil
	},
	EventLuckyFind: func(_ Rules, args []byte) (engine.Event[*State], error) {
		var p struct{}
		if err := decodeArgs(args, &p); err != nil {
			return nil, err
		}
		return &LuckyFind{}, nil
	},
}

// Actions returns the registered event names, sorted.
func Actions() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewEvent builds the named event from loosely typed arguments, as found in
// YAML scripts. Unknown argument keys and mistyped values are rejected.
func NewEvent(rules Rules, name string, args map[string]any) (engine.Event[*State], error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownAction, name, strings.Join(Actions(), ", "))
	}

	raw := []byte("{}")
	if len(args) > 0 {
		var err error
		raw, err = json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("%s: encode args: %w", name, err)
		}
	}

	ev, err := ctor(rules, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return ev, nil
}

func decodeArgs(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	return nil
}
