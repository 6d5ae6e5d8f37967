package response

import (
	"fmt"

	"github.com/radphys/dvhrisk/common"
)

// The registry maps model names from configuration to typed
// constructors, replacing dispatch on raw name strings at call sites.
var registry = map[string]func(params []float64) (Model, error){
	"LNT": func(params []float64) (Model, error) {
		if err := wantParams("LNT", 0, params); err != nil {
			return nil, err
		}
		return LNT{}, nil
	},
	"PlateauHall": func(params []float64) (Model, error) {
		if err := wantParams("PlateauHall", 1, params); err != nil {
			return nil, err
		}
		return PlateauHall{Threshold: params[0]}, nil
	},
	"LinExp": func(params []float64) (Model, error) {
		if err := wantParams("LinExp", 1, params); err != nil {
			return nil, err
		}
		return LinExp{Alpha: params[0]}, nil
	},
	"Competition": func(params []float64) (Model, error) {
		if err := wantParams("Competition", 5, params); err != nil {
			return nil, err
		}
		return Competition{
			Alpha1: params[0], Beta1: params[1],
			Alpha2: params[2], Beta2: params[3],
			N: params[4],
		}, nil
	},
	"LinPlat": func(params []float64) (Model, error) {
		if err := wantParams("LinPlat", 1, params); err != nil {
			return nil, err
		}
		return LinPlat{Delta: params[0]}, nil
	},
	"LinearQuad": func(params []float64) (Model, error) {
		if err := wantParams("LinearQuad", 3, params); err != nil {
			return nil, err
		}
		return LinearQuad{Alpha: params[0], Beta: params[1], N: params[2]}, nil
	},
	"LinearQuadMultiRBE": func(params []float64) (Model, error) {
		if err := wantParams("LinearQuadMultiRBE", 7, params); err != nil {
			return nil, err
		}
		return LinearQuadMultiRBE{
			Alpha: params[0], Beta: params[1], N: params[2],
			RBE1Min: params[3], RBE1Max: params[4],
			RBE2Min: params[5], RBE2Max: params[6],
		}, nil
	},
}

// New builds a response model from its configured name and positional
// parameter list.
func New(name string, params ...float64) (Model, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("response model %q: %w", name, common.ErrorUnknownName)
	}
	return build(params)
}

// Names lists the registered model names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

func wantParams(name string, want int, params []float64) error {
	if len(params) != want {
		return fmt.Errorf("response model %q needs %v parameters, got %v: %w",
			name, want, len(params), common.ErrorInvalidValue)
	}
	return nil
}
