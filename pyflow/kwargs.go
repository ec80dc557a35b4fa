package pyflow

import (
	"github.com/2x3systems/flowmesh/flowmesh"
	"github.com/go-python/gpython/py"
)

// loadKwargs loads each named kwarg present into the corresponding pointer, ignoring kwargs not named.
func loadKwargs(kwargs py.StringDict, dst map[string]interface{}) error {
	for key, ptr := range dst {
		obj, exists := kwargs[key]
		if !exists {
			continue
		}

		var err error
		switch v := ptr.(type) {
		case *float64:
			*v, err = py.FloatAsFloat64(obj)
		case *int:
			var i py.Int
			i, err = py.GetInt(obj)
			*v = int(i)
		case *int64:
			var i py.Int
			i, err = py.GetInt(obj)
			*v = int64(i)
		case *bool:
			*v = obj == py.True
		case *string:
			str, ok := obj.(py.String)
			if !ok {
				return py.ExceptionNewf(py.TypeError, "%s: expected str (got %v)", key, obj.Type().Name)
			}
			*v = string(str)
		}
		if err != nil {
			return py.ExceptionNewf(py.TypeError, "%s: %v", key, err)
		}
	}
	return nil
}

func exportTraceOpts(kwargs py.StringDict) (flowmesh.TraceOpts, error) {
	opts := flowmesh.DefaultTraceOpts

	spacing := ""
	err := loadKwargs(kwargs, map[string]interface{}{
		"sampling_interval": &opts.SamplingInterval,
		"min_dist":          &opts.MinDist,
		"max_dist":          &opts.MaxDist,
		"seed_prob":         &opts.SeedProb,
		"epsilon":           &opts.Epsilon,
		"staging_cap":       &opts.StagingCap,
		"line_limit":        &opts.LineLimit,
		"seed":              &opts.RandSeed,
		"spacing":           &spacing,
	})
	if err != nil {
		return opts, err
	}

	switch spacing {
	case "", "same":
		opts.Spacing = flowmesh.SpacingSame
	case "opposite":
		opts.Spacing = flowmesh.SpacingOpposite
	default:
		return opts, py.ExceptionNewf(py.ValueError, "spacing must be 'same' or 'opposite' (got %q)", spacing)
	}

	if err = opts.Validate(); err != nil {
		return opts, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return opts, nil
}
