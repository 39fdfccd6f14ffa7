package synth

import "sort"

// StandardTimes is a typical EXSY mixing-time series in ms.
var StandardTimes = []float64{10, 25, 50, 75, 100, 150, 200, 300, 500, 750, 1000, 1500}

var Presets = map[string]Scenario{
	"symmetric": {
		Name: "symmetric", K12: 0.01, K21: 0.01, Noise: 0.01,
		Times: StandardTimes,
	},
	"asymmetric": {
		Name: "asymmetric", K12: 0.005, K21: 0.01, Noise: 0.01,
		Times: StandardTimes,
	},
	"fast": {
		Name: "fast", K12: 0.04, K21: 0.06, Noise: 0.01,
		Times: []float64{2, 5, 10, 15, 20, 30, 40, 60, 80, 120},
	},
	"slow": {
		Name: "slow", K12: 0.0008, K21: 0.0012, Noise: 0.005,
		Times: []float64{50, 100, 250, 500, 1000, 1500, 2000, 3000, 4000, 6000},
	},
	"exact": {
		Name: "exact", K12: 0.005, K21: 0.01, Noise: 0,
		Times: []float64{10, 50, 100, 200, 500, 1000},
	},
}

func GetPreset(name string) (Scenario, bool) {
	s, ok := Presets[name]
	return s, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
