package metrics

import "github.com/vango-dev/urlsync/pkg/qparam"

type multi []qparam.Probe

func (m multi) PassCompleted(p qparam.Pass) {
	for _, probe := range m {
		probe.PassCompleted(p)
	}
}

// Multi reports each pass to every non-nil probe, in order.
func Multi(probes ...qparam.Probe) qparam.Probe {
	out := make(multi, 0, len(probes))
	for _, p := range probes {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
