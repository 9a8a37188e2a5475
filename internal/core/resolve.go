package core

import (
	"github.com/hdlkit/orbit/internal/catalog"
	"github.com/hdlkit/orbit/internal/ip"
	"github.com/hdlkit/orbit/internal/ipgraph"
	"github.com/hdlkit/orbit/internal/lang"
)

// Resolve builds the IP-graph rooted at workingIp against cat (spec §6
// resolve(working_ip, catalog, lang) → IpGraph). The language parameter is
// accepted for interface fidelity with spec.md but does not change which
// IPs are visited: visibility and identifier collisions are computed over
// an IP's whole declared public surface regardless of source language, and
// language-based file filtering happens once, downstream, in fileClosure
// and unitgraph.Build — threading it through ipgraph.Resolve itself would
// only duplicate that filter at the wrong granularity.
func Resolve(workingIp *ip.Ip, cat *catalog.Catalog, language lang.Language) (*ipgraph.Graph, error) {
	_ = language
	return ipgraph.Resolve(workingIp, cat)
}
