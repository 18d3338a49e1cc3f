// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package content

// Domain inference is a read-time compatibility shim for historical briefs
// stored without a domain. It never writes back.

// inferBriefDomains returns briefs with missing domain ids filled in.
// Briefs that already carry a domain are returned as-is; inferred ones are
// copies flagged with DomainInferred.
func inferBriefDomains(briefs []*ContentBrief, domains []*Domain, guides []*BrandGuide) []*ContentBrief {
	fallback := fallbackDomainID(domains, guides)

	out := make([]*ContentBrief, len(briefs))
	for i, b := range briefs {
		if b.DomainID != "" || fallback == "" {
			out[i] = b
			continue
		}
		c := b.Clone()
		c.DomainID = fallback
		c.DomainInferred = true
		out[i] = c
	}
	return out
}

// fallbackDomainID picks the first provisioned domain, else the first brand
// guide's domain, else nothing
func fallbackDomainID(domains []*Domain, guides []*BrandGuide) string {
	for _, d := range domains {
		if d.ID != "" && !d.Synthesized {
			return d.ID
		}
	}
	for _, g := range guides {
		if g.DomainID != "" {
			return g.DomainID
		}
	}
	return ""
}

// synthesizeDomains derives a domain list from brand guides and briefs, in
// that order, deduplicated by domain id and named after the id
func synthesizeDomains(clientID string, guides []*BrandGuide, briefs []*ContentBrief) []*Domain {
	seen := make(map[string]bool)
	var out []*Domain

	add := func(domainID string) {
		if domainID == "" || seen[domainID] {
			return
		}
		seen[domainID] = true
		out = append(out, &Domain{
			ID:          domainID,
			Name:        domainID,
			ClientID:    clientID,
			Synthesized: true,
		})
	}

	for _, g := range guides {
		add(g.DomainID)
	}
	for _, b := range briefs {
		add(b.DomainID)
	}

	return out
}
