package orchestrate

import "net/url"

// hostGroup is a batch of URLs that share a (scheme, host, port) origin
// and so can be captured against one reused browser instance.
type hostGroup struct {
	key  string
	urls []string
}

// groupByHost partitions urls by origin, preserving the first-seen
// insertion order of each group key. URLs that fail to parse, or that
// carry no scheme/host, fall into the empty-key group together.
func groupByHost(urls []string) []hostGroup {
	order := make([]string, 0)
	byKey := make(map[string][]string)

	for _, u := range urls {
		key := hostKey(u)
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], u)
	}

	groups := make([]hostGroup, 0, len(order))
	for _, k := range order {
		groups = append(groups, hostGroup{key: k, urls: byKey[k]})
	}
	return groups
}

// hostKey renders the origin of rawURL as "scheme://host[:port]", or ""
// if rawURL doesn't parse to one.
func hostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
