package loggen

import (
	"fmt"
	"slices"
)

// Pools holds the sampling pools records are drawn from.
// A Pools value is treated as immutable once handed to a Sampler.
type Pools struct {
	StatusCodes *WeightedChoice[uint16]
	URLs        []string
	UserAgents  []string
	Referrers   []string
}

// DefaultPools returns the pools of the reference web shop dataset
func DefaultPools() Pools {
	urls := make([]string, 0, 171)
	for i := 1; i < 100; i++ {
		urls = append(urls, fmt.Sprintf("/page_%d.html", i))
	}
	for i := 1; i < 50; i++ {
		urls = append(urls, fmt.Sprintf("/product/%d", i))
	}
	for i := 1; i < 20; i++ {
		urls = append(urls, fmt.Sprintf("/category/%d", i))
	}
	urls = append(urls, "/home", "/cart", "/checkout", "/profile")

	userAgents := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Safari/605.1.15",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Linux; Android 13; SM-G991B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Mobile Safari/537.36",
		"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/118.0",
	}

	// Each referrer appears 5 times, empty string included. Uniform
	// duplication keeps the distribution unchanged.
	referrers := slices.Repeat([]string{
		"https://google.com/",
		"https://bing.com/",
		"https://direct_traffic.com",
		"https://some_partner_site.com",
		"",
	}, 5)

	return Pools{
		URLs:       urls,
		UserAgents: userAgents,
		Referrers:  referrers,
		StatusCodes: MustWeightedChoice(
			[]uint16{200, 404, 500, 301},
			[]uint64{85, 10, 3, 2},
		),
	}
}

// Validate checks that every pool can be sampled from
func (p Pools) Validate() error {
	if len(p.URLs) == 0 {
		return fmt.Errorf("URL pool is empty")
	}
	if len(p.UserAgents) == 0 {
		return fmt.Errorf("user agent pool is empty")
	}
	if len(p.Referrers) == 0 {
		return fmt.Errorf("referrer pool is empty")
	}
	if p.StatusCodes == nil {
		return fmt.Errorf("status code pool is not set")
	}
	return nil
}
