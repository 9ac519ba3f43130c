package loggen_test

import (
	"net/netip"
	"slices"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scality/log-generator/pkg/loggen"
)

var _ = Describe("Sampler", func() {
	var (
		pools  loggen.Pools
		window loggen.Window
	)

	BeforeEach(func() {
		pools = loggen.DefaultPools()
		window = mustWindow("2023-10-01 00:00:00", "2023-11-30 00:00:00")
	})

	Describe("DefaultPools", func() {
		It("should hold the reference pools", func() {
			Expect(pools.Validate()).To(Succeed())
			Expect(pools.URLs).To(HaveLen(171))
			Expect(pools.URLs).To(ContainElements("/page_1.html", "/page_99.html", "/product/49", "/category/19", "/profile"))
			Expect(pools.URLs).NotTo(ContainElement("/page_100.html"))
			Expect(pools.UserAgents).To(HaveLen(5))
			Expect(pools.Referrers).To(HaveLen(25))
			Expect(pools.Referrers).To(ContainElement(""))
			Expect(pools.StatusCodes.Values()).To(Equal([]uint16{200, 404, 500, 301}))
		})

		It("should reject empty pools", func() {
			broken := loggen.DefaultPools()
			broken.URLs = nil
			Expect(broken.Validate()).To(MatchError(ContainSubstring("URL pool")))

			broken = loggen.DefaultPools()
			broken.StatusCodes = nil
			Expect(broken.Validate()).To(MatchError(ContainSubstring("status code pool")))
		})
	})

	It("should draw every field within its domain", func() {
		sampler := loggen.NewSampler(pools, window, 7, 0)

		for range 20_000 {
			rec := sampler.Sample()

			Expect(window.Contains(rec.Timestamp)).To(BeTrue())
			Expect(rec.Timestamp.Nanosecond()).To(BeZero())
			Expect(rec.UserID).To(BeNumerically(">=", 1))
			Expect(rec.UserID).To(BeNumerically("<=", loggen.MaxUserID))
			Expect(rec.SessionID.Version()).To(BeEquivalentTo(4))
			Expect(rec.ResponseTimeMs).To(BeNumerically(">=", loggen.MinResponseTimeMs))
			Expect(slices.Contains(pools.URLs, rec.URL)).To(BeTrue())
			Expect(slices.Contains(pools.UserAgents, rec.UserAgent)).To(BeTrue())
			Expect(slices.Contains(pools.Referrers, rec.ReferrerURL)).To(BeTrue())
			Expect([]uint16{200, 404, 500, 301}).To(ContainElement(rec.HttpStatus))

			addr, err := netip.ParseAddr(rec.IPAddress)
			Expect(err).NotTo(HaveOccurred())
			Expect(addr.Is4()).To(BeTrue())
			octets := addr.As4()
			Expect(octets[0]).To(BeNumerically(">=", 1))
			Expect(octets[3]).To(BeNumerically(">=", 1))
			Expect(octets[3]).To(BeNumerically("<=", 254))
		}
	})

	It("should produce status codes with the configured frequencies", func() {
		sampler := loggen.NewSampler(pools, window, 11, 0)

		const draws = 100_000
		counts := map[uint16]int{}
		for range draws {
			counts[sampler.Sample().HttpStatus]++
		}

		Expect(float64(counts[200]) / draws).To(BeNumerically("~", 0.85, 0.01))
		Expect(float64(counts[404]) / draws).To(BeNumerically("~", 0.10, 0.01))
		Expect(float64(counts[500]) / draws).To(BeNumerically("~", 0.03, 0.005))
		Expect(float64(counts[301]) / draws).To(BeNumerically("~", 0.02, 0.005))
	})

	It("should center response times around 150ms", func() {
		sampler := loggen.NewSampler(pools, window, 13, 0)

		const draws = 50_000
		var sum float64
		floored := 0
		for range draws {
			rt := sampler.Sample().ResponseTimeMs
			sum += float64(rt)
			if rt == loggen.MinResponseTimeMs {
				floored++
			}
		}

		Expect(sum / draws).To(BeNumerically("~", 150, 3))
		// P(N(150, 80) < 11) is about 4%
		Expect(float64(floored) / draws).To(BeNumerically("~", 0.04, 0.01))
	})

	It("should only produce the window start for a zero-width window", func() {
		point := mustWindow("2023-10-01 00:00:00", "2023-10-01 00:00:00")
		sampler := loggen.NewSampler(pools, point, 3, 0)

		for range 100 {
			Expect(sampler.Sample().Timestamp).To(BeTemporally("==", point.Start))
		}
	})

	It("should spread timestamps over a window wider than time.Duration", func() {
		start := time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
		wide, err := loggen.NewWindow(start, end)
		Expect(err).NotTo(HaveOccurred())
		sampler := loggen.NewSampler(pools, wide, 17, 0)

		minYear, maxYear := 10_000, 0
		for range 10_000 {
			ts := sampler.Sample().Timestamp
			Expect(wide.Contains(ts)).To(BeTrue())
			minYear = min(minYear, ts.Year())
			maxYear = max(maxYear, ts.Year())
		}
		Expect(minYear).To(BeNumerically("<", 100))
		Expect(maxYear).To(BeNumerically(">", 9_900))
	})

	It("should be reproducible for the same seed and stream", func() {
		a := loggen.NewSampler(pools, window, 99, 5)
		b := loggen.NewSampler(pools, window, 99, 5)

		for range 1000 {
			Expect(a.Sample()).To(Equal(b.Sample()))
		}
	})

	It("should differ across streams and seeds", func() {
		base := loggen.NewSampler(pools, window, 99, 5).Sample()
		otherStream := loggen.NewSampler(pools, window, 99, 6).Sample()
		otherSeed := loggen.NewSampler(pools, window, 100, 5).Sample()

		Expect(otherStream.SessionID).NotTo(Equal(base.SessionID))
		Expect(otherSeed.SessionID).NotTo(Equal(base.SessionID))
	})

	It("should overwrite every field in SampleInto", func() {
		sampler := loggen.NewSampler(pools, window, 1, 0)
		rec := loggen.LogRecord{URL: "stale", IPAddress: "stale", UserAgent: "stale", ReferrerURL: "stale"}

		sampler.SampleInto(&rec)
		Expect(rec.URL).NotTo(Equal("stale"))
		Expect(rec.IPAddress).NotTo(Equal("stale"))
		Expect(rec.UserAgent).NotTo(Equal("stale"))
		Expect(rec.ReferrerURL).NotTo(Equal("stale"))
	})
})
