package loggen

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
)

const (
	// MaxUserID is the upper bound of the simulated user population
	MaxUserID = 500_000

	// MinResponseTimeMs floors the simulated response time
	MinResponseTimeMs = 10

	responseTimeMeanMs   = 150.0
	responseTimeStdDevMs = 80.0
)

// Sampler draws independent LogRecords from a set of pools.
// A Sampler is not safe for concurrent use; give each goroutine its own.
type Sampler struct {
	pools  Pools
	window Window
	span   int64
	source *rand.ChaCha8
	rng    *rand.Rand
}

// NewSampler returns a sampler whose random stream is fully determined by
// (seed, stream). Distinct streams of the same seed are independent.
func NewSampler(pools Pools, window Window, seed, stream uint64) *Sampler {
	source := rand.NewChaCha8(streamKey(seed, stream))
	return &Sampler{
		pools:  pools,
		window: window,
		span:   window.Seconds(),
		source: source,
		rng:    rand.New(source),
	}
}

func streamKey(seed, stream uint64) [32]byte {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[0:8], seed)
	binary.LittleEndian.PutUint64(key[8:16], stream)
	return key
}

// Sample draws one record
func (s *Sampler) Sample() LogRecord {
	var rec LogRecord
	s.SampleInto(&rec)
	return rec
}

// SampleInto overwrites rec with a freshly drawn record
func (s *Sampler) SampleInto(rec *LogRecord) {
	offset := s.rng.Int64N(s.span + 1)
	rec.Timestamp = s.window.At(offset)
	rec.UserID = uint32(1 + s.rng.IntN(MaxUserID))
	rec.SessionID = s.sessionID()
	rec.URL = s.pools.URLs[s.rng.IntN(len(s.pools.URLs))]
	rec.IPAddress = s.ipAddress()
	rec.UserAgent = s.pools.UserAgents[s.rng.IntN(len(s.pools.UserAgents))]
	rec.ResponseTimeMs = s.responseTime()
	rec.HttpStatus = s.pools.StatusCodes.Pick(s.rng)
	rec.ReferrerURL = s.pools.Referrers[s.rng.IntN(len(s.pools.Referrers))]
}

func (s *Sampler) sessionID() uuid.UUID {
	id, err := uuid.NewRandomFromReader(s.source)
	if err != nil {
		// ChaCha8.Read never fails
		panic(fmt.Sprintf("session id generation failed: %v", err))
	}
	return id
}

func (s *Sampler) ipAddress() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		1+s.rng.IntN(255),
		s.rng.IntN(256),
		s.rng.IntN(256),
		1+s.rng.IntN(254))
}

// responseTime truncates a normal draw toward zero and floors the result
func (s *Sampler) responseTime() uint32 {
	v := math.Trunc(s.rng.NormFloat64()*responseTimeStdDevMs + responseTimeMeanMs)
	if v < MinResponseTimeMs {
		return MinResponseTimeMs
	}
	return uint32(v)
}
