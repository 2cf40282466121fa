package sound

import (
	"math"
	"sync"

	"github.com/montanaflynn/stats"
	"github.com/pion/mediadevices/pkg/wave"

	"go.viam.com/fittrack/utils"
)

// FloorDB is the quietest power reported, matching what platform meters give for silence.
const FloorDB = -160.0

// LinearLevel converts a power in dB to a level in [0, 1].
func LinearLevel(db float64) float64 {
	if db <= FloorDB {
		return 0
	}
	return utils.Clamp(math.Pow(10, db/20), 0, 1)
}

// PowerDB converts a mean square amplitude, full scale being 1, into dB clamped to [FloorDB, 0].
func PowerDB(meanSquare float64) float64 {
	if meanSquare <= 0 || math.IsNaN(meanSquare) {
		return FloorDB
	}
	return utils.Clamp(10*math.Log10(meanSquare), FloorDB, 0)
}

// MeanSquare returns the mean square of every sample in a chunk, normalized to full scale.
// Samples are read through wave.Sample.Int, which scales every format to the int32 range.
func MeanSquare(chunk wave.Audio) float64 {
	info := chunk.ChunkInfo()
	if info.Len == 0 || info.Channels == 0 {
		return 0
	}
	squares := make(stats.Float64Data, 0, info.Len*info.Channels)
	for i := 0; i < info.Len; i++ {
		for ch := 0; ch < info.Channels; ch++ {
			v := float64(chunk.At(i, ch).Int()) / math.MaxInt32
			squares = append(squares, v*v)
		}
	}
	mean, err := stats.Mean(squares)
	if err != nil {
		return 0
	}
	return mean
}

// A Meter accumulates chunk power between polls, like a recorder's meter.
type Meter struct {
	mu     sync.Mutex
	powers stats.Float64Data
}

// Add records one chunk.
func (m *Meter) Add(chunk wave.Audio) {
	ms := MeanSquare(chunk)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.powers = append(m.powers, ms)
}

// Poll returns the average power in dB since the previous poll and resets the meter. With nothing
// added it returns FloorDB.
func (m *Meter) Poll() float64 {
	m.mu.Lock()
	powers := m.powers
	m.powers = nil
	m.mu.Unlock()

	mean, err := stats.Mean(powers)
	if err != nil {
		return FloorDB
	}
	return PowerDB(mean)
}
